package vitalpress

import (
	"io/fs"

	"github.com/goliatone/go-vitalpress/pkg/renderers/vanilla"
)

// FormTemplates exposes the built-in form templates so callers can extend
// them with WithTemplatesFS.
func FormTemplates() fs.FS {
	return vanilla.TemplatesFS()
}

// FormAssets exposes the form stylesheet.
//
// Typical mount:
//
//	mux.Handle("/forms/",
//	  http.StripPrefix("/forms/",
//	    http.FileServerFS(vitalpress.FormAssets()),
//	  ),
//	)
func FormAssets() fs.FS {
	return vanilla.AssetsFS()
}
