// Package contract embeds the OpenAPI documents the admin and calculator
// forms are generated from, plus the editorial presets applied to them.
package contract

import (
	"embed"
	"io/fs"
)

// Document names inside FS.
const (
	Backend     = "openapi.yaml"
	Calculators = "calculators.yaml"
	// Presets holds editorial copy applied to the generated forms.
	Presets = "presets.json"
)

// Operation ids used by the site.
const (
	OpCreatePost   = "createPost"
	OpUpdatePost   = "updatePost"
	OpGeneratePost = "generatePost"
	OpBMI          = "bmi"
	OpCalories     = "calories"
)

//go:embed openapi.yaml calculators.yaml presets.json
var files embed.FS

// FS exposes the embedded documents.
func FS() fs.FS {
	return files
}

// MustRead returns an embedded document or panics.
func MustRead(name string) []byte {
	data, err := fs.ReadFile(files, name)
	if err != nil {
		panic(err)
	}
	return data
}
