// Package render defines the renderer contract shared by the form renderers
// together with the per request options they consume.
package render

import (
	"context"

	"github.com/goliatone/go-vitalpress/pkg/model"
)

// Renderer converts a FormModel into markup.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, form model.FormModel, options RenderOptions) ([]byte, error)
}
