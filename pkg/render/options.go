package render

import theme "github.com/goliatone/go-theme"

// Button is a submit button carrying an _action value.
type Button struct {
	Label string
	// Value is posted as _action. An empty value submits the default action.
	Value string
	// Variant is a styling hint: primary, secondary or danger.
	Variant string
}

// RenderOptions describe per request data renderers use without mutating the
// form model.
type RenderOptions struct {
	// Method overrides the method declared by the form model. PUT, PATCH and
	// DELETE are posted with a hidden _method input.
	Method string
	// Action overrides the form endpoint.
	Action string
	// Values pre-populates controls by dotted path, e.g.
	// "content.body.0.headline".
	Values map[string]any
	// Counts holds the number of rendered entries per collection path. A
	// missing entry renders the collection empty.
	Counts map[string]int
	// Errors carries field messages keyed by dotted path.
	Errors map[string][]string
	// FormErrors are rendered above the fields.
	FormErrors []string
	// Flash is a one-off notice rendered above the form.
	Flash string
	// Hidden inputs emitted before the fields.
	Hidden map[string]string
	// Buttons replaces the default single submit button.
	Buttons []Button
	// Theme supplies CSS variables and asset URLs.
	Theme *theme.RendererConfig
}
