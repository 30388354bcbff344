// Package vanilla renders form models as server driven HTML forms. Nested
// collections are edited through submit buttons that post an _action value,
// so the forms work without client side scripting.
package vanilla

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/goliatone/go-vitalpress/pkg/model"
	"github.com/goliatone/go-vitalpress/pkg/render"
	rendertemplate "github.com/goliatone/go-vitalpress/pkg/render/template"
	"github.com/goliatone/go-vitalpress/pkg/render/template/gotemplate"
	"github.com/goliatone/go-vitalpress/pkg/renderers/vanilla/components"
)

const formTemplate = "templates/form.tmpl"

// Option configures the renderer.
type Option func(*config)

type config struct {
	templateFS  fs.FS
	templates   rendertemplate.TemplateRenderer
	registry    *components.Registry
	overrides   map[string]string
	stylesheets []string
}

// WithTemplatesFS supplies an alternate template bundle.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path != "" {
			cfg.templateFS = os.DirFS(path)
		}
	}
}

// WithTemplateRenderer injects a template engine, typically one shared with
// the site pages so it can be reset on reload.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templates = renderer
		}
	}
}

// WithComponentRegistry replaces the default component registry.
func WithComponentRegistry(registry *components.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.registry = registry
		}
	}
}

// WithComponentOverride forces a component for a field path. Paths may omit
// collection indexes to target every entry.
func WithComponentOverride(path, component string) Option {
	return func(cfg *config) {
		if cfg.overrides == nil {
			cfg.overrides = make(map[string]string)
		}
		cfg.overrides[strings.TrimSpace(path)] = component
	}
}

// WithStylesheet links an extra stylesheet from the rendered form.
func WithStylesheet(href string) Option {
	return func(cfg *config) {
		if href = strings.TrimSpace(href); href != "" {
			cfg.stylesheets = append(cfg.stylesheets, href)
		}
	}
}

// Renderer implements render.Renderer.
type Renderer struct {
	templates   rendertemplate.TemplateRenderer
	registry    *components.Registry
	overrides   map[string]string
	stylesheets []string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the renderer.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	templates := cfg.templates
	if templates == nil {
		engine, err := gotemplate.New(gotemplate.WithFS(cfg.templateFS), gotemplate.WithExtension(".tmpl"))
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		templates = engine
	}
	registry := cfg.registry
	if registry == nil {
		registry = components.NewDefaultRegistry()
	}
	return &Renderer{
		templates:   templates,
		registry:    registry,
		overrides:   cfg.overrides,
		stylesheets: cfg.stylesheets,
	}, nil
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render produces the form markup for form using the instance state in
// options.
func (r *Renderer) Render(ctx context.Context, form model.FormModel, options render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var partials map[string]string
	if options.Theme != nil {
		partials = options.Theme.Partials
	}
	fields := newComponentRenderer(r.templates, r.registry, r.overrides, partials, options)

	var body strings.Builder
	for _, field := range form.Fields {
		markup, err := fields.render(field, field.Name)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: %w", err)
		}
		body.WriteString(markup)
	}

	method, override := formMethod(form.Method, options.Method)
	hidden := options.Hidden
	if override != "" {
		hidden = render.MergeHiddenFields(hidden, render.Hidden("_method", override))
	}
	action := options.Action
	if action == "" {
		action = form.Endpoint
	}

	stylesheets := append(append([]string(nil), r.stylesheets...), fields.stylesheets()...)
	payload := map[string]any{
		"form":        form,
		"method":      method,
		"action":      action,
		"fields":      body.String(),
		"hidden":      render.SortedHiddenFields(hidden),
		"flash":       options.Flash,
		"form_errors": options.FormErrors,
		"buttons":     buttons(form, options.Buttons),
		"theme":       themeData(options),
		"stylesheets": stylesheets,
	}
	result, err := r.templates.RenderTemplate(formTemplate, payload)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	return []byte(result), nil
}

// formMethod returns the form element method and, for verbs browsers cannot
// submit, the value of the hidden _method input.
func formMethod(declared, override string) (string, string) {
	method := strings.ToUpper(strings.TrimSpace(override))
	if method == "" {
		method = strings.ToUpper(strings.TrimSpace(declared))
	}
	switch method {
	case "", http.MethodPost:
		return "post", ""
	case http.MethodGet:
		return "get", ""
	default:
		return "post", method
	}
}

func buttons(form model.FormModel, configured []render.Button) []map[string]string {
	if len(configured) == 0 {
		label := form.UIHints["submitLabel"]
		if label == "" {
			label = "Submit"
		}
		configured = []render.Button{{Label: label, Variant: "primary"}}
	}
	out := make([]map[string]string, 0, len(configured))
	for _, button := range configured {
		variant := button.Variant
		if variant == "" {
			variant = "secondary"
		}
		novalidate := "false"
		if button.Value != "" && button.Value != "save" {
			novalidate = "true"
		}
		out = append(out, map[string]string{
			"label":      button.Label,
			"value":      button.Value,
			"variant":    variant,
			"novalidate": novalidate,
		})
	}
	return out
}

// themeData flattens the renderer config into template friendly values. The
// config holds a func so it cannot be passed to the template as is.
func themeData(options render.RenderOptions) map[string]any {
	cfg := options.Theme
	if cfg == nil {
		return nil
	}
	names := make([]string, 0, len(cfg.CSSVars))
	for name := range cfg.CSSVars {
		names = append(names, name)
	}
	sort.Strings(names)
	vars := make([]map[string]string, 0, len(names))
	for _, name := range names {
		vars = append(vars, map[string]string{"name": name, "value": cfg.CSSVars[name]})
	}
	data := map[string]any{
		"name":    cfg.Theme,
		"variant": cfg.Variant,
		"vars":    vars,
	}
	if cfg.AssetURL != nil {
		if href := cfg.AssetURL(StylesheetName); href != "" {
			data["stylesheet"] = href
		}
	}
	return data
}
