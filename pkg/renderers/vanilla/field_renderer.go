package vanilla

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"slices"
	"strconv"
	"strings"

	"github.com/goliatone/go-vitalpress/pkg/model"
	"github.com/goliatone/go-vitalpress/pkg/render"
	"github.com/goliatone/go-vitalpress/pkg/render/template"
	"github.com/goliatone/go-vitalpress/pkg/renderers/vanilla/components"
)

const componentConfigMetadataKey = "componentConfig"

type componentRenderer struct {
	templates template.TemplateRenderer
	registry  *components.Registry
	overrides map[string]string
	partials  map[string]string
	options   render.RenderOptions

	used map[string]struct{}
}

func newComponentRenderer(templates template.TemplateRenderer, registry *components.Registry, overrides, partials map[string]string, options render.RenderOptions) *componentRenderer {
	if registry == nil {
		registry = components.NewDefaultRegistry()
	}
	return &componentRenderer{
		templates: templates,
		registry:  registry,
		overrides: overrides,
		partials:  partials,
		options:   options,
		used:      make(map[string]struct{}),
	}
}

func (r *componentRenderer) render(field model.Field, path string) (string, error) {
	name := r.componentFor(field, path)
	descriptor, ok := r.registry.Descriptor(name)
	if !ok {
		return "", fmt.Errorf("component %q not registered for field %q", name, path)
	}

	config, err := parseComponentConfig(field.Metadata[componentConfigMetadataKey])
	if err != nil {
		return "", fmt.Errorf("parse component config for field %q: %w", path, err)
	}

	data := components.ComponentData{
		Template:      r.templates,
		RenderChild:   r.render,
		Config:        config,
		ThemePartials: r.partials,
		Path:          path,
		Value:         r.options.Values[path],
		Errors:        r.options.Errors[path],
	}
	if name == components.NameArray {
		data.Count = r.count(path)
	}

	var control bytes.Buffer
	if err := descriptor.Renderer(&control, field, data); err != nil {
		return "", fmt.Errorf("render component %q for field %q: %w", name, path, err)
	}
	r.used[name] = struct{}{}

	if name == components.NameObject || name == components.NameArray {
		return control.String(), nil
	}
	return buildFieldMarkup(field, name, data, control.String()), nil
}

// componentFor resolves overrides by instance path, then by the path with
// indexes removed, then by the widget hint and finally by field type.
func (r *componentRenderer) componentFor(field model.Field, path string) string {
	if name := r.overrides[path]; name != "" {
		return name
	}
	if name := r.overrides[stripIndexes(path)]; name != "" {
		return name
	}
	if widget := field.Hint("widget"); widget != "" {
		return widget
	}
	switch field.Type {
	case model.FieldTypeObject:
		return components.NameObject
	case model.FieldTypeBoolean:
		return components.NameCheckbox
	case model.FieldTypeArray:
		if field.Items != nil && field.Items.Type != model.FieldTypeObject && field.Items.Type != model.FieldTypeArray {
			return components.NameCSV
		}
		return components.NameArray
	}
	if len(field.Enum) > 0 {
		return components.NameSelect
	}
	return components.NameInput
}

// count prefers RenderOptions.Counts and falls back to the highest index
// found among the value keys under path.
func (r *componentRenderer) count(path string) int {
	if n, ok := r.options.Counts[path]; ok {
		return max(n, 0)
	}
	prefix := path + "."
	n := 0
	for key := range r.options.Values {
		rest, ok := strings.CutPrefix(key, prefix)
		if !ok {
			continue
		}
		head, _, _ := strings.Cut(rest, ".")
		if idx, err := strconv.Atoi(head); err == nil && idx+1 > n {
			n = idx + 1
		}
	}
	return n
}

func (r *componentRenderer) stylesheets() []string {
	names := make([]string, 0, len(r.used))
	for name := range r.used {
		names = append(names, name)
	}
	slices.Sort(names)
	return r.registry.Stylesheets(names)
}

func buildFieldMarkup(field model.Field, component string, data components.ComponentData, control string) string {
	id := data.ID()
	var b strings.Builder
	b.Grow(len(control) + 256)

	b.WriteString(`<div class="vp-field`)
	if cls := field.Hint("cssClass"); cls != "" {
		b.WriteByte(' ')
		b.WriteString(html.EscapeString(cls))
	}
	if len(data.Errors) > 0 {
		b.WriteString(` vp-field-invalid`)
	}
	b.WriteString(`" data-component="`)
	b.WriteString(html.EscapeString(component))
	b.WriteString(`">`)
	b.WriteByte('\n')

	if label := strings.TrimSpace(field.Label); label != "" && field.Hint("hideLabel") != "true" {
		b.WriteString(`<label class="vp-label" for="`)
		b.WriteString(html.EscapeString(id))
		b.WriteString(`">`)
		b.WriteString(html.EscapeString(label))
		if field.Required {
			b.WriteString(` <span class="vp-required">*</span>`)
		}
		b.WriteString("</label>\n")
	}

	b.WriteString(strings.TrimSpace(control))
	b.WriteByte('\n')

	if len(data.Errors) > 0 {
		b.WriteString(`<p class="vp-error" id="`)
		b.WriteString(html.EscapeString(id))
		b.WriteString(`-error">`)
		for i, message := range data.Errors {
			if i > 0 {
				b.WriteString(`<br>`)
			}
			b.WriteString(html.EscapeString(message))
		}
		b.WriteString("</p>\n")
	}
	if desc := strings.TrimSpace(field.Description); desc != "" {
		b.WriteString(`<small class="vp-description">`)
		b.WriteString(html.EscapeString(desc))
		b.WriteString("</small>\n")
	}
	if help := field.Hint("helpText"); help != "" {
		b.WriteString(`<small class="vp-help">`)
		b.WriteString(html.EscapeString(help))
		b.WriteString("</small>\n")
	}
	b.WriteString("</div>\n")
	return b.String()
}

func parseComponentConfig(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var cfg map[string]any
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func stripIndexes(path string) string {
	parts := strings.Split(path, ".")
	kept := parts[:0]
	for _, part := range parts {
		if _, err := strconv.Atoi(part); err != nil {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, ".")
}
