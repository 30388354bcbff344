package components

import (
	"bytes"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/goliatone/go-vitalpress/pkg/model"
)

const templatePrefix = "templates/components/"

// NewDefaultRegistry returns a registry with the built-in components.
func NewDefaultRegistry() *Registry {
	registry := New()
	registry.MustRegister(NameInput, Descriptor{
		Renderer: templateRenderer("forms.input", templatePrefix+"input.tmpl"),
	})
	registry.MustRegister(NameTextarea, Descriptor{
		Renderer: templateRenderer("forms.textarea", templatePrefix+"textarea.tmpl"),
	})
	registry.MustRegister(NameSelect, Descriptor{
		Renderer: templateRenderer("forms.select", templatePrefix+"select.tmpl"),
	})
	registry.MustRegister(NameCheckbox, Descriptor{
		Renderer: templateRenderer("forms.checkbox", templatePrefix+"checkbox.tmpl"),
	})
	registry.MustRegister(NameCSV, Descriptor{
		Renderer: templateRenderer("forms.csv", templatePrefix+"csv.tmpl"),
	})
	registry.MustRegister(NameObject, Descriptor{Renderer: objectRenderer})
	registry.MustRegister(NameArray, Descriptor{Renderer: arrayRenderer})
	return registry
}

type option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

type attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func templateRenderer(partialKey, templateName string) Renderer {
	return func(buf *bytes.Buffer, field model.Field, data ComponentData) error {
		if data.Template == nil {
			return fmt.Errorf("components: template renderer not configured for %q", templateName)
		}
		name := templateName
		if candidate := strings.TrimSpace(data.ThemePartials[partialKey]); candidate != "" {
			name = candidate
		}

		value := FormatValue(data.Value)
		if value == "" && field.Default != nil {
			value = FormatValue(field.Default)
		}
		payload := map[string]any{
			"field":       field,
			"config":      data.Config,
			"id":          data.ID(),
			"name":        data.Path,
			"value":       value,
			"checked":     value == "true" || value == "on",
			"errors":      data.Errors,
			"inputType":   inputType(field),
			"placeholder": field.Hint("placeholder"),
			"rows":        rows(field),
			"options":     options(field, value),
			"attrs":       attributes(field),
		}
		rendered, err := data.Template.RenderTemplate(name, payload)
		if err != nil {
			return fmt.Errorf("components: render template %q: %w", name, err)
		}
		buf.WriteString(rendered)
		return nil
	}
}

// FormatValue renders a value the way form inputs expect it. Lists are joined
// with ", ".
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []string:
		return strings.Join(v, ", ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, FormatValue(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

func inputType(field model.Field) string {
	if hint := field.Hint("inputType"); hint != "" {
		return hint
	}
	switch field.Type {
	case model.FieldTypeInteger, model.FieldTypeNumber:
		return "number"
	}
	return "text"
}

func rows(field model.Field) string {
	if n, err := strconv.Atoi(field.Hint("rows")); err == nil && n > 0 {
		return strconv.Itoa(n)
	}
	return "4"
}

func options(field model.Field, current string) []option {
	out := make([]option, 0, len(field.Enum))
	for _, raw := range field.Enum {
		value := FormatValue(raw)
		out = append(out, option{
			Value:    value,
			Label:    model.DefaultLabeler(value),
			Selected: value == current,
		})
	}
	return out
}

func attributes(field model.Field) []attribute {
	var out []attribute
	for _, rule := range field.Validations {
		var name string
		switch rule.Kind {
		case model.ValidationRuleMin:
			name = "min"
		case model.ValidationRuleMax:
			name = "max"
		case model.ValidationRuleMinLength:
			name = "minlength"
		case model.ValidationRuleMaxLength:
			name = "maxlength"
		case model.ValidationRulePattern:
			out = append(out, attribute{Name: "pattern", Value: rule.Params["pattern"]})
			continue
		default:
			continue
		}
		out = append(out, attribute{Name: name, Value: rule.Params["value"]})
	}
	if field.Type == model.FieldTypeNumber {
		out = append(out, attribute{Name: "step", Value: "any"})
	}
	return out
}

func objectRenderer(buf *bytes.Buffer, field model.Field, data ComponentData) error {
	var b strings.Builder
	b.WriteString(`<fieldset class="vp-fieldset" id="`)
	b.WriteString(html.EscapeString(data.ID()))
	b.WriteString(`">`)
	if label := strings.TrimSpace(field.Label); label != "" {
		b.WriteString(`<legend class="vp-legend">`)
		b.WriteString(html.EscapeString(label))
		b.WriteString(`</legend>`)
	}
	writeMessages(&b, data)
	if data.RenderChild != nil {
		for _, nested := range field.Nested {
			child, err := data.RenderChild(nested, data.Path+"."+nested.Name)
			if err != nil {
				return err
			}
			b.WriteString(child)
		}
	}
	b.WriteString(`</fieldset>`)
	buf.WriteString(b.String())
	return nil
}

// arrayRenderer lays out Count entries with move and remove buttons plus an
// add button. Every button posts an _action value naming the entry path.
func arrayRenderer(buf *bytes.Buffer, field model.Field, data ComponentData) error {
	if field.Items == nil {
		return fmt.Errorf("components: array field %q has no items", field.Name)
	}
	item := *field.Items
	itemLabel := field.Hint("repeaterLabel")
	if itemLabel == "" {
		itemLabel = item.Hint("repeaterLabel")
	}
	if itemLabel == "" {
		itemLabel = "Item"
	}

	var b strings.Builder
	b.WriteString(`<fieldset class="vp-repeater" id="`)
	b.WriteString(html.EscapeString(data.ID()))
	b.WriteString(`" data-path="`)
	b.WriteString(html.EscapeString(data.Path))
	b.WriteString(`" data-count="`)
	b.WriteString(strconv.Itoa(data.Count))
	b.WriteString(`">`)
	if label := strings.TrimSpace(field.Label); label != "" {
		b.WriteString(`<legend class="vp-legend">`)
		b.WriteString(html.EscapeString(label))
		b.WriteString(`</legend>`)
	}
	writeMessages(&b, data)

	for i := 0; i < data.Count; i++ {
		itemPath := data.Path + "." + strconv.Itoa(i)
		b.WriteString(`<div class="vp-repeater-item" data-index="`)
		b.WriteString(strconv.Itoa(i))
		b.WriteString(`"><div class="vp-repeater-head"><span class="vp-repeater-title">`)
		b.WriteString(html.EscapeString(fmt.Sprintf("%s %d", itemLabel, i+1)))
		b.WriteString(`</span>`)
		writeButton(&b, "up:"+itemPath, "Move up", "↑", i == 0)
		writeButton(&b, "down:"+itemPath, "Move down", "↓", i == data.Count-1)
		writeButton(&b, "remove:"+itemPath, "Remove", "Remove", false)
		b.WriteString(`</div>`)

		if data.RenderChild != nil {
			if item.Type == model.FieldTypeObject {
				for _, nested := range item.Nested {
					child, err := data.RenderChild(nested, itemPath+"."+nested.Name)
					if err != nil {
						return err
					}
					b.WriteString(child)
				}
			} else {
				entry := item
				entry.Label = ""
				child, err := data.RenderChild(entry, itemPath)
				if err != nil {
					return err
				}
				b.WriteString(child)
			}
		}
		b.WriteString(`</div>`)
	}

	b.WriteString(`<button type="submit" class="vp-button vp-button-add" name="_action" value="add:`)
	b.WriteString(html.EscapeString(data.Path))
	b.WriteString(`" formnovalidate>Add `)
	b.WriteString(html.EscapeString(strings.ToLower(itemLabel)))
	b.WriteString(`</button></fieldset>`)
	buf.WriteString(b.String())
	return nil
}

func writeButton(b *strings.Builder, action, title, text string, disabled bool) {
	b.WriteString(`<button type="submit" class="vp-button vp-button-small" name="_action" value="`)
	b.WriteString(html.EscapeString(action))
	b.WriteString(`" title="`)
	b.WriteString(html.EscapeString(title))
	b.WriteString(`" formnovalidate`)
	if disabled {
		b.WriteString(` disabled`)
	}
	b.WriteString(`>`)
	b.WriteString(html.EscapeString(text))
	b.WriteString(`</button>`)
}

func writeMessages(b *strings.Builder, data ComponentData) {
	for _, message := range data.Errors {
		b.WriteString(`<p class="vp-error">`)
		b.WriteString(html.EscapeString(message))
		b.WriteString(`</p>`)
	}
}
