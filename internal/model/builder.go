package model

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	pkgopenapi "github.com/goliatone/go-vitalpress/pkg/openapi"
)

const extensionPrefix = "x-formgen-"

// hintKeys lists the extension keys surfaced to renderers through UIHints.
var hintKeys = map[string]struct{}{
	"widget":        {},
	"placeholder":   {},
	"helpText":      {},
	"inputType":     {},
	"repeaterLabel": {},
	"submitLabel":   {},
	"cssClass":      {},
	"hideLabel":     {},
	"rows":          {},
	"label":         {},
}

// Builder converts OpenAPI operations into form models.
type Builder struct {
	opts Options
}

// New creates a Builder with the supplied options.
func New(options Options) *Builder {
	opts := defaultOptions()
	if options.Labeler != nil {
		opts.Labeler = options.Labeler
	}
	return &Builder{opts: opts}
}

// Build transforms the request body of an operation into a FormModel.
func (b *Builder) Build(op pkgopenapi.Operation) (FormModel, error) {
	if err := validateOperation(op); err != nil {
		return FormModel{}, err
	}

	form := FormModel{
		OperationID: op.ID,
		Endpoint:    op.Path,
		Method:      strings.ToUpper(op.Method),
		Summary:     op.Summary,
		Description: op.Description,
	}

	metadata := metadataFromExtensions(op.Extensions)
	for key, value := range metadataFromExtensions(op.RequestBody.Extensions) {
		if metadata == nil {
			metadata = make(map[string]string)
		}
		if _, exists := metadata[key]; !exists {
			metadata[key] = value
		}
	}
	form.Metadata = metadata
	form.UIHints = hintsFrom(metadata)

	fields, err := b.objectFields(op.RequestBody)
	if err != nil {
		return FormModel{}, err
	}
	form.Fields = fields
	return form, nil
}

func (b *Builder) objectFields(schema pkgopenapi.Schema) ([]Field, error) {
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	fields := make([]Field, 0, len(schema.Properties))
	for _, name := range propertyOrder(schema) {
		field, err := b.field(name, schema.Properties[name], required[name])
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func (b *Builder) field(name string, schema pkgopenapi.Schema, required bool) (Field, error) {
	field := Field{
		Name:        name,
		Type:        mapType(schema.Type, len(schema.Properties) > 0),
		Format:      schema.Format,
		Required:    required,
		Label:       b.opts.Labeler(name),
		Description: schema.Description,
		Default:     schema.Default,
		Metadata:    metadataFromExtensions(schema.Extensions),
	}
	if len(schema.Enum) > 0 {
		field.Enum = append([]any(nil), schema.Enum...)
	}
	field.UIHints = hintsFrom(field.Metadata)
	if label := field.Hint("label"); label != "" {
		field.Label = label
	}
	applyValidations(&field, schema)

	switch field.Type {
	case FieldTypeObject:
		nested, err := b.objectFields(schema)
		if err != nil {
			return Field{}, fmt.Errorf("model builder: object %q: %w", name, err)
		}
		field.Nested = nested
	case FieldTypeArray:
		if schema.Items == nil {
			return Field{}, fmt.Errorf("model builder: array field %q missing items", name)
		}
		item, err := b.field(name+"Item", *schema.Items, false)
		if err != nil {
			return Field{}, err
		}
		field.Items = &item
	default:
		applyFormatHints(&field)
	}
	return field, nil
}

// propertyOrder honours x-formgen-order and appends the remaining properties
// alphabetically.
func propertyOrder(schema pkgopenapi.Schema) []string {
	rest := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		rest = append(rest, name)
	}
	sort.Strings(rest)

	listed := orderList(schema.Extensions[extensionPrefix+"order"])
	ordered := make([]string, 0, len(rest))
	for _, name := range listed {
		if _, ok := schema.Properties[name]; ok && !slices.Contains(ordered, name) {
			ordered = append(ordered, name)
		}
	}
	for _, name := range rest {
		if !slices.Contains(ordered, name) {
			ordered = append(ordered, name)
		}
	}
	return ordered
}

func orderList(value any) []string {
	switch typed := value.(type) {
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			if s, ok := item.(string); ok {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	case []string:
		return typed
	case string:
		parts := strings.Split(typed, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return nil
}

func mapType(schemaType string, hasProperties bool) FieldType {
	switch schemaType {
	case "integer":
		return FieldTypeInteger
	case "number":
		return FieldTypeNumber
	case "boolean":
		return FieldTypeBoolean
	case "array":
		return FieldTypeArray
	case "object":
		return FieldTypeObject
	case "":
		if hasProperties {
			return FieldTypeObject
		}
	}
	return FieldTypeString
}

func applyValidations(field *Field, schema pkgopenapi.Schema) {
	addFloat := func(kind string, value *float64) {
		if value != nil {
			field.Validations = append(field.Validations, ValidationRule{
				Kind:   kind,
				Params: map[string]string{"value": strconv.FormatFloat(*value, 'f', -1, 64)},
			})
		}
	}
	addInt := func(kind string, value *int) {
		if value != nil {
			field.Validations = append(field.Validations, ValidationRule{
				Kind:   kind,
				Params: map[string]string{"value": strconv.Itoa(*value)},
			})
		}
	}

	addFloat(ValidationRuleMin, schema.Minimum)
	addFloat(ValidationRuleMax, schema.Maximum)
	addInt(ValidationRuleMinLength, schema.MinLength)
	addInt(ValidationRuleMaxLength, schema.MaxLength)
	addInt(ValidationRuleMinItems, schema.MinItems)
	addInt(ValidationRuleMaxItems, schema.MaxItems)
	if schema.Pattern != "" {
		field.Validations = append(field.Validations, ValidationRule{
			Kind:   ValidationRulePattern,
			Params: map[string]string{"pattern": schema.Pattern},
		})
	}
}

// metadataFromExtensions stringifies every x-formgen-<key> entry under the
// camel cased <key>.
func metadataFromExtensions(ext map[string]any) map[string]string {
	var out map[string]string
	for key, value := range ext {
		name, ok := strings.CutPrefix(key, extensionPrefix)
		if !ok || name == "" {
			continue
		}
		name = camelKey(name)
		text := stringify(value)
		if text == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[name] = text
	}
	return out
}

// camelKey turns submit-label into submitLabel.
func camelKey(name string) string {
	parts := strings.Split(name, "-")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

func hintsFrom(metadata map[string]string) map[string]string {
	var out map[string]string
	for key, value := range metadata {
		if _, ok := hintKeys[key]; !ok {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[key] = value
	}
	return out
}

func stringify(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(typed)
	case bool:
		return strconv.FormatBool(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	case []any:
		parts := make([]string, 0, len(typed))
		for _, item := range typed {
			if text := stringify(item); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, ",")
	default:
		return strings.TrimSpace(fmt.Sprint(typed))
	}
}

func applyFormatHints(field *Field) {
	if field.Hint("inputType") != "" {
		return
	}
	var inputType string
	switch strings.ToLower(strings.TrimSpace(field.Format)) {
	case "date":
		inputType = "date"
	case "date-time":
		inputType = "datetime-local"
	case "email":
		inputType = "email"
	case "uri", "url":
		inputType = "url"
	default:
		switch field.Type {
		case FieldTypeInteger, FieldTypeNumber:
			inputType = "number"
		default:
			return
		}
	}
	if field.UIHints == nil {
		field.UIHints = make(map[string]string, 1)
	}
	field.UIHints["inputType"] = inputType
}
