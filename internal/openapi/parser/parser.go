package parser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	pkgopenapi "github.com/goliatone/go-vitalpress/pkg/openapi"
)

// Parser implements pkgopenapi.Parser using kin-openapi.
type Parser struct {
	options pkgopenapi.ParserOptions
}

var _ pkgopenapi.Parser = (*Parser)(nil)

// New constructs a Parser with the given options.
func New(options pkgopenapi.ParserOptions) *Parser {
	return &Parser{options: options}
}

// Load decodes and, when reference resolution is enabled, validates raw
// OpenAPI data. It is shared with the payload validator.
func Load(ctx context.Context, raw []byte, options pkgopenapi.ParserOptions) (*openapi3.T, error) {
	if len(raw) == 0 {
		return nil, errors.New("openapi parser: document payload is empty")
	}
	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: false,
	}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi parser: load document: %w", err)
	}
	if options.ResolveReferences {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi parser: validate: %w", err)
		}
	}
	if (spec.Paths == nil || spec.Paths.Len() == 0) && !options.AllowPartialDocuments {
		return nil, errors.New("openapi parser: document does not contain any paths")
	}
	return spec, nil
}

// Operations converts a Document into a map keyed by operationId.
func (p *Parser) Operations(ctx context.Context, doc pkgopenapi.Document) (map[string]pkgopenapi.Operation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	spec, err := Load(ctx, doc.Raw(), p.options)
	if err != nil {
		return nil, err
	}

	operations := make(map[string]pkgopenapi.Operation)
	if spec.Paths != nil {
		for path, item := range spec.Paths.Map() {
			if item == nil {
				continue
			}
			for method, operation := range item.Operations() {
				collectOperation(operations, method, path, operation)
			}
		}
	}
	if len(operations) == 0 && !p.options.AllowPartialDocuments {
		return nil, errors.New("openapi parser: no operations extracted")
	}
	return operations, nil
}

// RequestSchema returns the JSON request body schema of operationID.
func RequestSchema(spec *openapi3.T, operationID string) (*openapi3.Schema, error) {
	if spec == nil || spec.Paths == nil {
		return nil, errors.New("openapi parser: document is empty")
	}
	for _, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for _, operation := range item.Operations() {
			if operation == nil || operation.OperationID != operationID {
				continue
			}
			body := operation.RequestBody
			if body == nil || body.Value == nil {
				return nil, fmt.Errorf("openapi parser: operation %q has no request body", operationID)
			}
			media := body.Value.Content.Get("application/json")
			if media == nil || media.Schema == nil || media.Schema.Value == nil {
				return nil, fmt.Errorf("openapi parser: operation %q has no JSON schema", operationID)
			}
			return media.Schema.Value, nil
		}
	}
	return nil, fmt.Errorf("openapi parser: operation %q not found", operationID)
}

func collectOperation(target map[string]pkgopenapi.Operation, method, path string, operation *openapi3.Operation) {
	if operation == nil {
		return
	}
	method = strings.ToUpper(method)
	opID := operation.OperationID
	if opID == "" {
		opID = strings.ToLower(method) + ":" + path
	}

	op, err := pkgopenapi.NewOperation(opID, method, path, extractRequestSchema(operation.RequestBody), extractResponseSchemas(operation.Responses))
	if err != nil {
		return
	}
	op.Summary = operation.Summary
	op.Description = operation.Description
	op.Extensions = extractExtensions(operation.Extensions)
	target[opID] = op
}

func extractRequestSchema(requestBody *openapi3.RequestBodyRef) pkgopenapi.Schema {
	if requestBody == nil {
		return pkgopenapi.Schema{}
	}
	if requestBody.Value == nil {
		return pkgopenapi.Schema{Ref: requestBody.Ref}
	}
	content := requestBody.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded"} {
		if mt, ok := content[mediaType]; ok {
			return convertSchema(mt.Schema, nil)
		}
	}
	for _, mt := range content {
		return convertSchema(mt.Schema, nil)
	}
	return pkgopenapi.Schema{}
}

func extractResponseSchemas(responses *openapi3.Responses) map[string]pkgopenapi.Schema {
	if responses == nil || responses.Len() == 0 {
		return nil
	}
	result := make(map[string]pkgopenapi.Schema)
	for status, ref := range responses.Map() {
		if ref == nil || ref.Value == nil {
			continue
		}
		mt, ok := ref.Value.Content["application/json"]
		if !ok {
			continue
		}
		schema := convertSchema(mt.Schema, nil)
		if schema.Description == "" && ref.Value.Description != nil {
			schema.Description = *ref.Value.Description
		}
		result[status] = schema
	}
	return result
}

// convertSchema copies the kin-openapi tree into pkgopenapi.Schema. visiting
// holds the $refs on the current branch; a repeated ref is emitted as a bare
// reference so recursive components terminate.
func convertSchema(ref *openapi3.SchemaRef, visiting map[string]struct{}) pkgopenapi.Schema {
	if ref == nil {
		return pkgopenapi.Schema{}
	}
	if ref.Value == nil {
		return pkgopenapi.Schema{Ref: ref.Ref}
	}
	if ref.Ref != "" {
		if _, seen := visiting[ref.Ref]; seen {
			return pkgopenapi.Schema{Ref: ref.Ref, Type: firstSchemaType(ref.Value.Type)}
		}
		next := make(map[string]struct{}, len(visiting)+1)
		for key := range visiting {
			next[key] = struct{}{}
		}
		next[ref.Ref] = struct{}{}
		visiting = next
	}

	src := ref.Value
	schema := pkgopenapi.Schema{
		Ref:         ref.Ref,
		Type:        firstSchemaType(src.Type),
		Format:      src.Format,
		Description: src.Description,
		Default:     src.Default,
		Pattern:     src.Pattern,
		Extensions:  extractExtensions(src.Extensions),
	}
	if len(src.Required) > 0 {
		schema.Required = append([]string(nil), src.Required...)
	}
	if len(src.Enum) > 0 {
		schema.Enum = append([]any(nil), src.Enum...)
	}
	if len(src.Properties) > 0 {
		schema.Properties = make(map[string]pkgopenapi.Schema, len(src.Properties))
		for name, property := range src.Properties {
			schema.Properties[name] = convertSchema(property, visiting)
		}
	}
	if src.Items != nil {
		items := convertSchema(src.Items, visiting)
		schema.Items = &items
	}
	if src.Min != nil {
		value := *src.Min
		schema.Minimum = &value
	}
	if src.Max != nil {
		value := *src.Max
		schema.Maximum = &value
	}
	if src.MinLength != 0 {
		value := int(src.MinLength)
		schema.MinLength = &value
	}
	if src.MaxLength != nil {
		value := int(*src.MaxLength)
		schema.MaxLength = &value
	}
	if src.MinItems != 0 {
		value := int(src.MinItems)
		schema.MinItems = &value
	}
	if src.MaxItems != nil {
		value := int(*src.MaxItems)
		schema.MaxItems = &value
	}
	for _, part := range src.AllOf {
		if part == nil || part.Value == nil {
			continue
		}
		for key, value := range extractExtensions(part.Value.Extensions) {
			if schema.Extensions == nil {
				schema.Extensions = make(map[string]any)
			}
			schema.Extensions[key] = value
		}
	}
	return schema
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	default:
		return strings.Join(values, ",")
	}
}

const extensionNamespace = "x-formgen"

// extractExtensions keeps the x-formgen namespace, either as a nested object
// or as x-formgen-<key> entries.
func extractExtensions(raw map[string]any) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	result := make(map[string]any)
	for key, value := range raw {
		switch {
		case key == extensionNamespace:
			if mapped, ok := value.(map[string]any); ok {
				for nestedKey, nestedValue := range mapped {
					result[extensionNamespace+"-"+nestedKey] = nestedValue
				}
			}
		case strings.HasPrefix(key, extensionNamespace+"-"):
			result[key] = value
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
