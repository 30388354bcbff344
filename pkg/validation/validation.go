// Package validation checks request payloads against the request body schema
// of a contract operation and reports issues keyed by dotted field path.
package validation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-vitalpress/internal/openapi/parser"
	pkgopenapi "github.com/goliatone/go-vitalpress/pkg/openapi"
)

// SchemaIssue represents a validation error with location metadata. Path is
// the JSON pointer, Field the dotted form used by the editor.
type SchemaIssue struct {
	Path    string `json:"path,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// SchemaValidationResult captures the outcome of a payload check.
type SchemaValidationResult struct {
	Valid  bool          `json:"valid"`
	Issues []SchemaIssue `json:"issues,omitempty"`
}

// Fields groups issue messages by field, the shape the form renderer takes.
func (r SchemaValidationResult) Fields() map[string][]string {
	if len(r.Issues) == 0 {
		return nil
	}
	out := make(map[string][]string, len(r.Issues))
	for _, issue := range r.Issues {
		out[issue.Field] = append(out[issue.Field], issue.Message)
	}
	return out
}

// Validator holds a parsed contract.
type Validator struct {
	spec *openapi3.T
}

// New parses raw OpenAPI data. References are always resolved.
func New(ctx context.Context, raw []byte) (*Validator, error) {
	spec, err := parser.Load(ctx, raw, pkgopenapi.NewParserOptions(pkgopenapi.WithReferenceResolution(true)))
	if err != nil {
		return nil, err
	}
	return &Validator{spec: spec}, nil
}

// Validate encodes payload as JSON and visits it with the request schema of
// operationID. An error is returned only when the check could not run.
func (v *Validator) Validate(ctx context.Context, operationID string, payload any) (SchemaValidationResult, error) {
	if err := ctx.Err(); err != nil {
		return SchemaValidationResult{}, err
	}
	schema, err := parser.RequestSchema(v.spec, operationID)
	if err != nil {
		return SchemaValidationResult{}, err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return SchemaValidationResult{}, fmt.Errorf("validation: encode payload: %w", err)
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return SchemaValidationResult{}, fmt.Errorf("validation: decode payload: %w", err)
	}

	result := SchemaValidationResult{Valid: true}
	if err := schema.VisitJSON(value, openapi3.MultiErrors()); err != nil {
		result.Valid = false
		result.Issues = issues(err)
	}
	return result, nil
}

func issues(err error) []SchemaIssue {
	var out []SchemaIssue
	seen := make(map[SchemaIssue]struct{})
	var walk func(error)
	walk = func(err error) {
		var multi openapi3.MultiError
		if errors.As(err, &multi) {
			for _, nested := range multi {
				walk(nested)
			}
			return
		}
		issue := issueFromError(err)
		if _, dup := seen[issue]; dup {
			return
		}
		seen[issue] = struct{}{}
		out = append(out, issue)
	}
	walk(err)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

func issueFromError(err error) SchemaIssue {
	var schemaErr *openapi3.SchemaError
	if !errors.As(err, &schemaErr) {
		return SchemaIssue{Message: strings.TrimSpace(err.Error())}
	}
	pointer := schemaErr.JSONPointer()
	issue := SchemaIssue{
		Field:   strings.Join(pointer, "."),
		Message: strings.TrimSpace(schemaErr.Reason),
	}
	if len(pointer) > 0 {
		issue.Path = "/" + strings.Join(pointer, "/")
	}
	if issue.Message == "" {
		issue.Message = "is invalid"
	}
	return issue
}
