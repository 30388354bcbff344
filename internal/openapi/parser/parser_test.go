package parser

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/go-cmp/cmp"

	pkgopenapi "github.com/goliatone/go-vitalpress/pkg/openapi"
)

const document = `openapi: 3.0.3
info:
  title: sample
  version: "1.0.0"
paths:
  /posts:
    post:
      operationId: createPost
      summary: Create post
      x-formgen-submit-label: Publish
      requestBody:
        required: true
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/Post'
      responses:
        "201":
          description: created
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Post'
    get:
      responses:
        "200":
          description: ok
components:
  schemas:
    Post:
      type: object
      required: [title]
      x-formgen:
        order: [title, tags]
      properties:
        title:
          type: string
          maxLength: 120
          minLength: 3
        tags:
          type: array
          maxItems: 5
          items:
            type: string
        parent:
          $ref: '#/components/schemas/Post'
`

func TestOperations(t *testing.T) {
	doc := pkgopenapi.MustNewDocument(pkgopenapi.SourceFromFS("openapi.yaml"), []byte(document))
	operations, err := New(pkgopenapi.NewParserOptions()).Operations(context.Background(), doc)
	if err != nil {
		t.Fatalf("operations: %v", err)
	}

	var ids []string
	for id := range operations {
		ids = append(ids, id)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 operations, got %v", ids)
	}
	if _, ok := operations["get:/posts"]; !ok {
		t.Fatalf("expected synthesized id for anonymous GET, got %v", ids)
	}

	create := operations["createPost"]
	if create.Method != "POST" || create.Path != "/posts" || create.Summary != "Create post" {
		t.Fatalf("unexpected operation: %+v", create)
	}
	if diff := cmp.Diff(map[string]any{"x-formgen-submit-label": "Publish"}, create.Extensions); diff != "" {
		t.Fatalf("operation extensions mismatch (-want +got):\n%s", diff)
	}

	body := create.RequestBody
	if diff := cmp.Diff([]string{"title"}, body.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}
	if got := body.Extensions["x-formgen-order"]; got == nil {
		t.Fatalf("expected nested x-formgen namespace to be flattened, got %v", body.Extensions)
	}
	title := body.Properties["title"]
	if title.MaxLength == nil || *title.MaxLength != 120 || title.MinLength == nil || *title.MinLength != 3 {
		t.Fatalf("unexpected title bounds: %+v", title)
	}
	tags := body.Properties["tags"]
	if tags.Items == nil || tags.Items.Type != "string" || tags.MaxItems == nil || *tags.MaxItems != 5 {
		t.Fatalf("unexpected tags schema: %+v", tags)
	}
	parent := body.Properties["parent"]
	if parent.Ref == "" || len(parent.Properties) != 0 {
		t.Fatalf("expected recursive ref to stop, got %s", parent.DebugString())
	}
	if !create.HasResponse("201") {
		t.Fatalf("expected 201 response schema")
	}
}

func TestRequestSchema(t *testing.T) {
	spec, err := Load(context.Background(), []byte(document), pkgopenapi.NewParserOptions())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	schema, err := RequestSchema(spec, "createPost")
	if err != nil {
		t.Fatalf("request schema: %v", err)
	}
	if err := schema.VisitJSON(map[string]any{"title": "Sleep basics"}, openapi3.MultiErrors()); err != nil {
		t.Fatalf("expected valid payload: %v", err)
	}
	if err := schema.VisitJSON(map[string]any{"title": "ok"}, openapi3.MultiErrors()); err == nil {
		t.Fatalf("expected a two letter title to violate minLength")
	}
	if err := schema.VisitJSON(map[string]any{}, openapi3.MultiErrors()); err == nil {
		t.Fatalf("expected missing title to be rejected")
	}
	if _, err := RequestSchema(spec, "missing"); err == nil {
		t.Fatalf("expected error for unknown operation")
	}
}

func TestOperationsRejectsEmptyDocuments(t *testing.T) {
	doc := pkgopenapi.MustNewDocument(pkgopenapi.SourceFromFS("x"), []byte(`openapi: 3.0.3
info: {title: t, version: "1"}
paths: {}
`))
	if _, err := New(pkgopenapi.NewParserOptions()).Operations(context.Background(), doc); err == nil {
		t.Fatalf("expected error for document without paths")
	}
}
