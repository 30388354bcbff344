package openapi

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSourceFor(t *testing.T) {
	cases := []struct {
		in       string
		kind     SourceKind
		location string
	}{
		{"embed:openapi.yaml", SourceKindFS, "openapi.yaml"},
		{"https://api.example.com/openapi.json", SourceKindURL, "https://api.example.com/openapi.json"},
		{"./contract/../contract/openapi.yaml", SourceKindFile, "contract/openapi.yaml"},
	}
	for _, tc := range cases {
		src, err := SourceFor(tc.in)
		if err != nil {
			t.Fatalf("SourceFor(%q): %v", tc.in, err)
		}
		if src.Kind() != tc.kind || src.Location() != tc.location {
			t.Fatalf("SourceFor(%q) = %s %q", tc.in, src.Kind(), src.Location())
		}
	}
	if _, err := SourceFor(""); err == nil {
		t.Fatalf("expected error for empty location")
	}
}

func TestSchemaCloneIsDeep(t *testing.T) {
	limit := 10
	original := Schema{
		Type:     "object",
		Required: []string{"title"},
		Properties: map[string]Schema{
			"tags": {Type: "array", Items: &Schema{Type: "string"}, MaxLength: &limit},
		},
		Extensions: map[string]any{"x-formgen-order": "title"},
	}
	cloned := original.Clone()
	cloned.Required[0] = "changed"
	cloned.Properties["tags"].Items.Type = "integer"
	cloned.Extensions["x-formgen-order"] = "other"

	if diff := cmp.Diff([]string{"title"}, original.Required); diff != "" {
		t.Fatalf("required mutated (-want +got):\n%s", diff)
	}
	if original.Properties["tags"].Items.Type != "string" {
		t.Fatalf("items mutated")
	}
	if original.Extensions["x-formgen-order"] != "title" {
		t.Fatalf("extensions mutated")
	}
}

func TestNewOperationValidates(t *testing.T) {
	if _, err := NewOperation("", "POST", "/posts", Schema{}, nil); err == nil {
		t.Fatalf("expected id error")
	}
	op := MustNewOperation("createPost", "POST", "/posts", Schema{Type: "object"}, nil)
	if op.Responses == nil || op.HasResponse("201") {
		t.Fatalf("unexpected responses: %#v", op.Responses)
	}
}
