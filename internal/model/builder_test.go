package model_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-vitalpress/contract"
	"github.com/goliatone/go-vitalpress/internal/model"
	"github.com/goliatone/go-vitalpress/internal/openapi/parser"
	pkgopenapi "github.com/goliatone/go-vitalpress/pkg/openapi"
)

func contractOperation(t *testing.T, name, id string) pkgopenapi.Operation {
	t.Helper()
	doc := pkgopenapi.MustNewDocument(pkgopenapi.SourceFromFS(name), contract.MustRead(name))
	ops, err := parser.New(pkgopenapi.NewParserOptions()).Operations(context.Background(), doc)
	if err != nil {
		t.Fatalf("operations: %v", err)
	}
	op, ok := ops[id]
	if !ok {
		t.Fatalf("operation %q missing", id)
	}
	return op
}

func fieldNames(fields []model.Field) []string {
	names := make([]string, 0, len(fields))
	for _, field := range fields {
		names = append(names, field.Name)
	}
	return names
}

func TestBuilder_CreatePostOrderAndHints(t *testing.T) {
	form, err := model.New(model.Options{}).Build(contractOperation(t, contract.Backend, contract.OpCreatePost))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if form.Method != "POST" || form.Endpoint != "/posts" {
		t.Fatalf("unexpected endpoint %s %s", form.Method, form.Endpoint)
	}
	if got := form.UIHints["submitLabel"]; got != "Publish" {
		t.Fatalf("submit label = %q", got)
	}

	want := []string{"title", "position", "image", "meta", "content", "related_studies"}
	if diff := cmp.Diff(want, fieldNames(form.Fields)); diff != "" {
		t.Fatalf("top level order mismatch (-want +got):\n%s", diff)
	}

	title, ok := form.Lookup("title")
	if !ok || !title.Required {
		t.Fatalf("title should be required: %+v", title)
	}
	if rule, ok := title.Rule(model.ValidationRuleMinLength); !ok || rule.Params["value"] != "3" {
		t.Fatalf("title minLength rule = %+v", rule)
	}

	position, _ := form.Lookup("position")
	if len(position.Enum) != 10 {
		t.Fatalf("position enum = %v", position.Enum)
	}

	meta, _ := form.Lookup("meta")
	if diff := cmp.Diff([]string{"author", "reviewer", "date", "readTime"}, fieldNames(meta.Nested)); diff != "" {
		t.Fatalf("meta order mismatch (-want +got):\n%s", diff)
	}

	body, ok := form.Lookup("content.body")
	if !ok || body.Type != model.FieldTypeArray || body.Items == nil {
		t.Fatalf("content.body should be a repeater: %+v", body)
	}
	if got := body.Items.Hint("repeaterLabel"); got != "Section" {
		t.Fatalf("repeater label = %q", got)
	}
	if diff := cmp.Diff([]string{"headline", "content", "subsections", "hyperlinks", "keywords"}, fieldNames(body.Items.Nested)); diff != "" {
		t.Fatalf("section order mismatch (-want +got):\n%s", diff)
	}

	url, ok := form.Lookup("content.body.2.hyperlinks.0.url")
	if !ok || url.Hint("inputType") != "url" {
		t.Fatalf("hyperlink url = %+v", url)
	}
	sectionContent, _ := form.Lookup("content.body.0.content")
	if sectionContent.Hint("widget") != "textarea" {
		t.Fatalf("section content widget = %+v", sectionContent.UIHints)
	}
	if keywords, ok := form.Lookup("content.body.keywords"); !ok || keywords.Type != model.FieldTypeArray {
		t.Fatalf("index-free path should reach item fields, got %+v", keywords)
	}
	if _, ok := form.Lookup("content.body.x.headline"); ok {
		t.Fatalf("non numeric segment should not resolve")
	}
}

func TestBuilder_CalculatorNumbers(t *testing.T) {
	form, err := model.New(model.Options{}).Build(contractOperation(t, contract.Calculators, contract.OpBMI))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if diff := cmp.Diff([]string{"system", "weight", "height"}, fieldNames(form.Fields)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	weight, _ := form.Lookup("weight")
	if weight.Hint("inputType") != "number" {
		t.Fatalf("weight input type = %q", weight.Hint("inputType"))
	}
	want := []model.ValidationRule{
		{Kind: model.ValidationRuleMin, Params: map[string]string{"value": "1"}},
		{Kind: model.ValidationRuleMax, Params: map[string]string{"value": "1000"}},
	}
	if diff := cmp.Diff(want, weight.Validations); diff != "" {
		t.Fatalf("validations mismatch (-want +got):\n%s", diff)
	}
	system, _ := form.Lookup("system")
	if system.Default != "metric" {
		t.Fatalf("system default = %v", system.Default)
	}
}

func TestBuilder_RejectsIncompleteOperation(t *testing.T) {
	_, err := model.New(model.Options{}).Build(pkgopenapi.Operation{Method: "POST", Path: "/x"})
	if err == nil {
		t.Fatalf("expected error for missing operation id")
	}
	_, err = model.New(model.Options{}).Build(pkgopenapi.Operation{
		ID: "x", Method: "POST", Path: "/x",
		RequestBody: pkgopenapi.Schema{Type: "object", Properties: map[string]pkgopenapi.Schema{"tags": {Type: "array"}}},
	})
	if err == nil {
		t.Fatalf("expected error for array without items")
	}
}

func TestDefaultLabeler(t *testing.T) {
	cases := map[string]string{
		"related_studies": "Related studies",
		"readTime":        "Read time",
		"image-url":       "Image URL",
		"title":           "Title",
		"bmi":             "BMI",
	}
	for in, want := range cases {
		if got := model.DefaultLabeler(in); got != want {
			t.Errorf("DefaultLabeler(%q) = %q, want %q", in, got, want)
		}
	}
}
