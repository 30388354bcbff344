// Package testsupport holds fixtures shared by package tests: contract
// backed form models, sample posts, an in-memory backend and golden helpers.
package testsupport

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-vitalpress/contract"
	"github.com/goliatone/go-vitalpress/internal/openapi/parser"
	pkgmodel "github.com/goliatone/go-vitalpress/pkg/model"
	pkgopenapi "github.com/goliatone/go-vitalpress/pkg/openapi"
	"github.com/goliatone/go-vitalpress/pkg/post"
)

// ContractOperation parses an embedded contract document and returns the
// named operation.
func ContractOperation(t testing.TB, document, operationID string) pkgopenapi.Operation {
	t.Helper()
	doc, err := pkgopenapi.NewDocument(pkgopenapi.SourceFromFS(document), contract.MustRead(document))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	ops, err := parser.New(pkgopenapi.NewParserOptions()).Operations(context.Background(), doc)
	if err != nil {
		t.Fatalf("parse operations: %v", err)
	}
	op, ok := ops[operationID]
	if !ok {
		t.Fatalf("operation %q not found in %s", operationID, document)
	}
	return op
}

// ContractForm builds the form model of an embedded contract operation.
func ContractForm(t testing.TB, document, operationID string) pkgmodel.FormModel {
	t.Helper()
	form, err := pkgmodel.NewBuilder().Build(ContractOperation(t, document, operationID))
	if err != nil {
		t.Fatalf("build form: %v", err)
	}
	return form
}

// SamplePost returns a fully populated post.
func SamplePost() post.Post {
	p := post.Post{
		ID:       "p-1",
		Title:    "Protein timing for recovery",
		Position: post.PositionNutrition,
		Image:    "/static/img/protein.jpg",
		Meta: post.Meta{
			Author:   "Dana Reyes",
			Reviewer: "Dr. Lee",
			Date:     "2024-05-01",
			ReadTime: "4 min",
		},
		Content: post.Content{
			Summary: []post.SummaryItem{{Title: "Key point", Text: "Eat protein within two hours."}},
			Body: []post.BodySection{{
				Headline:    "Why timing matters",
				Content:     "Muscle protein synthesis peaks after training.",
				Subsections: []post.Subsection{{Subheading: "Dose", Content: "20 to 40 grams."}},
				Hyperlinks:  []post.Hyperlink{{Text: "Study", URL: "https://example.org/study"}},
				Keywords:    []string{"protein", "recovery"},
			}},
		},
		RelatedStudies: []post.RelatedStudy{{Title: "Meta analysis", Link: "https://example.org/meta"}},
	}
	post.Normalize(&p)
	return p
}

// CaptureTemplateOutput runs render with a buffer and returns both the
// returned string and what was written.
func CaptureTemplateOutput(t testing.TB, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()
	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	return out, buf.String()
}

// Golden compares got with the golden file at path. With UPDATE_GOLDENS set
// the file is rewritten instead.
func Golden(t testing.TB, path string, got []byte) {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir golden dir: %v", err)
		}
		if err := os.WriteFile(path, got, 0o644); err != nil {
			t.Fatalf("write golden: %v", err)
		}
		return
	}
	want, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	if !bytes.Equal(want, got) {
		t.Fatalf("golden %s mismatch\nwant:\n%s\n got:\n%s", path, want, got)
	}
}
