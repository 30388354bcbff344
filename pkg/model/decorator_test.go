package model_test

import (
	"testing"

	"github.com/goliatone/go-vitalpress/pkg/model"
)

func sampleForm() model.FormModel {
	return model.FormModel{
		OperationID: "createPost",
		Fields: []model.Field{
			{Name: "title", Type: model.FieldTypeString},
			{Name: "content", Type: model.FieldTypeObject, Nested: []model.Field{
				{Name: "body", Type: model.FieldTypeArray, Items: &model.Field{
					Name: "bodyItem", Type: model.FieldTypeObject,
					Nested: []model.Field{{Name: "headline", Type: model.FieldTypeString}},
				}},
			}},
		},
	}
}

func TestSubmitLabel(t *testing.T) {
	form := sampleForm()
	if err := model.SubmitLabel("Save changes").Decorate(&form); err != nil {
		t.Fatalf("decorate: %v", err)
	}
	if form.UIHints["submitLabel"] != "Save changes" {
		t.Fatalf("submit label = %q", form.UIHints["submitLabel"])
	}
}

func TestFieldHint(t *testing.T) {
	form := sampleForm()
	if err := model.FieldHint("content.body.0.headline", "placeholder", "Why protein").Decorate(&form); err != nil {
		t.Fatalf("decorate: %v", err)
	}
	headline, ok := form.Lookup("content.body.headline")
	if !ok {
		t.Fatalf("headline not found")
	}
	if got := headline.Hint("placeholder"); got != "Why protein" {
		t.Fatalf("placeholder = %q", got)
	}
	if err := model.FieldHint("content.missing", "placeholder", "x").Decorate(&form); err == nil {
		t.Fatalf("expected error for unknown path")
	}
}
