package orchestrator

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-vitalpress/pkg/model"
)

func TestPresetTransformer_UnknownField(t *testing.T) {
	transformer, err := NewPresetTransformer([]byte(`{"bmi": {"fields": {"waist": {"label": "Waist"}}}}`))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	form := &model.FormModel{OperationID: "bmi", Fields: []model.Field{{Name: "weight"}}}
	err = transformer.Transform(context.Background(), form)
	if err == nil || !strings.Contains(err.Error(), `"waist" not found`) {
		t.Fatalf("unexpected error: %v", err)
	}

	other := &model.FormModel{OperationID: "calories"}
	if err := transformer.Transform(context.Background(), other); err != nil {
		t.Fatalf("operations without presets should pass: %v", err)
	}
}

func TestPresetTransformer_RejectsEmptyDocument(t *testing.T) {
	if _, err := NewPresetTransformer([]byte("  ")); err == nil {
		t.Fatalf("expected error for empty document")
	}
	if _, err := NewPresetTransformer([]byte("{")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestChain_StopsAtFirstError(t *testing.T) {
	var calls []string
	chain := Chain(
		TransformerFunc(func(context.Context, *model.FormModel) error {
			calls = append(calls, "first")
			return nil
		}),
		nil,
		TransformerFunc(func(context.Context, *model.FormModel) error {
			calls = append(calls, "second")
			return context.DeadlineExceeded
		}),
		TransformerFunc(func(context.Context, *model.FormModel) error {
			calls = append(calls, "third")
			return nil
		}),
	)
	if err := chain.Transform(context.Background(), &model.FormModel{}); err != context.DeadlineExceeded {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(calls, ",") != "first,second" {
		t.Fatalf("calls = %v", calls)
	}
}
