package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"strings"

	internalmodel "github.com/goliatone/go-vitalpress/internal/model"
	"github.com/goliatone/go-vitalpress/pkg/model"
)

// Transformer mutates a FormModel before decorators run.
type Transformer interface {
	Transform(ctx context.Context, form *model.FormModel) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, form *model.FormModel) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, form *model.FormModel) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, form)
}

// Chain runs transformers in order and stops at the first error.
func Chain(transformers ...Transformer) Transformer {
	return TransformerFunc(func(ctx context.Context, form *model.FormModel) error {
		for _, t := range transformers {
			if t == nil {
				continue
			}
			if err := t.Transform(ctx, form); err != nil {
				return err
			}
		}
		return nil
	})
}

// PresetTransformer applies editorial copy kept outside the contract. The
// document is keyed by operation id; field paths use dots and numeric
// segments are not needed since items share one definition:
//
//	{
//	  "createPost": {
//	    "uiHints": {"submitLabel": "Publish"},
//	    "fields": {
//	      "content.body.keywords": {"helpText": "Comma separated"}
//	    }
//	  }
//	}
type PresetTransformer struct {
	presets map[string]formPreset
}

type formPreset struct {
	Summary  string                 `json:"summary"`
	Metadata map[string]string      `json:"metadata"`
	UIHints  map[string]string      `json:"uiHints"`
	Fields   map[string]fieldPreset `json:"fields"`
}

type fieldPreset struct {
	Label       string            `json:"label"`
	Description string            `json:"description"`
	Placeholder string            `json:"placeholder"`
	HelpText    string            `json:"helpText"`
	Widget      string            `json:"widget"`
	Metadata    map[string]string `json:"metadata"`
	UIHints     map[string]string `json:"uiHints"`
}

// NewPresetTransformer parses a preset document.
func NewPresetTransformer(data []byte) (*PresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	var presets map[string]formPreset
	if err := json.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}
	return &PresetTransformer{presets: presets}, nil
}

// NewPresetTransformerFromFS loads a preset document from fsys.
func NewPresetTransformerFromFS(fsys fs.FS, path string) (*PresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: read %s: %w", path, err)
	}
	return NewPresetTransformer(data)
}

// Transform patches form when a preset exists for its operation. A preset
// naming an unknown field is an error so contract drift surfaces early.
func (t *PresetTransformer) Transform(ctx context.Context, form *model.FormModel) error {
	if form == nil {
		return errors.New("preset transformer: form model is nil")
	}
	preset, ok := t.presets[form.OperationID]
	if !ok {
		return nil
	}
	if preset.Summary != "" {
		form.Summary = preset.Summary
	}
	form.Metadata = mergeStringMap(form.Metadata, preset.Metadata)
	form.UIHints = mergeStringMap(form.UIHints, preset.UIHints)

	for path, patch := range preset.Fields {
		if err := ctx.Err(); err != nil {
			return err
		}
		field := internalmodel.Locate(form.Fields, path)
		if field == nil {
			return fmt.Errorf("preset transformer: %s: field %q not found", form.OperationID, path)
		}
		applyFieldPreset(field, patch)
	}
	return nil
}

func applyFieldPreset(field *model.Field, patch fieldPreset) {
	if patch.Label != "" {
		field.Label = patch.Label
	}
	if patch.Description != "" {
		field.Description = patch.Description
	}
	hints := map[string]string{}
	if patch.Placeholder != "" {
		hints["placeholder"] = patch.Placeholder
	}
	if patch.HelpText != "" {
		hints["helpText"] = patch.HelpText
	}
	if patch.Widget != "" {
		hints["widget"] = patch.Widget
	}
	maps.Copy(hints, patch.UIHints)
	field.UIHints = mergeStringMap(field.UIHints, hints)
	field.Metadata = mergeStringMap(field.Metadata, patch.Metadata)
}

func mergeStringMap(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	maps.Copy(dst, src)
	return dst
}
