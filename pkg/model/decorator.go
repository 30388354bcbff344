package model

import (
	"fmt"

	internalmodel "github.com/goliatone/go-vitalpress/internal/model"
)

// Decorator adjusts a form model after it has been built from the contract.
type Decorator interface {
	Decorate(*FormModel) error
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(*FormModel) error

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(form *FormModel) error {
	return fn(form)
}

// SubmitLabel replaces the submitLabel hint of the form.
func SubmitLabel(label string) Decorator {
	return DecoratorFunc(func(form *FormModel) error {
		if label == "" {
			return nil
		}
		if form.UIHints == nil {
			form.UIHints = make(map[string]string, 1)
		}
		form.UIHints["submitLabel"] = label
		return nil
	})
}

// FieldHint sets a UI hint on the field at path. Numeric segments address
// array items.
func FieldHint(path, key, value string) Decorator {
	return DecoratorFunc(func(form *FormModel) error {
		field := internalmodel.Locate(form.Fields, path)
		if field == nil {
			return fmt.Errorf("model: field %q not found", path)
		}
		if field.UIHints == nil {
			field.UIHints = make(map[string]string, 1)
		}
		field.UIHints[key] = value
		return nil
	})
}
