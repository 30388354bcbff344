// Package model exposes the form model renderers consume. Builders live in
// internal/model and return the types aliased here. Schema extensions named
// x-formgen-<key> land in Field.Metadata under the camel cased key, and the
// renderer facing subset (widget, placeholder, helpText, inputType,
// repeaterLabel, submitLabel) is copied into UIHints.
package model
