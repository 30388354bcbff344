package model

import internalmodel "github.com/goliatone/go-vitalpress/internal/model"

// FieldType re-exports the internal FieldType enumeration.
type FieldType = internalmodel.FieldType

const (
	FieldTypeString  = internalmodel.FieldTypeString
	FieldTypeInteger = internalmodel.FieldTypeInteger
	FieldTypeNumber  = internalmodel.FieldTypeNumber
	FieldTypeBoolean = internalmodel.FieldTypeBoolean
	FieldTypeArray   = internalmodel.FieldTypeArray
	FieldTypeObject  = internalmodel.FieldTypeObject
)

type ValidationRule = internalmodel.ValidationRule
type Field = internalmodel.Field
type FormModel = internalmodel.FormModel

const (
	ValidationRuleMin       = internalmodel.ValidationRuleMin
	ValidationRuleMax       = internalmodel.ValidationRuleMax
	ValidationRuleMinLength = internalmodel.ValidationRuleMinLength
	ValidationRuleMaxLength = internalmodel.ValidationRuleMaxLength
	ValidationRuleMinItems  = internalmodel.ValidationRuleMinItems
	ValidationRuleMaxItems  = internalmodel.ValidationRuleMaxItems
	ValidationRulePattern   = internalmodel.ValidationRulePattern
)

// DefaultLabeler derives a human label from a field name.
func DefaultLabeler(name string) string {
	return internalmodel.DefaultLabeler(name)
}
