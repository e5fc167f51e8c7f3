package model

import internalmodel "github.com/goliatone/go-formstate/internal/model"

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

const (
	ValidationRuleMin       = internalmodel.ValidationRuleMin
	ValidationRuleMax       = internalmodel.ValidationRuleMax
	ValidationRuleMinLength = internalmodel.ValidationRuleMinLength
	ValidationRuleMaxLength = internalmodel.ValidationRuleMaxLength
	ValidationRulePattern   = internalmodel.ValidationRulePattern
	ValidationRuleFormat    = internalmodel.ValidationRuleFormat

	MetadataValidateNested = internalmodel.MetadataValidateNested
	MetadataVisibleWhen    = internalmodel.MetadataVisibleWhen
)

type ValidationRule = internalmodel.ValidationRule

// Labeler turns a field name or dotted path into a human label.
type Labeler = internalmodel.Labeler
type Field = internalmodel.Field
type FormModel = internalmodel.FormModel

// ValidateForm reports schema inconsistencies (duplicate names, arrays
// without items, malformed rules).
func ValidateForm(form FormModel) error {
	return internalmodel.ValidateForm(form)
}

// JoinPath joins dotted path fragments.
func JoinPath(parent, child string) string {
	return internalmodel.JoinPath(parent, child)
}

// SchemaSegments splits a dotted path and drops numeric index segments.
func SchemaSegments(path string) []string {
	return internalmodel.SchemaSegments(path)
}

// DefaultLabeler labels the last named segment of a field name or dotted
// path, keeping common acronyms upper-case.
func DefaultLabeler(name string) string {
	return internalmodel.DefaultLabeler(name)
}
