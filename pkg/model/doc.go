// Package model defines the declared schema of a bound model (FormModel and
// Field), the FieldIdentifier used to address one bindable field, and Record,
// a dotted-path value map for forms without a Go struct.
//
// Validation rules expose canonical identifiers (min/max, minLength/maxLength,
// pattern, format) with string parameters so rule sets compile
// deterministically from JSON, YAML, OpenAPI or struct tags. Nested paths are
// dotted (`address.city`); array elements use numeric segments (`tags.0`)
// which FormModel.Lookup ignores when resolving the declaring Field.
package model
