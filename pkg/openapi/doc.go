// Package openapi derives form schemas from OpenAPI 3 documents.
//
// Each operation with a request body becomes a model.FormModel: body
// properties become fields and schema constraints (minimum, maxLength,
// pattern, enum, format, required) become validation rules.
package openapi
