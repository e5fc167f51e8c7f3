// Package schema loads form schemas into a Catalog.
//
// Catalog files live in an fs.FS and may be JSON or YAML. A file holds a
// single form (top-level id and fields), a "forms" list, or an OpenAPI 3
// document whose request bodies become forms.
package schema
