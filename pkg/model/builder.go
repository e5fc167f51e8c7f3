package model

import (
	"reflect"

	"github.com/goliatone/go-formstate/internal/model"
)

// BuilderOption configures the struct builder behaviour.
type BuilderOption func(*builderOptions)

type builderOptions struct {
	labeler Labeler
	tagName string
}

// WithLabeler overrides the default label generation function.
func WithLabeler(labeler Labeler) BuilderOption {
	return func(opts *builderOptions) {
		opts.labeler = labeler
	}
}

// WithTagName changes the struct tag consulted before `json`.
func WithTagName(name string) BuilderOption {
	return func(opts *builderOptions) {
		opts.tagName = name
	}
}

// FromStruct derives a FormModel from a struct or pointer to struct.
func FromStruct(v any, options ...BuilderOption) (FormModel, error) {
	cfg := builderOptions{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return model.New(model.Options{
		Labeler: cfg.labeler,
		TagName: cfg.tagName,
	}).Build(v)
}

// StructFieldName resolves the schema name of a struct field using the
// given tag (empty means "form"), then `json`, then the Go name.
func StructFieldName(sf reflect.StructField, tagName string) string {
	if tagName == "" {
		tagName = "form"
	}
	return model.FieldName(sf, tagName)
}
