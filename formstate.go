// Package formstate is the top-level entry point: bind a model to an edit
// context, load form schemas from OpenAPI documents and render validation
// summaries without importing each subpackage.
package formstate

import (
	"context"
	"fmt"

	"github.com/goliatone/go-formstate/pkg/editstate"
	"github.com/goliatone/go-formstate/pkg/model"
	pkgopenapi "github.com/goliatone/go-formstate/pkg/openapi"
	"github.com/goliatone/go-formstate/pkg/render"
)

// EditContext aliases editstate.EditContext for callers of the root package.
type EditContext = editstate.EditContext

// FieldIdentifier aliases model.FieldIdentifier.
type FieldIdentifier = model.FieldIdentifier

// FormModel aliases model.FormModel.
type FormModel = model.FormModel

// Bind derives the schema of the struct behind ptr and binds an edit context
// to it.
func Bind(ptr any, options ...editstate.Option) (*EditContext, error) {
	return editstate.NewForStruct(ptr, options...)
}

// BindValues binds an edit context to a record seeded with the defaults of
// form and then with values.
func BindValues(form FormModel, values map[string]any, options ...editstate.Option) (*EditContext, *model.Record, error) {
	record := model.RecordFromDefaults(form)
	for key, value := range values {
		if err := record.SetValue(key, value); err != nil {
			return nil, nil, fmt.Errorf("formstate: %w", err)
		}
	}
	ec, err := editstate.New(record, form, options...)
	if err != nil {
		return nil, nil, err
	}
	return ec, record, nil
}

// LoadForm reads an OpenAPI document from source and returns the form of
// operationID.
func LoadForm(ctx context.Context, source pkgopenapi.Source, operationID string, options ...pkgopenapi.LoaderOption) (FormModel, error) {
	data, err := pkgopenapi.NewLoader(options...).Load(ctx, source)
	if err != nil {
		return FormModel{}, err
	}
	return pkgopenapi.LoadForm(ctx, data, operationID)
}

// SummaryHTML renders the current messages of ec with the default template.
func SummaryHTML(ec *EditContext, options ...render.Option) ([]byte, error) {
	renderer, err := render.New(options...)
	if err != nil {
		return nil, err
	}
	return renderer.Summary(ec)
}
