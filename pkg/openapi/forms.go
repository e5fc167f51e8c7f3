package openapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formstate/pkg/model"
)

// Vendor extensions read from request body properties.
const (
	ExtensionLabel       = "x-formstate-label"
	ExtensionVisibleWhen = "x-formstate-visible-when"
	ExtensionNested      = "x-formstate-nested"
	ExtensionMessage     = "x-formstate-message"
)

// ErrUnknownOperation is returned when the document has no operation with
// the requested id.
var ErrUnknownOperation = errors.New("openapi: unknown operation")

var requestMediaTypes = []string{
	"application/json",
	"application/x-www-form-urlencoded",
	"multipart/form-data",
}

// LoadForms parses data and returns one form per operation that declares a
// request body, keyed by operation id. Operations without an id are keyed
// "method:path".
func LoadForms(ctx context.Context, data []byte) (map[string]model.FormModel, error) {
	if len(data) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if doc.Paths == nil || doc.Paths.Len() == 0 {
		return nil, errors.New("openapi: document does not contain any paths")
	}

	forms := make(map[string]model.FormModel)
	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method, operation := range item.Operations() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			form, ok, err := formFromOperation(strings.ToUpper(method), path, operation)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			if _, exists := forms[form.ID]; exists {
				return nil, fmt.Errorf("openapi: duplicate operation id %q", form.ID)
			}
			forms[form.ID] = form
		}
	}
	return forms, nil
}

// LoadForm returns the form for a single operation.
func LoadForm(ctx context.Context, data []byte, operationID string) (model.FormModel, error) {
	forms, err := LoadForms(ctx, data)
	if err != nil {
		return model.FormModel{}, err
	}
	form, ok := forms[operationID]
	if !ok {
		return model.FormModel{}, fmt.Errorf("%w: %q", ErrUnknownOperation, operationID)
	}
	return form, nil
}

func formFromOperation(method, path string, operation *openapi3.Operation) (model.FormModel, bool, error) {
	if operation == nil {
		return model.FormModel{}, false, nil
	}
	body := requestSchema(operation.RequestBody)
	if body == nil || body.Value == nil {
		return model.FormModel{}, false, nil
	}

	id := operation.OperationID
	if id == "" {
		id = strings.ToLower(method) + ":" + path
	}
	if method == "" {
		method = http.MethodPost
	}

	fields, err := convertProperties(body.Value, id)
	if err != nil {
		return model.FormModel{}, false, err
	}
	form := model.FormModel{
		ID:          id,
		Endpoint:    path,
		Method:      method,
		Summary:     operation.Summary,
		Description: operation.Description,
		Fields:      fields,
	}
	if err := model.ValidateForm(form); err != nil {
		return model.FormModel{}, false, fmt.Errorf("openapi: operation %q: %w", id, err)
	}
	return form, true, nil
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.SchemaRef {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range requestMediaTypes {
		if mt, ok := content[mediaType]; ok && mt != nil {
			return mt.Schema
		}
	}
	keys := make([]string, 0, len(content))
	for key := range content {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if mt := content[key]; mt != nil && mt.Schema != nil {
			return mt.Schema
		}
	}
	return nil
}

// convertProperties maps object properties to fields sorted by name, since
// OpenAPI property maps carry no order.
func convertProperties(src *openapi3.Schema, owner string) ([]model.Field, error) {
	if len(src.Properties) == 0 {
		return nil, nil
	}
	required := make(map[string]bool, len(src.Required))
	for _, name := range src.Required {
		required[name] = true
	}
	names := make([]string, 0, len(src.Properties))
	for name := range src.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]model.Field, 0, len(names))
	for _, name := range names {
		field, err := convertSchema(name, src.Properties[name], owner)
		if err != nil {
			return nil, err
		}
		field.Required = required[name]
		fields = append(fields, field)
	}
	return fields, nil
}

func convertSchema(name string, ref *openapi3.SchemaRef, owner string) (model.Field, error) {
	field := model.Field{Name: name, Type: model.FieldTypeString}
	if ref == nil || ref.Value == nil {
		return field, nil
	}
	src := ref.Value

	field.Type = fieldType(src)
	field.Format = src.Format
	field.Description = src.Description
	field.Default = src.Default
	field.Label = src.Title
	if len(src.Enum) > 0 {
		field.Enum = append([]any(nil), src.Enum...)
	}
	applyExtensions(&field, src.Extensions)

	message := stringExtension(src.Extensions, ExtensionMessage)
	rule := func(kind string, params map[string]string) {
		if message != "" {
			params["message"] = message
		}
		field.Validations = append(field.Validations, model.ValidationRule{Kind: kind, Params: params})
	}

	if src.Min != nil {
		params := map[string]string{"value": formatFloat(*src.Min)}
		if src.ExclusiveMin {
			params["exclusive"] = "true"
		}
		rule(model.ValidationRuleMin, params)
	}
	if src.Max != nil {
		params := map[string]string{"value": formatFloat(*src.Max)}
		if src.ExclusiveMax {
			params["exclusive"] = "true"
		}
		rule(model.ValidationRuleMax, params)
	}

	switch field.Type {
	case model.FieldTypeArray:
		if src.MinItems > 0 {
			rule(model.ValidationRuleMinLength, map[string]string{"value": strconv.FormatUint(src.MinItems, 10)})
		}
		if src.MaxItems != nil {
			rule(model.ValidationRuleMaxLength, map[string]string{"value": strconv.FormatUint(*src.MaxItems, 10)})
		}
		item, err := convertSchema(name, src.Items, owner)
		if err != nil {
			return model.Field{}, err
		}
		item.Name = name + "Item"
		field.Items = &item
	case model.FieldTypeObject:
		nested, err := convertProperties(src, owner)
		if err != nil {
			return model.Field{}, err
		}
		field.Nested = nested
	default:
		if src.MinLength > 0 {
			rule(model.ValidationRuleMinLength, map[string]string{"value": strconv.FormatUint(src.MinLength, 10)})
		}
		if src.MaxLength != nil {
			rule(model.ValidationRuleMaxLength, map[string]string{"value": strconv.FormatUint(*src.MaxLength, 10)})
		}
		if src.Pattern != "" {
			rule(model.ValidationRulePattern, map[string]string{"pattern": src.Pattern})
		}
	}
	return field, nil
}

func fieldType(src *openapi3.Schema) model.FieldType {
	if src.Type == nil {
		switch {
		case len(src.Properties) > 0:
			return model.FieldTypeObject
		case src.Items != nil:
			return model.FieldTypeArray
		default:
			return model.FieldTypeString
		}
	}
	for _, candidate := range src.Type.Slice() {
		switch candidate {
		case openapi3.TypeString:
			return model.FieldTypeString
		case openapi3.TypeInteger:
			return model.FieldTypeInteger
		case openapi3.TypeNumber:
			return model.FieldTypeNumber
		case openapi3.TypeBoolean:
			return model.FieldTypeBoolean
		case openapi3.TypeArray:
			return model.FieldTypeArray
		case openapi3.TypeObject:
			return model.FieldTypeObject
		}
	}
	return model.FieldTypeString
}

func applyExtensions(field *model.Field, extensions map[string]any) {
	if label := stringExtension(extensions, ExtensionLabel); label != "" {
		field.Label = label
	}
	if rule := stringExtension(extensions, ExtensionVisibleWhen); rule != "" {
		setMetadata(field, model.MetadataVisibleWhen, rule)
	}
	switch value := extensions[ExtensionNested].(type) {
	case bool:
		if value {
			setMetadata(field, model.MetadataValidateNested, "true")
		}
	case string:
		if strings.EqualFold(value, "true") {
			setMetadata(field, model.MetadataValidateNested, "true")
		}
	}
}

func stringExtension(extensions map[string]any, key string) string {
	value, _ := extensions[key].(string)
	return strings.TrimSpace(value)
}

func setMetadata(field *model.Field, key, value string) {
	if field.Metadata == nil {
		field.Metadata = make(map[string]string)
	}
	field.Metadata[key] = value
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
