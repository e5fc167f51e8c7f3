package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// Builder converts Go struct types into form models. Struct fields are
// described with a tag (default `form`):
//
//	Name  string `form:"name,required,minLength=2,label=Full name"`
//	Email string `form:"email,format=email"`
//	Addr  Address `form:"address,nested"`
//
// Patterns may contain commas, so they live in their own `pattern` tag.
type Builder struct {
	opts Options
}

// New creates a Builder with the supplied options.
func New(options Options) *Builder {
	opts := defaultOptions()
	if options.Labeler != nil {
		opts.Labeler = options.Labeler
	}
	if options.TagName != "" {
		opts.TagName = options.TagName
	}
	return &Builder{opts: opts}
}

// Build derives the FormModel for a struct or pointer to struct.
func (b *Builder) Build(v any) (FormModel, error) {
	if v == nil {
		return FormModel{}, errors.New("model builder: value is nil")
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return FormModel{}, fmt.Errorf("model builder: expected struct, got %s", t.Kind())
	}

	fields, err := b.fieldsFromStruct(t, map[reflect.Type]bool{})
	if err != nil {
		return FormModel{}, err
	}
	form := FormModel{
		ID:     t.Name(),
		Fields: fields,
	}
	if form.ID == "" {
		form.ID = "anonymous"
	}
	return form, ValidateForm(form)
}

func (b *Builder) fieldsFromStruct(t reflect.Type, visiting map[reflect.Type]bool) ([]Field, error) {
	if visiting[t] {
		return nil, fmt.Errorf("model builder: recursive type %s", t)
	}
	visiting[t] = true
	defer delete(visiting, t)

	var fields []Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, skip := b.parseTag(sf)
		if skip {
			continue
		}
		field, err := b.fieldFromType(tag.name, sf.Type, tag, visiting)
		if err != nil {
			return nil, fmt.Errorf("model builder: field %s: %w", sf.Name, err)
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func (b *Builder) fieldFromType(name string, t reflect.Type, tag structTag, visiting map[reflect.Type]bool) (Field, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	field := Field{
		Name:     name,
		Type:     kindToFieldType(t),
		Required: tag.required,
		Label:    tag.label,
		Format:   tag.format,
	}
	if field.Label == "" {
		field.Label = b.opts.Labeler(name)
	}
	if t == timeType && field.Format == "" {
		field.Format = "date-time"
	}
	if len(tag.enum) > 0 {
		field.Enum = tag.enum
	}
	field.Validations = tag.rules
	if tag.nested {
		field.Metadata = map[string]string{MetadataValidateNested: "true"}
	}
	if tag.visibleWhen != "" {
		if field.Metadata == nil {
			field.Metadata = make(map[string]string)
		}
		field.Metadata[MetadataVisibleWhen] = tag.visibleWhen
	}

	switch field.Type {
	case FieldTypeObject:
		if t.Kind() == reflect.Struct {
			nested, err := b.fieldsFromStruct(t, visiting)
			if err != nil {
				return Field{}, err
			}
			field.Nested = nested
		}
	case FieldTypeArray:
		item, err := b.fieldFromType(name+"Item", t.Elem(), structTag{}, visiting)
		if err != nil {
			return Field{}, err
		}
		field.Items = &item
	}
	return field, nil
}

func kindToFieldType(t reflect.Type) FieldType {
	if t == timeType {
		return FieldTypeString
	}
	switch t.Kind() {
	case reflect.Bool:
		return FieldTypeBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return FieldTypeInteger
	case reflect.Float32, reflect.Float64:
		return FieldTypeNumber
	case reflect.Slice, reflect.Array:
		return FieldTypeArray
	case reflect.Struct, reflect.Map:
		return FieldTypeObject
	default:
		return FieldTypeString
	}
}

type structTag struct {
	name        string
	label       string
	format      string
	visibleWhen string
	required    bool
	nested      bool
	enum        []any
	rules       []ValidationRule
}

func (b *Builder) parseTag(sf reflect.StructField) (structTag, bool) {
	raw, hasTag := sf.Tag.Lookup(b.opts.TagName)
	if raw == "-" {
		return structTag{}, true
	}

	tag := structTag{name: FieldName(sf, b.opts.TagName)}
	if tag.name == "" {
		return structTag{}, true
	}

	if hasTag {
		parts := strings.Split(raw, ",")
		for _, part := range parts[1:] {
			key, value, _ := strings.Cut(strings.TrimSpace(part), "=")
			switch key {
			case "required":
				tag.required = true
			case "nested":
				tag.nested = true
			case "label":
				tag.label = value
			case "format":
				tag.format = value
				tag.rules = append(tag.rules, ValidationRule{Kind: ValidationRuleFormat, Params: map[string]string{"value": value}})
			case "visibleWhen":
				tag.visibleWhen = value
			case "enum":
				for _, option := range strings.Split(value, "|") {
					tag.enum = append(tag.enum, option)
				}
			case ValidationRuleMin, ValidationRuleMax, ValidationRuleMinLength, ValidationRuleMaxLength:
				tag.rules = append(tag.rules, ValidationRule{Kind: key, Params: map[string]string{"value": value}})
			}
		}
	}
	if pattern, ok := sf.Tag.Lookup("pattern"); ok && pattern != "" {
		tag.rules = append(tag.rules, ValidationRule{Kind: ValidationRulePattern, Params: map[string]string{"pattern": pattern}})
	}
	return tag, false
}

// FieldName resolves the schema name of a struct field: the named tag first,
// then `json`, then the Go field name. An empty result means the field is
// excluded.
func FieldName(sf reflect.StructField, tagName string) string {
	for _, key := range []string{tagName, "json"} {
		raw, ok := sf.Tag.Lookup(key)
		if !ok {
			continue
		}
		if raw == "-" {
			return ""
		}
		if name, _, _ := strings.Cut(raw, ","); name != "" {
			return name
		}
	}
	return sf.Name
}
