package model

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type builderAddress struct {
	City     string `form:"city,required"`
	Postcode string `form:"postcode" pattern:"^[0-9]{5}$"`
}

type builderProfile struct {
	FirstName string         `form:"firstName,required,minLength=2"`
	Email     string         `json:"email" form:",format=email"`
	Age       int            `form:"age,min=18,max=120"`
	Plan      string         `form:"plan,enum=free|pro"`
	Born      time.Time      `form:"born"`
	Address   builderAddress `form:"address,nested"`
	Tags      []string       `form:"tags"`
	Internal  string         `form:"-"`
	secret    string
}

func TestBuilderBuildsFieldsFromTags(t *testing.T) {
	form, err := New(Options{}).Build(&builderProfile{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if form.ID != "builderProfile" {
		t.Fatalf("unexpected id %q", form.ID)
	}

	want := []Field{
		{
			Name: "firstName", Type: FieldTypeString, Required: true, Label: "First name",
			Validations: []ValidationRule{{Kind: ValidationRuleMinLength, Params: map[string]string{"value": "2"}}},
		},
		{
			Name: "email", Type: FieldTypeString, Label: "Email", Format: "email",
			Validations: []ValidationRule{{Kind: ValidationRuleFormat, Params: map[string]string{"value": "email"}}},
		},
		{
			Name: "age", Type: FieldTypeInteger, Label: "Age",
			Validations: []ValidationRule{
				{Kind: ValidationRuleMin, Params: map[string]string{"value": "18"}},
				{Kind: ValidationRuleMax, Params: map[string]string{"value": "120"}},
			},
		},
		{Name: "plan", Type: FieldTypeString, Label: "Plan", Enum: []any{"free", "pro"}},
		{Name: "born", Type: FieldTypeString, Label: "Born", Format: "date-time"},
		{
			Name: "address", Type: FieldTypeObject, Label: "Address",
			Metadata: map[string]string{MetadataValidateNested: "true"},
			Nested: []Field{
				{Name: "city", Type: FieldTypeString, Required: true, Label: "City"},
				{
					Name: "postcode", Type: FieldTypeString, Label: "Postcode",
					Validations: []ValidationRule{{Kind: ValidationRulePattern, Params: map[string]string{"pattern": "^[0-9]{5}$"}}},
				},
			},
		},
		{
			Name: "tags", Type: FieldTypeArray, Label: "Tags",
			Items: &Field{Name: "tagsItem", Type: FieldTypeString, Label: "Tags item"},
		},
	}
	if diff := cmp.Diff(want, form.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestBuilderRejectsNonStruct(t *testing.T) {
	if _, err := New(Options{}).Build(42); err == nil {
		t.Fatalf("expected error for non-struct value")
	}
	if _, err := New(Options{}).Build(nil); err == nil {
		t.Fatalf("expected error for nil value")
	}
}

type builderNode struct {
	Next *builderNode `form:"next"`
}

func TestBuilderRejectsRecursiveTypes(t *testing.T) {
	_, err := New(Options{}).Build(builderNode{})
	if err == nil || !strings.Contains(err.Error(), "recursive type") {
		t.Fatalf("expected recursive type error, got %v", err)
	}
}

func TestBuilderCustomLabelerAndTag(t *testing.T) {
	type payload struct {
		Title string `ui:"heading"`
	}
	form, err := New(Options{
		TagName: "ui",
		Labeler: strings.ToUpper,
	}).Build(payload{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(form.Fields) != 1 || form.Fields[0].Name != "heading" || form.Fields[0].Label != "HEADING" {
		t.Fatalf("unexpected fields %+v", form.Fields)
	}
}

func TestFormPathsAndLookup(t *testing.T) {
	form := FormModel{
		ID: "order",
		Fields: []Field{
			{Name: "customer", Type: FieldTypeObject, Nested: []Field{{Name: "email", Type: FieldTypeString}}},
			{Name: "lines", Type: FieldTypeArray, Items: &Field{
				Name: "linesItem", Type: FieldTypeObject,
				Nested: []Field{{Name: "sku", Type: FieldTypeString}},
			}},
		},
	}

	if diff := cmp.Diff([]string{"customer", "customer.email", "lines", "lines.sku"}, form.Paths()); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
	field, ok := form.Lookup("lines.3.sku")
	if !ok || field.Name != "sku" {
		t.Fatalf("expected lines.3.sku to resolve, got %+v %v", field, ok)
	}
	if form.Reachable("customer.phone") {
		t.Fatalf("customer.phone should not be reachable")
	}
	if form.Reachable("") {
		t.Fatalf("empty path should not be reachable")
	}
}

func TestValidateFormErrors(t *testing.T) {
	tests := []struct {
		name string
		form FormModel
		want string
	}{
		{"missing id", FormModel{}, "form id is required"},
		{"duplicate", FormModel{ID: "f", Fields: []Field{{Name: "a"}, {Name: "a"}}}, `duplicate field "a"`},
		{"dotted name", FormModel{ID: "f", Fields: []Field{{Name: "a.b"}}}, "must not contain"},
		{"array items", FormModel{ID: "f", Fields: []Field{{Name: "a", Type: FieldTypeArray}}}, "requires items"},
		{"bad pattern", FormModel{ID: "f", Fields: []Field{{Name: "a", Validations: []ValidationRule{
			{Kind: ValidationRulePattern, Params: map[string]string{"pattern": "("}},
		}}}}, "rule pattern"},
		{"bad threshold", FormModel{ID: "f", Fields: []Field{{Name: "a", Validations: []ValidationRule{
			{Kind: ValidationRuleMinLength, Params: map[string]string{"value": "-1"}},
		}}}}, "invalid value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateForm(tt.form)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestDefaultLabeler(t *testing.T) {
	cases := map[string]string{
		"firstName":     "First name",
		"postal_code":   "Postal code",
		"line2":         "Line 2",
		"userID":        "User ID",
		"api-url":       "API URL",
		"HTMLBody":      "HTML body",
		"address.city":  "City",
		"lines.0.sku":   "SKU",
		"contacts.12":   "Contacts",
		"Straße_nummer": "Straße nummer",
		"":              "",
		"0":             "",
	}
	for in, want := range cases {
		if got := DefaultLabeler(in); got != want {
			t.Fatalf("DefaultLabeler(%q) = %q, want %q", in, got, want)
		}
	}
}
