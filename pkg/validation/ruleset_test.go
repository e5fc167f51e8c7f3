package validation

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/model"
)

type person struct {
	Name    string  `form:"Name,required"`
	Email   string  `form:"email,format=email"`
	Age     int     `form:"age,min=18,max=130"`
	Address address `form:"address"`
}

type address struct {
	City string `form:"city,required"`
}

func mustStructForm(t *testing.T, v any) model.FormModel {
	t.Helper()
	form, err := model.FromStruct(v)
	if err != nil {
		t.Fatalf("FromStruct: %v", err)
	}
	return form
}

func TestRuleSet_RequiredScenario(t *testing.T) {
	rs := MustCompile(mustStructForm(t, &person{}))

	got := rs.Validate(&person{Name: "", Age: 30})
	want := []Failure{{Field: "Name", Rule: "required", Message: "Name is required"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("failures mismatch (-want +got):\n%s", diff)
	}

	if got := rs.Validate(&person{Name: "Alice", Age: 30}); len(got) != 0 {
		t.Fatalf("expected no failures, got %+v", got)
	}
}

func TestRuleSet_ReportsExactlyFailingSubset(t *testing.T) {
	form := model.FormModel{
		ID: "scalars",
		Fields: []model.Field{
			{Name: "a", Type: model.FieldTypeString, Required: true},
			{Name: "b", Type: model.FieldTypeString, Validations: []model.ValidationRule{{Kind: model.ValidationRuleMinLength, Params: map[string]string{"value": "3"}}}},
			{Name: "c", Type: model.FieldTypeNumber, Validations: []model.ValidationRule{{Kind: model.ValidationRuleMax, Params: map[string]string{"value": "10"}}}},
			{Name: "d", Type: model.FieldTypeString, Validations: []model.ValidationRule{{Kind: model.ValidationRulePattern, Params: map[string]string{"pattern": "^[a-z]+$"}}}},
		},
	}
	rs := MustCompile(form)

	values := map[string]any{"a": "set", "b": "xy", "c": 4.0, "d": "Nope"}
	var fields []string
	for _, failure := range rs.Validate(values) {
		fields = append(fields, failure.Field)
	}
	if diff := cmp.Diff([]string{"b", "d"}, fields); diff != "" {
		t.Fatalf("failing fields mismatch (-want +got):\n%s", diff)
	}
}

func TestRuleSet_Idempotent(t *testing.T) {
	rs := MustCompile(mustStructForm(t, &person{}))
	subject := &person{Email: "not-an-email", Age: 7}

	first := rs.Validate(subject)
	second := rs.Validate(subject)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("validate not idempotent (-first +second):\n%s", diff)
	}
	if len(first) != 3 {
		t.Fatalf("expected 3 failures, got %+v", first)
	}
}

func TestRuleSet_NestedRequiresOptIn(t *testing.T) {
	form := mustStructForm(t, &person{})
	subject := &person{Name: "Alice", Age: 40}

	if got := MustCompile(form).Validate(subject); len(got) != 0 {
		t.Fatalf("nested fields validated without opt-in: %+v", got)
	}

	got := MustCompile(form, WithNested("address")).Validate(subject)
	want := []Failure{{Field: "address.city", Rule: "required", Message: "City is required"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("nested failures mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_LabelerReceivesFieldPath(t *testing.T) {
	form := model.FormModel{
		ID: "shipping",
		Fields: []model.Field{
			{Name: "vat_id", Type: model.FieldTypeString, Required: true},
			{Name: "address", Type: model.FieldTypeObject, Metadata: map[string]string{model.MetadataValidateNested: "true"},
				Nested: []model.Field{{Name: "postalCode", Type: model.FieldTypeString, Required: true}}},
		},
	}
	values := model.NewRecord(map[string]any{"address": map[string]any{"street": "1 Main St"}})

	got := MustCompile(form).Validate(values)
	want := []Failure{
		{Field: "vat_id", Rule: "required", Message: "VAT ID is required"},
		{Field: "address.postalCode", Rule: "required", Message: "Postal code is required"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("default labels mismatch (-want +got):\n%s", diff)
	}

	got = MustCompile(form, WithLabeler(strings.ToUpper)).Validate(values)
	want = []Failure{
		{Field: "vat_id", Rule: "required", Message: "VAT_ID is required"},
		{Field: "address.postalCode", Rule: "required", Message: "ADDRESS.POSTALCODE is required"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("custom labels mismatch (-want +got):\n%s", diff)
	}
}

func TestRuleSet_ArrayItems(t *testing.T) {
	form := model.FormModel{
		ID: "tags",
		Fields: []model.Field{{
			Name:     "tags",
			Type:     model.FieldTypeArray,
			Required: true,
			Metadata: map[string]string{model.MetadataValidateNested: "true"},
			Validations: []model.ValidationRule{
				{Kind: model.ValidationRuleMaxLength, Params: map[string]string{"value": "2"}},
			},
			Items: &model.Field{
				Name: "tagsItem",
				Type: model.FieldTypeString,
				Validations: []model.ValidationRule{
					{Kind: model.ValidationRuleMinLength, Params: map[string]string{"value": "2"}},
				},
			},
		}},
	}
	rs := MustCompile(form)

	got := rs.Validate(map[string]any{"tags": []any{"go", "x", "db"}})
	want := []Failure{
		{Field: "tags", Rule: "maxLength", Message: "Tags must contain at most 2 items"},
		{Field: "tags.1", Rule: "minLength", Message: "Tags must be at least 2 characters"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("array failures mismatch (-want +got):\n%s", diff)
	}

	if got := rs.ValidateField(map[string]any{"tags": []any{"go", "x"}}, "tags.1"); len(got) != 1 || got[0].Field != "tags.1" {
		t.Fatalf("expected single item failure, got %+v", got)
	}
}

func TestRuleSet_TypeEnumAndFormats(t *testing.T) {
	form := model.FormModel{
		ID: "mixed",
		Fields: []model.Field{
			{Name: "count", Type: model.FieldTypeInteger},
			{Name: "status", Type: model.FieldTypeString, Enum: []any{"draft", "published"}},
			{Name: "id", Type: model.FieldTypeString, Format: "uuid"},
			{Name: "site", Type: model.FieldTypeString, Validations: []model.ValidationRule{
				{Kind: model.ValidationRuleFormat, Params: map[string]string{"value": "url", "message": "{label} needs a link"}},
			}},
		},
	}
	rs := MustCompile(form)

	got := rs.Validate(model.NewRecord(map[string]any{
		"count":  "1.5",
		"status": "archived",
		"id":     "nope",
		"site":   "::",
	}))
	var messages []string
	for _, failure := range got {
		messages = append(messages, failure.Message)
	}
	want := []string{
		"Count must be a whole number",
		"Status must be one of: draft, published",
		"ID must be a valid UUID",
		"Site needs a link",
	}
	if diff := cmp.Diff(want, messages); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestRuleSet_DeclaredFormatIgnoresCase(t *testing.T) {
	form := model.FormModel{
		ID: "contact",
		Fields: []model.Field{
			{Name: "email", Label: "Email", Type: model.FieldTypeString, Format: "Email"},
			{Name: "host", Label: "Host", Type: model.FieldTypeString, Format: " IPv4 "},
		},
	}
	rs := MustCompile(form)

	got := rs.Validate(model.NewRecord(map[string]any{"email": "not-an-email", "host": "300.1.1.1"}))
	want := []Failure{
		{Field: "email", Rule: model.ValidationRuleFormat, Message: "Email must be a valid email address"},
		{Field: "host", Rule: model.ValidationRuleFormat, Message: "Host must be a valid IPv4 address"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("failures mismatch (-want +got):\n%s", diff)
	}
	if !KnownFormat("DATE-TIME") {
		t.Fatalf("expected DATE-TIME to be a known format")
	}
}

func TestRuleSet_VisibilitySkipsHiddenFields(t *testing.T) {
	form := model.FormModel{
		ID: "company",
		Fields: []model.Field{
			{Name: "kind", Type: model.FieldTypeString},
			{Name: "vat", Type: model.FieldTypeString, Required: true, Metadata: map[string]string{
				model.MetadataVisibleWhen: `kind == "company"`,
			}},
		},
	}
	rs := MustCompile(form)

	if got := rs.Validate(map[string]any{"kind": "person"}); len(got) != 0 {
		t.Fatalf("hidden field validated: %+v", got)
	}
	if got := rs.Validate(map[string]any{"kind": "company"}); len(got) != 1 || got[0].Field != "vat" {
		t.Fatalf("expected vat failure, got %+v", got)
	}
}

func TestCompile_RejectsMisconfiguration(t *testing.T) {
	cases := map[string]model.Field{
		"pattern":    {Name: "a", Validations: []model.ValidationRule{{Kind: model.ValidationRulePattern, Params: map[string]string{"pattern": "("}}}},
		"threshold":  {Name: "a", Validations: []model.ValidationRule{{Kind: model.ValidationRuleMin, Params: map[string]string{"value": "x"}}}},
		"format":     {Name: "a", Validations: []model.ValidationRule{{Kind: model.ValidationRuleFormat, Params: map[string]string{"value": "isbn"}}}},
		"visibility": {Name: "a", Metadata: map[string]string{model.MetadataVisibleWhen: "a = 1"}},
	}
	for name, field := range cases {
		if _, err := Compile(model.FormModel{ID: "bad", Fields: []model.Field{field}}); err == nil {
			t.Fatalf("%s: expected compile error", name)
		}
	}

	_, err := Compile(model.FormModel{ID: "x", Fields: []model.Field{{Name: "a"}}}, WithRule("missing", func(any) (string, bool) { return "", true }))
	if err == nil || !strings.Contains(err.Error(), "unknown field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestCompose_AndCustom(t *testing.T) {
	rs := MustCompile(mustStructForm(t, &person{}), WithRule("Name", func(value any) (string, bool) {
		if value == "root" {
			return "Name is reserved", false
		}
		return "", true
	}))
	modelLevel := ValidatorFunc(func(any) []Failure {
		return []Failure{{Message: "Form is locked"}}
	})
	ageCheck := Custom("age", func(value any) (string, bool) {
		return "Age must be even", value.(int)%2 == 0
	})

	got := Compose(rs, nil, modelLevel, ageCheck).Validate(&person{Name: "root", Age: 31})
	want := []Failure{
		{Field: "Name", Rule: "custom", Message: "Name is reserved"},
		{Message: "Form is locked"},
		{Field: "age", Rule: "custom", Message: "Age must be even"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("composed failures mismatch (-want +got):\n%s", diff)
	}
	if !got[1].ModelLevel() {
		t.Fatalf("expected model-level failure")
	}
}
