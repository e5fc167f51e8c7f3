package model

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	errFormIDMissing    = errors.New("model builder: form id is required")
	errFieldNameMissing = errors.New("field name is required")
)

// ValidateForm checks that a form schema is internally consistent before it
// is bound to an edit context.
func ValidateForm(form FormModel) error {
	if strings.TrimSpace(form.ID) == "" {
		return errFormIDMissing
	}
	if err := validateFields(form.Fields, ""); err != nil {
		return fmt.Errorf("model builder: form %q: %w", form.ID, err)
	}
	return nil
}

func validateFields(fields []Field, prefix string) error {
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			return errFieldNameMissing
		}
		path := JoinPath(prefix, name)
		if strings.Contains(name, ".") {
			return fmt.Errorf("field %q: name must not contain '.'", path)
		}
		if _, exists := seen[name]; exists {
			return fmt.Errorf("duplicate field %q", path)
		}
		seen[name] = struct{}{}

		if err := validateField(field, path); err != nil {
			return err
		}
	}
	return nil
}

func validateField(field Field, path string) error {
	if field.Type == FieldTypeArray && field.Items == nil {
		return fmt.Errorf("field %q: array schema requires items", path)
	}
	for _, rule := range field.Validations {
		if err := validateRule(rule); err != nil {
			return fmt.Errorf("field %q: %w", path, err)
		}
	}
	if len(field.Nested) > 0 {
		if err := validateFields(field.Nested, path); err != nil {
			return err
		}
	}
	if field.Items != nil {
		for _, rule := range field.Items.Validations {
			if err := validateRule(rule); err != nil {
				return fmt.Errorf("field %q items: %w", path, err)
			}
		}
		if len(field.Items.Nested) > 0 {
			if err := validateFields(field.Items.Nested, path); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateRule(rule ValidationRule) error {
	switch rule.Kind {
	case ValidationRuleMin, ValidationRuleMax:
		if _, err := strconv.ParseFloat(rule.Params["value"], 64); err != nil {
			return fmt.Errorf("rule %s: invalid value %q", rule.Kind, rule.Params["value"])
		}
	case ValidationRuleMinLength, ValidationRuleMaxLength:
		value, err := strconv.Atoi(rule.Params["value"])
		if err != nil || value < 0 {
			return fmt.Errorf("rule %s: invalid value %q", rule.Kind, rule.Params["value"])
		}
	case ValidationRulePattern:
		if _, err := regexp.Compile(rule.Params["pattern"]); err != nil {
			return fmt.Errorf("rule pattern: %w", err)
		}
	case ValidationRuleFormat:
		if strings.TrimSpace(rule.Params["value"]) == "" {
			return errors.New("rule format: value is required")
		}
	case "":
		return errors.New("rule kind is required")
	}
	return nil
}
