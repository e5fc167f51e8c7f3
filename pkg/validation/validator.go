package validation

import "strings"

// Failure is a single validation message. An empty Field marks a model-level
// message that is not associated with any field.
type Failure struct {
	Field   string `json:"field,omitempty"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

// ModelLevel reports whether the failure is not bound to a field.
func (f Failure) ModelLevel() bool {
	return strings.TrimSpace(f.Field) == ""
}

// Validator maps a model instance to validation failures. Implementations
// must be pure: no side effects, and the same model contents always give the
// same failures in the same order.
type Validator interface {
	Validate(model any) []Failure
}

// FieldValidator is implemented by validators that can check a single field
// (and its nested paths) without running every rule.
type FieldValidator interface {
	Validator
	ValidateField(model any, path string) []Failure
}

// ValidatorFunc adapts a function into a Validator.
type ValidatorFunc func(model any) []Failure

// Validate calls the underlying function.
func (fn ValidatorFunc) Validate(model any) []Failure {
	return fn(model)
}

// Compose runs validators in order and concatenates their failures. Nil
// validators are skipped.
func Compose(validators ...Validator) Validator {
	return composite(validators)
}

type composite []Validator

func (c composite) Validate(model any) []Failure {
	var out []Failure
	for _, v := range c {
		if v == nil {
			continue
		}
		out = append(out, v.Validate(model)...)
	}
	return out
}

func (c composite) ValidateField(model any, path string) []Failure {
	var out []Failure
	for _, v := range c {
		if v == nil {
			continue
		}
		out = append(out, ValidateField(v, model, path)...)
	}
	return out
}

// ValidateField runs the field-scoped check when v supports it, otherwise it
// filters the full result down to path and its nested paths.
func ValidateField(v Validator, model any, path string) []Failure {
	if v == nil {
		return nil
	}
	if fv, ok := v.(FieldValidator); ok {
		return fv.ValidateField(model, path)
	}
	return FilterField(v.Validate(model), path)
}

// FilterField keeps failures for path and anything nested below it.
func FilterField(failures []Failure, path string) []Failure {
	var out []Failure
	for _, failure := range failures {
		if failure.Field == path || strings.HasPrefix(failure.Field, path+".") {
			out = append(out, failure)
		}
	}
	return out
}

// Custom builds a Validator checking a single path with fn. fn returns the
// failure message and false when the value is invalid.
func Custom(path string, fn RuleFunc) Validator {
	return ValidatorFunc(func(model any) []Failure {
		if fn == nil {
			return nil
		}
		value, _ := Lookup(model, path)
		if message, ok := fn(value); !ok {
			return []Failure{{Field: path, Rule: "custom", Message: message}}
		}
		return nil
	})
}

// RuleFunc is an ad-hoc rule: it returns the failure message and false when
// value is invalid.
type RuleFunc func(value any) (message string, ok bool)
