package validation

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-formstate/pkg/model"
)

const (
	ruleRequired = "required"
	ruleType     = "type"
	ruleEnum     = "enum"
)

// rule checks one constraint. check returns false with a message when the
// value violates the constraint; it is only called for non-empty values
// except for the required rule.
type rule struct {
	kind  string
	check func(value any, present bool) (string, bool)
}

func requiredRule(label, message string) rule {
	return rule{kind: ruleRequired, check: func(value any, present bool) (string, bool) {
		if isEmpty(value, present) {
			return withDefault(message, label, "%s is required"), false
		}
		return "", true
	}}
}

func typeRule(field model.Field, label string) (rule, bool) {
	var (
		accept func(any) bool
		format string
	)
	switch field.Type {
	case model.FieldTypeInteger:
		format = "%s must be a whole number"
		accept = func(v any) bool {
			n, ok := toFloat(v)
			return ok && n == math.Trunc(n)
		}
	case model.FieldTypeNumber:
		format = "%s must be a number"
		accept = func(v any) bool {
			_, ok := toFloat(v)
			return ok
		}
	case model.FieldTypeBoolean:
		format = "%s must be true or false"
		accept = func(v any) bool {
			switch b := v.(type) {
			case bool:
				return true
			case string:
				_, err := strconv.ParseBool(b)
				return err == nil
			}
			return reflect.ValueOf(v).Kind() == reflect.Bool
		}
	case model.FieldTypeArray:
		format = "%s must be a list"
		accept = func(v any) bool {
			kind := reflect.ValueOf(v).Kind()
			return kind == reflect.Slice || kind == reflect.Array
		}
	default:
		return rule{}, false
	}
	return rule{kind: ruleType, check: func(value any, _ bool) (string, bool) {
		if accept(value) {
			return "", true
		}
		return fmt.Sprintf(format, label), false
	}}, true
}

func enumRule(options []any, label string) rule {
	allowed := make(map[string]struct{}, len(options))
	names := make([]string, 0, len(options))
	for _, option := range options {
		key := fmt.Sprint(option)
		allowed[key] = struct{}{}
		names = append(names, key)
	}
	message := fmt.Sprintf("%s must be one of: %s", label, strings.Join(names, ", "))
	return rule{kind: ruleEnum, check: func(value any, _ bool) (string, bool) {
		if list := toList(value); list != nil {
			for _, item := range list {
				if _, ok := allowed[fmt.Sprint(item)]; !ok {
					return message, false
				}
			}
			return "", true
		}
		if _, ok := allowed[fmt.Sprint(value)]; ok {
			return "", true
		}
		return message, false
	}}
}

func compileRule(spec model.ValidationRule, field model.Field, label string) (rule, error) {
	message := spec.Params["message"]
	unit := "characters"
	if field.Type == model.FieldTypeArray {
		unit = "items"
	}

	switch spec.Kind {
	case model.ValidationRuleMin, model.ValidationRuleMax:
		bound, err := strconv.ParseFloat(spec.Params["value"], 64)
		if err != nil {
			return rule{}, fmt.Errorf("validation: field %q rule %s: invalid value %q", field.Name, spec.Kind, spec.Params["value"])
		}
		exclusive := spec.Params["exclusive"] == "true"
		isMin := spec.Kind == model.ValidationRuleMin
		return rule{kind: spec.Kind, check: func(value any, _ bool) (string, bool) {
			n, ok := toFloat(value)
			if !ok {
				return "", true // the type rule reports non-numeric values
			}
			if boundOK(n, bound, isMin, exclusive) {
				return "", true
			}
			return withDefault(message, label, boundMessage(isMin, exclusive, bound)), false
		}}, nil

	case model.ValidationRuleMinLength, model.ValidationRuleMaxLength:
		limit, err := strconv.Atoi(spec.Params["value"])
		if err != nil || limit < 0 {
			return rule{}, fmt.Errorf("validation: field %q rule %s: invalid value %q", field.Name, spec.Kind, spec.Params["value"])
		}
		isMin := spec.Kind == model.ValidationRuleMinLength
		return rule{kind: spec.Kind, check: func(value any, _ bool) (string, bool) {
			n, ok := length(value)
			if !ok || (isMin && n >= limit) || (!isMin && n <= limit) {
				return "", true
			}
			qualifier := "at most"
			if isMin {
				qualifier = "at least"
			}
			verb := "must be"
			if unit == "items" {
				verb = "must contain"
			}
			return withDefault(message, label, "%s "+fmt.Sprintf("%s %s %d %s", verb, qualifier, limit, unit)), false
		}}, nil

	case model.ValidationRulePattern:
		re, err := regexp.Compile(spec.Params["pattern"])
		if err != nil {
			return rule{}, fmt.Errorf("validation: field %q rule pattern: %w", field.Name, err)
		}
		return rule{kind: spec.Kind, check: func(value any, _ bool) (string, bool) {
			text, ok := toText(value)
			if !ok || re.MatchString(text) {
				return "", true
			}
			return withDefault(message, label, "%s does not match the required pattern"), false
		}}, nil

	case model.ValidationRuleFormat:
		name := formatName(spec.Params["value"])
		checker, ok := formats[name]
		if !ok {
			return rule{}, fmt.Errorf("validation: field %q: unknown format %q", field.Name, name)
		}
		return rule{kind: spec.Kind, check: func(value any, _ bool) (string, bool) {
			text, ok := toText(value)
			if !ok || checker.valid(text) {
				return "", true
			}
			return withDefault(message, label, "%s must be "+checker.description), false
		}}, nil
	}
	return rule{}, fmt.Errorf("validation: field %q: unknown rule kind %q", field.Name, spec.Kind)
}

func boundOK(n, bound float64, isMin, exclusive bool) bool {
	switch {
	case isMin && exclusive:
		return n > bound
	case isMin:
		return n >= bound
	case exclusive:
		return n < bound
	default:
		return n <= bound
	}
}

func boundMessage(isMin, exclusive bool, bound float64) string {
	value := strconv.FormatFloat(bound, 'f', -1, 64)
	switch {
	case isMin && exclusive:
		return "%s must be greater than " + value
	case isMin:
		return "%s must be at least " + value
	case exclusive:
		return "%s must be less than " + value
	default:
		return "%s must be at most " + value
	}
}

// withDefault renders the custom message (with {label} substituted) or the
// default format.
func withDefault(custom, label, format string) string {
	if custom = strings.TrimSpace(custom); custom != "" {
		return strings.ReplaceAll(custom, "{label}", label)
	}
	return fmt.Sprintf(format, label)
}
