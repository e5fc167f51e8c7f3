package validation

import (
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-formstate/pkg/model"
)

// Lookup resolves a dotted path against a model. Supported models are
// *model.Record, map[string]any, and structs (or pointers to structs) whose
// fields are addressed by their `form` tag, `json` tag or Go name.
func Lookup(m any, path string) (any, bool) {
	path = strings.TrimSpace(path)
	if m == nil || path == "" {
		return nil, false
	}
	switch typed := m.(type) {
	case *model.Record:
		return typed.GetValue(path)
	case map[string]any:
		return model.GetPath(typed, path)
	}

	current := reflect.ValueOf(m)
	for _, segment := range strings.Split(path, ".") {
		current = indirect(current)
		if !current.IsValid() {
			return nil, false
		}
		switch current.Kind() {
		case reflect.Struct:
			idx, ok := structFieldIndex(current.Type(), segment)
			if !ok {
				return nil, false
			}
			current = current.Field(idx)
		case reflect.Map:
			if current.Type().Key().Kind() != reflect.String {
				return nil, false
			}
			next := current.MapIndex(reflect.ValueOf(segment).Convert(current.Type().Key()))
			if !next.IsValid() {
				return nil, false
			}
			current = next
		case reflect.Slice, reflect.Array:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= current.Len() {
				return nil, false
			}
			current = current.Index(idx)
		default:
			return nil, false
		}
	}

	current = indirect(current)
	if !current.IsValid() {
		return nil, true
	}
	return current.Interface(), true
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

var structIndexCache sync.Map // reflect.Type -> map[string]int

func structFieldIndex(t reflect.Type, name string) (int, bool) {
	cached, ok := structIndexCache.Load(t)
	if !ok {
		index := make(map[string]int, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if !sf.IsExported() {
				continue
			}
			if resolved := model.StructFieldName(sf, ""); resolved != "" {
				index[resolved] = i
			}
		}
		cached, _ = structIndexCache.LoadOrStore(t, index)
	}
	idx, ok := cached.(map[string]int)[name]
	return idx, ok
}

// length reports the item/character count for strings, slices, arrays and
// maps.
func length(value any) (int, bool) {
	switch v := value.(type) {
	case string:
		return len([]rune(v)), true
	case []any:
		return len(v), true
	case nil:
		return 0, false
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		return len([]rune(rv.String())), true
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return 0, false
}

// isEmpty treats nil, blank strings and empty collections as missing.
// Booleans and numbers are always present.
func isEmpty(value any, present bool) bool {
	if !present || value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		return strings.TrimSpace(rv.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	}
	return false
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return parsed, err == nil
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(rv.String()), 64)
		return parsed, err == nil
	}
	return 0, false
}

func toText(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case nil:
		return "", false
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

func toList(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case nil:
		return nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
