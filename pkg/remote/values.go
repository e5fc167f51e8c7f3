package remote

import (
	"encoding"
	"fmt"
	"reflect"

	"github.com/goliatone/go-formstate/pkg/model"
)

// Values converts a bound model into the JSON object sent to the server.
// Struct fields are keyed by their schema names (see model.StructFieldName)
// so server-side paths line up with the form.
func Values(m any) (map[string]any, error) {
	switch typed := m.(type) {
	case nil:
		return map[string]any{}, nil
	case *model.Record:
		return typed.Snapshot(), nil
	case map[string]any:
		return typed, nil
	}
	converted := plain(reflect.ValueOf(m))
	out, ok := converted.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("remote: model %T does not convert to an object", m)
	}
	return out, nil
}

var textMarshaler = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()

func plain(v reflect.Value) any {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil
	}
	if v.Type().Implements(textMarshaler) {
		text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err == nil {
			return string(text)
		}
	}

	switch v.Kind() {
	case reflect.Struct:
		out := make(map[string]any, v.NumField())
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if !sf.IsExported() {
				continue
			}
			name := model.StructFieldName(sf, "")
			if name == "" {
				continue
			}
			out[name] = plain(v.Field(i))
		}
		return out
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return v.Interface()
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = plain(iter.Value())
		}
		return out
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return nil
		}
		out := make([]any, v.Len())
		for i := range out {
			out[i] = plain(v.Index(i))
		}
		return out
	default:
		return v.Interface()
	}
}
