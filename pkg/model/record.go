package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Record is a schema-driven model: values keyed by dotted paths, used when a
// form has no backing Go struct. Bind *Record to an edit context; the pointer
// is the model identity.
type Record struct {
	values map[string]any
}

// NewRecord seeds a record with a deep copy of the prefilled values.
func NewRecord(prefill map[string]any) *Record {
	return &Record{values: cloneValues(prefill)}
}

// RecordFromDefaults seeds a record with the defaults declared on the form.
func RecordFromDefaults(form FormModel) *Record {
	rec := NewRecord(nil)
	applyDefaults(rec, form.Fields, "")
	return rec
}

func applyDefaults(rec *Record, fields []Field, prefix string) {
	for _, field := range fields {
		path := JoinPath(prefix, field.Name)
		if field.Default != nil {
			_ = rec.SetValue(path, deepCopy(field.Default))
		}
		if len(field.Nested) > 0 {
			applyDefaults(rec, field.Nested, path)
		}
	}
}

// Values returns the underlying value map. Callers that mutate it directly
// bypass change notification.
func (r *Record) Values() map[string]any {
	if r == nil {
		return nil
	}
	return r.values
}

// Snapshot returns a deep copy of the current values.
func (r *Record) Snapshot() map[string]any {
	if r == nil {
		return nil
	}
	return cloneValues(r.values)
}

// GetValue resolves a dotted path.
func (r *Record) GetValue(path string) (any, bool) {
	if r == nil {
		return nil, false
	}
	return GetPath(r.values, path)
}

// SetValue writes a value at a dotted path, creating intermediate maps and
// slices as needed. Numeric segments address slice elements.
func (r *Record) SetValue(path string, value any) error {
	if r == nil {
		return errors.New("model: record is nil")
	}
	if r.values == nil {
		r.values = make(map[string]any)
	}
	segments := strings.Split(strings.TrimSpace(path), ".")
	if len(segments) == 0 || segments[0] == "" {
		return errors.New("model: empty path")
	}
	if _, numeric := parseIndex(segments[0]); numeric {
		return fmt.Errorf("model: path %q must start with a field name", path)
	}
	updated, err := setSegments(r.values, segments, value)
	if err != nil {
		return fmt.Errorf("model: set %q: %w", path, err)
	}
	r.values = updated.(map[string]any)
	return nil
}

// GetPath resolves a dotted path inside nested maps and []any slices.
func GetPath(root map[string]any, path string) (any, bool) {
	if root == nil || path == "" {
		return nil, false
	}
	var current any = root
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// setSegments returns the (possibly reallocated) container after writing.
func setSegments(container any, segments []string, value any) (any, error) {
	segment := segments[0]
	rest := segments[1:]

	idx, numeric := parseIndex(segment)
	if numeric {
		list, _ := container.([]any)
		if container != nil && list == nil {
			return nil, fmt.Errorf("segment %q addresses a non-list value", segment)
		}
		if idx < 0 {
			return nil, fmt.Errorf("negative index %d", idx)
		}
		if len(list) <= idx {
			list = append(list, make([]any, idx+1-len(list))...)
		}
		if len(rest) == 0 {
			list[idx] = value
			return list, nil
		}
		child, err := setSegments(list[idx], rest, value)
		if err != nil {
			return nil, err
		}
		list[idx] = child
		return list, nil
	}

	node, _ := container.(map[string]any)
	if container != nil && node == nil {
		return nil, fmt.Errorf("segment %q addresses a non-object value", segment)
	}
	if node == nil {
		node = make(map[string]any)
	}
	if len(rest) == 0 {
		node[segment] = value
		return node, nil
	}
	child, err := setSegments(node[segment], rest, value)
	if err != nil {
		return nil, err
	}
	node[segment] = child
	return node, nil
}

func parseIndex(segment string) (int, bool) {
	idx, err := strconv.Atoi(segment)
	return idx, err == nil
}

func cloneValues(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = deepCopy(v)
	}
	return out
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return cloneValues(typed)
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = deepCopy(v)
		}
		return clone
	default:
		return typed
	}
}
