package model

import (
	"strconv"
	"strings"
)

// Paths returns every dotted path reachable from the form schema in
// declaration order. Array items contribute their nested paths directly
// under the array path (numeric indexes are not part of schema paths).
func (f FormModel) Paths() []string {
	var out []string
	collectPaths(f.Fields, "", &out)
	return out
}

// Lookup resolves a dotted path (numeric segments ignored) to its Field.
func (f FormModel) Lookup(path string) (Field, bool) {
	segments := SchemaSegments(path)
	if len(segments) == 0 {
		return Field{}, false
	}
	fields := f.Fields
	var current Field
	for idx, segment := range segments {
		found := false
		for _, candidate := range fields {
			if candidate.Name == segment {
				current = candidate
				found = true
				break
			}
		}
		if !found {
			return Field{}, false
		}
		if idx == len(segments)-1 {
			return current, true
		}
		switch {
		case len(current.Nested) > 0:
			fields = current.Nested
		case current.Items != nil:
			fields = current.Items.Nested
		default:
			return Field{}, false
		}
	}
	return Field{}, false
}

// Reachable reports whether path names a field declared by the schema.
func (f FormModel) Reachable(path string) bool {
	_, ok := f.Lookup(path)
	return ok
}

func collectPaths(fields []Field, prefix string, dest *[]string) {
	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			continue
		}
		path := JoinPath(prefix, name)
		*dest = append(*dest, path)
		if len(field.Nested) > 0 {
			collectPaths(field.Nested, path, dest)
		}
		if field.Items != nil && len(field.Items.Nested) > 0 {
			collectPaths(field.Items.Nested, path, dest)
		}
	}
}

// SchemaSegments splits a dotted path and drops numeric index segments.
func SchemaSegments(path string) []string {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ".")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		if _, err := strconv.Atoi(part); err == nil {
			continue
		}
		out = append(out, part)
	}
	return out
}

// JoinPath joins two dotted path fragments.
func JoinPath(parent, child string) string {
	parent = strings.TrimSpace(parent)
	child = strings.TrimSpace(child)
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + "." + child
}
