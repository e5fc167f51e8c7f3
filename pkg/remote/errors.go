package remote

import (
	"sort"
	"strings"

	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// FormKey carries form-level messages in validation responses.
const FormKey = "form"

// ErrorMapping splits a server error payload into field-level messages keyed
// by dotted field paths and form-level messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// Failures flattens the mapping into validation failures: fields in path
// order, then form-level messages.
func (m ErrorMapping) Failures() []validation.Failure {
	paths := make([]string, 0, len(m.Fields))
	for path := range m.Fields {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var out []validation.Failure
	for _, path := range paths {
		for _, message := range m.Fields[path] {
			out = append(out, validation.Failure{Field: path, Rule: "remote", Message: message})
		}
	}
	for _, message := range m.Form {
		out = append(out, validation.Failure{Rule: "remote", Message: message})
	}
	return out
}

// Empty reports whether the mapping holds no messages.
func (m ErrorMapping) Empty() bool {
	return len(m.Fields) == 0 && len(m.Form) == 0
}

// MapErrorPayload normalises server error payloads, including go-errors style
// JSON pointer paths (`/body/address/city`, `#/name`, `items[0].name`), into
// dotted field paths of form. Array indexes are kept. Paths the schema does
// not declare become form-level messages so they are not lost.
func MapErrorPayload(form model.FormModel, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}

	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, rawPath := range keys {
		messages := normalizeMessages(payload[rawPath])
		if len(messages) == 0 {
			continue
		}
		mapped, formLevel := mapErrorPath(form, rawPath)
		if formLevel {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		mapping.Fields[mapped] = normalizeMessages(append(mapping.Fields[mapped], messages...))
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

// ToPayload is the inverse used by the server: failures keyed by path, with
// model-level messages under FormKey.
func ToPayload(failures []validation.Failure) map[string][]string {
	if len(failures) == 0 {
		return nil
	}
	out := make(map[string][]string)
	for _, failure := range failures {
		key := failure.Field
		if failure.ModelLevel() {
			key = FormKey
		}
		out[key] = append(out[key], failure.Message)
	}
	return out
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func mapErrorPath(form model.FormModel, raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if isFormLevelKey(trimmed) {
		return "", true
	}
	segments := parsePathSegments(trimmed)
	if len(segments) == 0 {
		return "", true
	}

	best := ""
	for _, variant := range [][]string{segments, dropWrapperSegments(segments)} {
		if path := longestReachablePath(form, variant); len(path) > len(best) {
			best = path
		}
	}
	if best == "" {
		return "", true
	}
	return best, false
}

func parsePathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	for strings.HasPrefix(clean, "#") || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, ".") || strings.HasPrefix(clean, "$") {
		clean = clean[1:]
	}
	clean = strings.NewReplacer("[", ".", "]", "").Replace(clean)
	clean = strings.Trim(clean, "./")
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

var wrapperSegments = map[string]struct{}{
	"body":       {},
	"request":    {},
	"payload":    {},
	"data":       {},
	"attributes": {},
}

func dropWrapperSegments(segments []string) []string {
	out := segments
	for len(out) > 0 {
		if _, ok := wrapperSegments[strings.ToLower(out[0])]; !ok {
			break
		}
		out = out[1:]
	}
	return out
}

// longestReachablePath returns the longest prefix of segments that names a
// declared field. Index segments only count after a field name.
func longestReachablePath(form model.FormModel, segments []string) string {
	if len(segments) == 0 || len(model.SchemaSegments(segments[0])) == 0 {
		return ""
	}
	for end := len(segments); end > 0; end-- {
		candidate := strings.Join(segments[:end], ".")
		if form.Reachable(candidate) {
			return candidate
		}
	}
	return ""
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", FormKey, "base", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}
