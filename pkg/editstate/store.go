package editstate

import (
	"strings"

	"github.com/goliatone/go-formstate/pkg/model"
)

// Message is one validation message. A zero Field marks a model-level
// message.
type Message struct {
	Field model.FieldIdentifier
	Text  string
}

// ModelLevel reports whether the message is not associated with a field.
func (m Message) ModelLevel() bool {
	return m.Field.IsZero()
}

// MessageStore maps field identifiers to ordered message lists and also
// holds model-level messages. Fields and messages keep insertion order;
// blank and duplicate messages are dropped.
//
// An EditContext never mutates a store it has published: every change builds
// a new store and swaps it in, so snapshots handed to observers stay stable.
type MessageStore struct {
	order  []model.FieldIdentifier
	fields map[model.FieldIdentifier][]string
	model  []string
}

// NewMessageStore returns an empty store.
func NewMessageStore() *MessageStore {
	return &MessageStore{fields: make(map[model.FieldIdentifier][]string)}
}

// Add appends messages to field.
func (s *MessageStore) Add(field model.FieldIdentifier, messages ...string) {
	if field.IsZero() {
		s.AddModel(messages...)
		return
	}
	existing, known := s.fields[field]
	merged := mergeMessages(existing, messages)
	if len(merged) == 0 {
		return
	}
	if !known {
		s.order = append(s.order, field)
	}
	s.fields[field] = merged
}

// AddModel appends model-level messages.
func (s *MessageStore) AddModel(messages ...string) {
	s.model = mergeMessages(s.model, messages)
}

// Clear drops every message of field.
func (s *MessageStore) Clear(field model.FieldIdentifier) {
	if _, ok := s.fields[field]; !ok {
		return
	}
	delete(s.fields, field)
	for i, candidate := range s.order {
		if candidate == field {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
}

// ClearTree drops messages of field and of every path nested below it on
// the same model.
func (s *MessageStore) ClearTree(field model.FieldIdentifier) {
	prefix := field.Field + "."
	kept := s.order[:0:0]
	for _, candidate := range s.order {
		if candidate.Model == field.Model && (candidate.Field == field.Field || strings.HasPrefix(candidate.Field, prefix)) {
			delete(s.fields, candidate)
			continue
		}
		kept = append(kept, candidate)
	}
	s.order = kept
}

// ClearModel drops model-level messages.
func (s *MessageStore) ClearModel() {
	s.model = nil
}

// Messages returns a copy of the messages attached to field.
func (s *MessageStore) Messages(field model.FieldIdentifier) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.fields[field]...)
}

// ModelMessages returns a copy of the model-level messages.
func (s *MessageStore) ModelMessages() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.model...)
}

// Fields lists identifiers holding messages in insertion order.
func (s *MessageStore) Fields() []model.FieldIdentifier {
	if s == nil {
		return nil
	}
	return append([]model.FieldIdentifier(nil), s.order...)
}

// All flattens the store: field messages in insertion order, then
// model-level messages.
func (s *MessageStore) All() []Message {
	if s == nil {
		return nil
	}
	out := make([]Message, 0, s.Len())
	for _, field := range s.order {
		for _, text := range s.fields[field] {
			out = append(out, Message{Field: field, Text: text})
		}
	}
	for _, text := range s.model {
		out = append(out, Message{Text: text})
	}
	return out
}

// Len counts messages.
func (s *MessageStore) Len() int {
	if s == nil {
		return 0
	}
	n := len(s.model)
	for _, messages := range s.fields {
		n += len(messages)
	}
	return n
}

// Empty reports whether the store has no messages at all.
func (s *MessageStore) Empty() bool {
	return s.Len() == 0
}

// Clone returns an independent copy.
func (s *MessageStore) Clone() *MessageStore {
	out := NewMessageStore()
	if s == nil {
		return out
	}
	out.order = append(out.order, s.order...)
	for field, messages := range s.fields {
		out.fields[field] = append([]string(nil), messages...)
	}
	out.model = append([]string(nil), s.model...)
	return out
}

// mergeMessages appends extras to existing, trimming whitespace and dropping
// blanks and duplicates while preserving order.
func mergeMessages(existing []string, extras []string) []string {
	if len(extras) == 0 {
		return existing
	}
	out := make([]string, 0, len(existing)+len(extras))
	seen := make(map[string]struct{}, len(existing)+len(extras))
	for _, message := range append(append([]string(nil), existing...), extras...) {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
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
