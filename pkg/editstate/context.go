package editstate

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// EditContext tracks the editing state of one bound model: which fields were
// modified and the current validation messages. It is created when a form
// starts editing a model and discarded with Close when the form goes away or
// rebinds.
//
// An EditContext is owned by a single goroutine and is not safe for
// concurrent use. Work done elsewhere (remote validation) hands its result
// back through ApplyAsync on the owning goroutine.
type EditContext struct {
	id     string
	model  any
	form   model.FormModel
	logger *zap.Logger

	validator       validation.Validator
	ruleOptions     []validation.Option
	fieldValidation bool

	modified      map[model.FieldIdentifier]struct{}
	modifiedOrder []model.FieldIdentifier
	store         *MessageStore

	revision uint64
	asyncSeq uint64
	closed   bool

	fieldChanged        observers[FieldChangedEvent]
	validationRequested observers[ValidationRequestedEvent]
	stateChanged        observers[ValidationStateChangedEvent]

	dispatching bool
	queue       []queuedEvent
	maxDispatch int
	dropped     int
}

// New binds an edit context to m, whose declared schema is form. m must be
// comparable (typically a pointer to a struct or a *model.Record). Unless
// WithValidator is given, the rule set is compiled from form.
func New(m any, form model.FormModel, opts ...Option) (*EditContext, error) {
	if m == nil {
		return nil, errors.New("editstate: model is required")
	}
	if err := model.CheckComparable(m); err != nil {
		return nil, fmt.Errorf("editstate: %w", err)
	}
	if err := model.ValidateForm(form); err != nil {
		return nil, fmt.Errorf("editstate: %w", err)
	}

	ec := &EditContext{
		id:          uuid.NewString(),
		model:       m,
		form:        form,
		logger:      zap.NewNop(),
		modified:    make(map[model.FieldIdentifier]struct{}),
		store:       NewMessageStore(),
		maxDispatch: DefaultMaxDispatch,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(ec)
		}
	}
	ec.logger = ec.logger.With(zap.String("edit_context", ec.id), zap.String("form", form.ID))

	if ec.validator == nil {
		rules, err := validation.Compile(form, ec.ruleOptions...)
		if err != nil {
			return nil, fmt.Errorf("editstate: %w", err)
		}
		ec.validator = rules
	}

	if ec.fieldValidation {
		ec.fieldChanged.add(func(event FieldChangedEvent) {
			ec.ValidateField(event.Field)
		})
	}
	return ec, nil
}

// NewForStruct binds a pointer to a struct, deriving the schema from its
// tags (see model.FromStruct).
func NewForStruct(ptr any, opts ...Option) (*EditContext, error) {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("editstate: expected non-nil pointer to struct, got %T", ptr)
	}
	form, err := model.FromStruct(ptr)
	if err != nil {
		return nil, fmt.Errorf("editstate: %w", err)
	}
	return New(ptr, form, opts...)
}

// ID returns the identifier used in log entries.
func (ec *EditContext) ID() string { return ec.id }

// Model returns the bound model.
func (ec *EditContext) Model() any { return ec.model }

// Form returns the declared schema of the bound model.
func (ec *EditContext) Form() model.FormModel { return ec.form }

// Field returns the identifier of a field of the bound model.
func (ec *EditContext) Field(path string) model.FieldIdentifier {
	return model.FieldIdentifier{Model: ec.model, Field: path}
}

// Revision counts field changes; it is part of every async Ticket.
func (ec *EditContext) Revision() uint64 { return ec.revision }

// Closed reports whether Close was called.
func (ec *EditContext) Closed() bool { return ec.closed }

// DroppedNotifications counts events discarded because a drain exceeded the
// dispatch limit.
func (ec *EditContext) DroppedNotifications() int { return ec.dropped }

// MarkModified flags field as modified without notifying observers.
func (ec *EditContext) MarkModified(field model.FieldIdentifier) {
	if ec.closed {
		ec.logger.Debug("mark modified ignored on closed context", zap.String("field", field.Field))
		return
	}
	if err := model.CheckComparable(field.Model); err != nil {
		ec.logger.Warn("mark modified ignored", zap.String("field", field.Field), zap.Error(err))
		return
	}
	if _, ok := ec.modified[field]; ok {
		return
	}
	ec.modified[field] = struct{}{}
	ec.modifiedOrder = append(ec.modifiedOrder, field)
}

// IsModified reports whether field was marked modified.
func (ec *EditContext) IsModified(field model.FieldIdentifier) bool {
	if model.CheckComparable(field.Model) != nil {
		return false
	}
	_, ok := ec.modified[field]
	return ok
}

// IsAnyModified reports whether any field was marked modified.
func (ec *EditContext) IsAnyModified() bool {
	return len(ec.modified) > 0
}

// ModifiedFields lists modified fields in the order they were first marked.
func (ec *EditContext) ModifiedFields() []model.FieldIdentifier {
	return append([]model.FieldIdentifier(nil), ec.modifiedOrder...)
}

// MarkUnmodified clears the modified flag of field.
func (ec *EditContext) MarkUnmodified(field model.FieldIdentifier) {
	if !ec.IsModified(field) {
		return
	}
	delete(ec.modified, field)
	for i, candidate := range ec.modifiedOrder {
		if candidate == field {
			ec.modifiedOrder = append(ec.modifiedOrder[:i:i], ec.modifiedOrder[i+1:]...)
			break
		}
	}
}

// MarkAllUnmodified clears every modified flag, typically after a successful
// submit.
func (ec *EditContext) MarkAllUnmodified() {
	ec.modified = make(map[model.FieldIdentifier]struct{})
	ec.modifiedOrder = nil
}

// NotifyFieldChanged marks field modified and synchronously invokes the
// FieldChanged observers in registration order. Notifications raised while
// observers run are queued behind the current one.
func (ec *EditContext) NotifyFieldChanged(field model.FieldIdentifier) {
	if ec.closed {
		ec.logger.Debug("field change ignored on closed context", zap.String("field", field.Field))
		return
	}
	ec.MarkModified(field)
	ec.revision++
	ec.logger.Debug("field changed", zap.String("field", field.Field), zap.Uint64("revision", ec.revision))

	event := FieldChangedEvent{Context: ec, Field: field}
	ec.emit("field_changed", func() {
		deliver(&ec.fieldChanged, event)
	})
}

// Validate runs the context's validator against the current model and
// replaces the message store in a single swap. It returns true when the new
// store holds no messages.
func (ec *EditContext) Validate() bool {
	return ec.ValidateWith(ec.validator)
}

// ValidateWith is Validate with explicit rules. A nil validator clears all
// messages.
func (ec *EditContext) ValidateWith(v validation.Validator) bool {
	if ec.closed {
		ec.logger.Debug("validate ignored on closed context")
		return false
	}

	ec.emit("validation_requested", func() {
		deliver(&ec.validationRequested, ValidationRequestedEvent{Context: ec})
	})

	var failures []validation.Failure
	if v != nil {
		failures = v.Validate(ec.model)
	}
	next := NewMessageStore()
	ec.addFailures(next, failures)
	ec.store = next

	valid := next.Empty()
	ec.logger.Debug("validated", zap.Bool("valid", valid), zap.Int("messages", next.Len()))
	ec.emitStateChanged(valid)
	return valid
}

// ValidateField reruns the rules of one field (and its nested paths) and
// replaces only those messages. It returns true when the field has no
// messages afterwards.
func (ec *EditContext) ValidateField(field model.FieldIdentifier) bool {
	if ec.closed {
		return false
	}
	if model.CheckComparable(field.Model) != nil || field.Model != ec.model {
		ec.logger.Warn("field validation skipped", zap.String("field", field.Field), zap.Error(ErrForeignField))
		return false
	}

	failures := validation.ValidateField(ec.validator, ec.model, field.Field)
	next := ec.store.Clone()
	next.ClearTree(field)
	ec.addFailures(next, failures)
	ec.store = next

	ec.emitStateChanged(next.Empty())
	return len(next.Messages(field)) == 0
}

// Messages returns every message: field messages in insertion order, then
// model-level messages.
func (ec *EditContext) Messages() []Message {
	return ec.store.All()
}

// MessagesFor returns the messages attached to field.
func (ec *EditContext) MessagesFor(field model.FieldIdentifier) []string {
	if model.CheckComparable(field.Model) != nil {
		return nil
	}
	return ec.store.Messages(field)
}

// ModelMessages returns messages not associated with a field.
func (ec *EditContext) ModelMessages() []string {
	return ec.store.ModelMessages()
}

// IsValid reports whether field has no messages.
func (ec *EditContext) IsValid(field model.FieldIdentifier) bool {
	return len(ec.MessagesFor(field)) == 0
}

// Valid reports whether the store is empty.
func (ec *EditContext) Valid() bool {
	return ec.store.Empty()
}

// Store returns a copy of the current message store.
func (ec *EditContext) Store() *MessageStore {
	return ec.store.Clone()
}

// OnFieldChanged registers an observer for NotifyFieldChanged.
func (ec *EditContext) OnFieldChanged(fn func(FieldChangedEvent)) Subscription {
	return subscribe(ec, &ec.fieldChanged, fn)
}

// OnValidationRequested registers an observer invoked at the start of
// Validate.
func (ec *EditContext) OnValidationRequested(fn func(ValidationRequestedEvent)) Subscription {
	return subscribe(ec, &ec.validationRequested, fn)
}

// OnValidationStateChanged registers an observer invoked whenever the
// message store is replaced.
func (ec *EditContext) OnValidationStateChanged(fn func(ValidationStateChangedEvent)) Subscription {
	return subscribe(ec, &ec.stateChanged, fn)
}

func subscribe[E any](ec *EditContext, list *observers[E], fn func(E)) Subscription {
	if fn == nil || ec.closed {
		return subscriptionFunc(func() {})
	}
	return list.add(fn)
}

// Close discards the context: observers are dropped, pending notifications
// are abandoned, and further mutations are ignored.
func (ec *EditContext) Close() {
	if ec.closed {
		return
	}
	ec.closed = true
	ec.fieldChanged.reset()
	ec.validationRequested.reset()
	ec.stateChanged.reset()
	ec.queue = nil
	ec.logger.Debug("edit context closed")
}

func (ec *EditContext) emitStateChanged(valid bool) {
	event := ValidationStateChangedEvent{Context: ec, Valid: valid}
	ec.emit("validation_state_changed", func() {
		deliver(&ec.stateChanged, event)
	})
}

// addFailures writes failures into store, demoting messages whose path is
// not declared by the schema to model-level so they are not lost.
func (ec *EditContext) addFailures(store *MessageStore, failures []validation.Failure) {
	for _, failure := range failures {
		if failure.ModelLevel() {
			store.AddModel(failure.Message)
			continue
		}
		if !ec.form.Reachable(failure.Field) {
			ec.logger.Debug("demoting message for undeclared field", zap.String("field", failure.Field))
			store.AddModel(failure.Message)
			continue
		}
		store.Add(ec.Field(failure.Field), failure.Message)
	}
}
