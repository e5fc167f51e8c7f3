package editstate

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/validation"
)

type signup struct {
	Name    string  `form:"name,required"`
	Email   string  `form:"email,required,format=email"`
	Address address `form:"address,nested"`
}

type address struct {
	City string `form:"city,required"`
}

func newSignupContext(t *testing.T, subject *signup, opts ...Option) *EditContext {
	t.Helper()
	ec, err := NewForStruct(subject, opts...)
	if err != nil {
		t.Fatalf("NewForStruct: %v", err)
	}
	t.Cleanup(ec.Close)
	return ec
}

func TestEditContext_ValidateRequiredField(t *testing.T) {
	subject := &signup{Email: "ada@example.com", Address: address{City: "London"}}
	ec := newSignupContext(t, subject)
	name := ec.Field("name")

	if ec.Validate() {
		t.Fatalf("expected validation to fail")
	}
	if diff := cmp.Diff([]string{"Name is required"}, ec.MessagesFor(name)); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
	if ec.IsValid(name) {
		t.Fatalf("name should be invalid")
	}

	subject.Name = "Ada"
	if !ec.Validate() {
		t.Fatalf("expected validation to pass, got %+v", ec.Messages())
	}
	if len(ec.MessagesFor(name)) != 0 || !ec.Valid() {
		t.Fatalf("expected empty store, got %+v", ec.Messages())
	}
}

func TestEditContext_NestedFailuresUseDottedPaths(t *testing.T) {
	subject := &signup{Name: "Ada", Email: "ada@example.com"}
	ec := newSignupContext(t, subject)

	ec.Validate()
	if diff := cmp.Diff([]string{"City is required"}, ec.MessagesFor(ec.Field("address.city"))); diff != "" {
		t.Fatalf("nested messages mismatch (-want +got):\n%s", diff)
	}
}

func TestEditContext_ModifiedTracking(t *testing.T) {
	ec := newSignupContext(t, &signup{})
	name, email := ec.Field("name"), ec.Field("email")

	if ec.IsAnyModified() {
		t.Fatalf("fresh context should be unmodified")
	}
	ec.MarkModified(email)
	ec.MarkModified(name)
	ec.MarkModified(email)

	want := []model.FieldIdentifier{email, name}
	if diff := cmp.Diff(want, ec.ModifiedFields()); diff != "" {
		t.Fatalf("modified fields mismatch (-want +got):\n%s", diff)
	}

	ec.Validate()
	if !ec.IsModified(name) {
		t.Fatalf("validate must not reset modified flags")
	}

	ec.MarkUnmodified(email)
	if ec.IsModified(email) || !ec.IsModified(name) {
		t.Fatalf("unexpected modified state %+v", ec.ModifiedFields())
	}
	ec.MarkAllUnmodified()
	if ec.IsAnyModified() {
		t.Fatalf("expected no modified fields")
	}
}

func TestEditContext_ModifiedFieldReportsFailingRule(t *testing.T) {
	subject := &signup{Email: "ada@example.com", Address: address{City: "London"}}
	ec := newSignupContext(t, subject)
	name, email := ec.Field("name"), ec.Field("email")

	ec.MarkModified(name)
	ec.MarkModified(email)
	if ec.Validate() {
		t.Fatalf("expected validation to fail")
	}
	if !ec.IsModified(name) {
		t.Fatalf("name should still be modified")
	}
	if diff := cmp.Diff([]string{"Name is required"}, ec.MessagesFor(name)); diff != "" {
		t.Fatalf("modified field messages mismatch (-want +got):\n%s", diff)
	}
	if got := ec.MessagesFor(email); len(got) != 0 {
		t.Fatalf("passing modified field should have no messages, got %v", got)
	}
}

func TestEditContext_ValidateIsIdempotent(t *testing.T) {
	subject := &signup{Email: "not-an-email"}
	form, err := model.FromStruct(subject)
	if err != nil {
		t.Fatalf("FromStruct: %v", err)
	}
	extra := validation.ValidatorFunc(func(any) []validation.Failure {
		return []validation.Failure{
			{Field: "nickname", Message: "Nickname is taken"},
			{Field: "name", Message: "Name is required"},
		}
	})
	ec, err := New(subject, form, WithValidator(validation.Compose(validation.MustCompile(form), extra)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(ec.Close)

	ec.Validate()
	first := ec.Messages()
	ec.Validate()
	second := ec.Messages()

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("messages changed between validations (-first +second):\n%s", diff)
	}
	want := []Message{
		{Field: ec.Field("name"), Text: "Name is required"},
		{Field: ec.Field("email"), Text: "Email must be a valid email address"},
		{Field: ec.Field("address.city"), Text: "City is required"},
		{Text: "Nickname is taken"},
	}
	if diff := cmp.Diff(want, second); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestEditContext_IdentifiersAreScopedToModel(t *testing.T) {
	first := &signup{}
	second := &signup{}
	ec := newSignupContext(t, first)

	ec.MarkModified(model.FieldIdentifier{Model: second, Field: "name"})
	if ec.IsModified(ec.Field("name")) {
		t.Fatalf("identifier of another model must not mark this model")
	}
	if ec.IsModified(model.FieldIdentifier{Model: map[string]any{}, Field: "name"}) {
		t.Fatalf("non comparable model should never be modified")
	}
}

func TestEditContext_RejectsNonComparableModel(t *testing.T) {
	form := model.FormModel{ID: "values", Fields: []model.Field{{Name: "name", Type: model.FieldTypeString}}}
	_, err := New(map[string]any{}, form)
	if !errors.Is(err, model.ErrModelNotComparable) {
		t.Fatalf("expected ErrModelNotComparable, got %v", err)
	}
}

func TestEditContext_ObserversRunInRegistrationOrder(t *testing.T) {
	ec := newSignupContext(t, &signup{})
	var calls []string
	for _, label := range []string{"first", "second", "third"} {
		label := label
		ec.OnFieldChanged(func(event FieldChangedEvent) {
			calls = append(calls, label+":"+event.Field.Field)
		})
	}

	ec.NotifyFieldChanged(ec.Field("name"))

	if diff := cmp.Diff([]string{"first:name", "second:name", "third:name"}, calls); diff != "" {
		t.Fatalf("call order mismatch (-want +got):\n%s", diff)
	}
	if !ec.IsModified(ec.Field("name")) {
		t.Fatalf("notify should mark the field modified")
	}
}

func TestEditContext_UnsubscribeTakesEffectImmediately(t *testing.T) {
	ec := newSignupContext(t, &signup{})
	var calls []string
	var second Subscription

	ec.OnFieldChanged(func(FieldChangedEvent) {
		calls = append(calls, "first")
		second.Unsubscribe()
	})
	second = ec.OnFieldChanged(func(FieldChangedEvent) {
		calls = append(calls, "second")
	})

	ec.NotifyFieldChanged(ec.Field("name"))
	ec.NotifyFieldChanged(ec.Field("name"))
	second.Unsubscribe()

	if diff := cmp.Diff([]string{"first", "first"}, calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestEditContext_SubscribeDuringDeliveryWaitsForNextEvent(t *testing.T) {
	ec := newSignupContext(t, &signup{})
	late := 0
	subscribed := false
	ec.OnFieldChanged(func(FieldChangedEvent) {
		if !subscribed {
			subscribed = true
			ec.OnFieldChanged(func(FieldChangedEvent) { late++ })
		}
	})

	ec.NotifyFieldChanged(ec.Field("name"))
	if late != 0 {
		t.Fatalf("late observer ran during the event that registered it")
	}
	ec.NotifyFieldChanged(ec.Field("name"))
	if late != 1 {
		t.Fatalf("expected late observer on next event, got %d calls", late)
	}
}

func TestEditContext_ReentrantValidateIsQueued(t *testing.T) {
	ec := newSignupContext(t, &signup{Email: "ada@example.com", Address: address{City: "Oslo"}})
	var log []string

	ec.OnFieldChanged(func(event FieldChangedEvent) {
		log = append(log, "A")
		valid := ec.Validate()
		log = append(log, fmt.Sprintf("A validated valid=%t messages=%d", valid, len(ec.MessagesFor(ec.Field("name")))))
	})
	ec.OnFieldChanged(func(FieldChangedEvent) {
		log = append(log, "B")
	})
	ec.OnValidationRequested(func(ValidationRequestedEvent) {
		log = append(log, "requested")
	})
	ec.OnValidationStateChanged(func(event ValidationStateChangedEvent) {
		log = append(log, fmt.Sprintf("state valid=%t", event.Valid))
	})

	ec.NotifyFieldChanged(ec.Field("name"))

	want := []string{
		"A",
		"A validated valid=false messages=1",
		"B",
		"requested",
		"state valid=false",
	}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Fatalf("dispatch order mismatch (-want +got):\n%s", diff)
	}
}

func TestEditContext_StateObserversSeeCompleteStore(t *testing.T) {
	ec := newSignupContext(t, &signup{})
	var seen []int
	ec.OnValidationStateChanged(func(event ValidationStateChangedEvent) {
		seen = append(seen, len(event.Context.Messages()))
	})

	ec.Validate()

	if diff := cmp.Diff([]int{3}, seen); diff != "" {
		t.Fatalf("observer saw partial store (-want +got):\n%s", diff)
	}
}

func TestEditContext_DispatchLimitDropsRunawayEvents(t *testing.T) {
	ec := newSignupContext(t, &signup{}, WithMaxDispatch(10))
	calls := 0
	ec.OnFieldChanged(func(event FieldChangedEvent) {
		calls++
		ec.NotifyFieldChanged(event.Field)
	})

	ec.NotifyFieldChanged(ec.Field("name"))

	if calls != 10 {
		t.Fatalf("expected 10 deliveries, got %d", calls)
	}
	if got := ec.DroppedNotifications(); got != 1 {
		t.Fatalf("expected 1 dropped notification, got %d", got)
	}
	if got := ec.Revision(); got != 11 {
		t.Fatalf("expected revision 11, got %d", got)
	}
}

func TestEditContext_UnknownFieldFailuresBecomeModelLevel(t *testing.T) {
	subject := &signup{}
	ec := newSignupContext(t, subject, WithValidator(validation.ValidatorFunc(func(any) []validation.Failure {
		return []validation.Failure{
			{Field: "ghost", Rule: "custom", Message: "Ghost field is broken"},
			{Rule: "custom", Message: "Form is incomplete"},
		}
	})))

	if ec.Validate() {
		t.Fatalf("expected invalid state")
	}
	if len(ec.MessagesFor(ec.Field("ghost"))) != 0 {
		t.Fatalf("unknown field should not hold messages")
	}
	if diff := cmp.Diff([]string{"Ghost field is broken", "Form is incomplete"}, ec.ModelMessages()); diff != "" {
		t.Fatalf("model messages mismatch (-want +got):\n%s", diff)
	}
}

func TestEditContext_ValidateWithNilClearsMessages(t *testing.T) {
	ec := newSignupContext(t, &signup{})
	ec.Validate()
	if !ec.ValidateWith(nil) || ec.Store().Len() != 0 {
		t.Fatalf("expected nil validator to clear the store")
	}
}

func TestEditContext_FieldValidationOnChange(t *testing.T) {
	subject := &signup{Address: address{City: "Rome"}}
	ec := newSignupContext(t, subject, WithFieldValidation())
	ec.Validate()

	subject.Name = "Ada"
	ec.NotifyFieldChanged(ec.Field("name"))

	if msgs := ec.MessagesFor(ec.Field("name")); len(msgs) != 0 {
		t.Fatalf("name messages should clear, got %v", msgs)
	}
	if diff := cmp.Diff([]string{"Email is required"}, ec.MessagesFor(ec.Field("email"))); diff != "" {
		t.Fatalf("email messages should remain (-want +got):\n%s", diff)
	}

	subject.Email = "nope"
	ec.NotifyFieldChanged(ec.Field("email"))
	if diff := cmp.Diff([]string{"Email must be a valid email address"}, ec.MessagesFor(ec.Field("email"))); diff != "" {
		t.Fatalf("email messages mismatch (-want +got):\n%s", diff)
	}
}

func TestEditContext_AsyncTickets(t *testing.T) {
	ec := newSignupContext(t, &signup{})
	remote := []validation.Failure{{Field: "email", Rule: "remote", Message: "Email is already registered"}}

	first := ec.BeginAsync()
	second := ec.BeginAsync()
	if err := ec.ApplyAsync(first, remote); !errors.Is(err, ErrStaleResult) {
		t.Fatalf("expected superseded ticket to be stale, got %v", err)
	}
	if err := ec.ApplyAsync(second, remote); err != nil {
		t.Fatalf("ApplyAsync: %v", err)
	}
	if diff := cmp.Diff([]string{"Email is already registered"}, ec.MessagesFor(ec.Field("email"))); diff != "" {
		t.Fatalf("async messages mismatch (-want +got):\n%s", diff)
	}

	third := ec.BeginAsync()
	ec.NotifyFieldChanged(ec.Field("email"))
	if err := ec.ApplyAsync(third, nil); !errors.Is(err, ErrStaleResult) {
		t.Fatalf("expected result computed before a change to be stale, got %v", err)
	}
}

func TestEditContext_Close(t *testing.T) {
	ec := newSignupContext(t, &signup{})
	calls := 0
	ec.OnFieldChanged(func(FieldChangedEvent) { calls++ })
	ticket := ec.BeginAsync()

	ec.Close()
	ec.Close()

	ec.NotifyFieldChanged(ec.Field("name"))
	if calls != 0 {
		t.Fatalf("closed context should not notify")
	}
	if ec.Validate() {
		t.Fatalf("closed context never reports valid")
	}
	if err := ec.ApplyAsync(ticket, nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	ec.OnFieldChanged(func(FieldChangedEvent) { calls++ }).Unsubscribe()
	if !ec.Closed() {
		t.Fatalf("expected Closed to report true")
	}
}
