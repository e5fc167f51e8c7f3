package editstate

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-formstate/pkg/model"
)

// FieldChangedEvent is raised by NotifyFieldChanged.
type FieldChangedEvent struct {
	Context *EditContext
	Field   model.FieldIdentifier
}

// ValidationRequestedEvent is raised at the start of Validate.
type ValidationRequestedEvent struct {
	Context *EditContext
}

// ValidationStateChangedEvent is raised after the message store was
// replaced.
type ValidationStateChangedEvent struct {
	Context *EditContext
	Valid   bool
}

// Subscription is returned by the On* registration methods. Unsubscribe is
// idempotent and takes effect immediately, even in the middle of a dispatch.
type Subscription interface {
	Unsubscribe()
}

type subscriptionFunc func()

func (fn subscriptionFunc) Unsubscribe() { fn() }

type observer[E any] struct {
	id     uint64
	fn     func(E)
	active bool
}

// observers keeps handlers in registration order.
type observers[E any] struct {
	nextID  uint64
	entries []*observer[E]
}

func (o *observers[E]) add(fn func(E)) Subscription {
	o.nextID++
	entry := &observer[E]{id: o.nextID, fn: fn, active: true}
	o.entries = append(o.entries, entry)
	return subscriptionFunc(func() {
		if !entry.active {
			return
		}
		entry.active = false
		for i, candidate := range o.entries {
			if candidate == entry {
				o.entries = append(o.entries[:i:i], o.entries[i+1:]...)
				return
			}
		}
	})
}

// snapshot returns the handlers registered right now; handlers added during
// delivery wait for the next event.
func (o *observers[E]) snapshot() []*observer[E] {
	return append([]*observer[E](nil), o.entries...)
}

func (o *observers[E]) reset() {
	for _, entry := range o.entries {
		entry.active = false
	}
	o.entries = nil
}

func deliver[E any](o *observers[E], event E) {
	for _, entry := range o.snapshot() {
		if entry.active {
			entry.fn(event)
		}
	}
}

// emit queues an event and, unless a dispatch is already running, drains the
// queue. Events raised by observers are therefore delivered after the
// current event completes and never nest.
func (ec *EditContext) emit(name string, delivery func()) {
	ec.queue = append(ec.queue, queuedEvent{name: name, deliver: delivery})
	if ec.dispatching {
		return
	}

	ec.dispatching = true
	defer func() {
		ec.dispatching = false
		ec.queue = nil
	}()

	delivered := 0
	for len(ec.queue) > 0 {
		if delivered >= ec.maxDispatch {
			dropped := len(ec.queue)
			ec.dropped += dropped
			ec.logger.Warn("notification limit reached, dropping queued events",
				zap.Int("limit", ec.maxDispatch),
				zap.Int("dropped", dropped),
				zap.String("next_event", ec.queue[0].name),
			)
			return
		}
		next := ec.queue[0]
		ec.queue = ec.queue[1:]
		delivered++
		next.deliver()
	}
}

type queuedEvent struct {
	name    string
	deliver func()
}
