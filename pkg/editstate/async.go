package editstate

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-formstate/pkg/validation"
)

// Ticket identifies one async validation request.
type Ticket struct {
	Seq      uint64
	Revision uint64
}

// BeginAsync issues a ticket for an async validation of the current model
// snapshot. Issuing a ticket supersedes every earlier one.
func (ec *EditContext) BeginAsync() Ticket {
	ec.asyncSeq++
	return Ticket{Seq: ec.asyncSeq, Revision: ec.revision}
}

// ApplyAsync merges the failures of an async validation into the store.
// Results from superseded tickets, or computed before a later field change,
// are rejected with ErrStaleResult and leave the store untouched.
func (ec *EditContext) ApplyAsync(ticket Ticket, failures []validation.Failure) error {
	if ec.closed {
		return ErrClosed
	}
	if ticket.Seq != ec.asyncSeq || ticket.Revision != ec.revision {
		ec.logger.Debug("discarding stale async result",
			zap.Uint64("ticket_seq", ticket.Seq),
			zap.Uint64("latest_seq", ec.asyncSeq),
			zap.Uint64("ticket_revision", ticket.Revision),
			zap.Uint64("revision", ec.revision),
		)
		return ErrStaleResult
	}

	next := ec.store.Clone()
	ec.addFailures(next, failures)
	ec.store = next
	ec.emitStateChanged(next.Empty())
	return nil
}
