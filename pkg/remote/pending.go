package remote

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-formstate/pkg/editstate"
)

// Pending is an in-flight remote validation.
type Pending struct {
	ticket editstate.Ticket
	done   chan struct{}
	result Result
	err    error
}

// Start issues a ticket on ec and validates values on a new goroutine. When
// values is nil they are read from the bound model. Start must be called
// from the goroutine that owns ec; the request itself never touches ec.
func (c *Client) Start(ctx context.Context, ec *editstate.EditContext, values map[string]any) *Pending {
	p := &Pending{ticket: ec.BeginAsync(), done: make(chan struct{})}
	form := ec.Form()

	if values == nil {
		snapshot, err := Values(ec.Model())
		if err != nil {
			p.err = err
			close(p.done)
			return p
		}
		values = snapshot
	}

	go func() {
		defer close(p.done)
		p.result, p.err = c.Validate(ctx, form, values)
		if p.err != nil {
			c.logger.Warn("remote validation failed", zap.String("form", form.ID), zap.Error(p.err))
		}
	}()
	return p
}

// Ticket returns the ticket issued by Start.
func (p *Pending) Ticket() editstate.Ticket { return p.ticket }

// Done is closed once the request finished.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the request finished or ctx is done.
func (p *Pending) Wait(ctx context.Context) (Result, error) {
	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Apply waits for the result and merges it into ec. It returns
// editstate.ErrStaleResult when ec moved on since Start, and the request
// error when the call failed.
func (p *Pending) Apply(ec *editstate.EditContext) error {
	<-p.done
	if p.err != nil {
		return p.err
	}
	if err := ec.ApplyAsync(p.ticket, p.result.Failures()); err != nil {
		return fmt.Errorf("remote: apply: %w", err)
	}
	return nil
}
