package editstate

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-formstate/pkg/validation"
)

// DefaultMaxDispatch bounds the number of events delivered by one drain of
// the notification queue.
const DefaultMaxDispatch = 256

// Option configures an EditContext.
type Option func(*EditContext)

// WithValidator replaces the rule set compiled from the form schema.
func WithValidator(v validation.Validator) Option {
	return func(ec *EditContext) {
		ec.validator = v
	}
}

// WithRuleOptions forwards options to validation.Compile when the context
// compiles its own rule set.
func WithRuleOptions(opts ...validation.Option) Option {
	return func(ec *EditContext) {
		ec.ruleOptions = append(ec.ruleOptions, opts...)
	}
}

// WithFieldValidation revalidates a field whenever NotifyFieldChanged is
// called for it.
func WithFieldValidation() Option {
	return func(ec *EditContext) {
		ec.fieldValidation = true
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(ec *EditContext) {
		if logger != nil {
			ec.logger = logger
		}
	}
}

// WithMaxDispatch overrides DefaultMaxDispatch.
func WithMaxDispatch(n int) Option {
	return func(ec *EditContext) {
		if n > 0 {
			ec.maxDispatch = n
		}
	}
}

// WithID sets the identifier used in log entries. Defaults to a random UUID.
func WithID(id string) Option {
	return func(ec *EditContext) {
		if id != "" {
			ec.id = id
		}
	}
}
