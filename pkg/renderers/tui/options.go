package tui

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-formstate/pkg/remote"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// OutputFormat controls how collected values are serialized.
type OutputFormat string

const (
	// OutputFormatJSON emits application/json payloads.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatFormURLEncoded emits application/x-www-form-urlencoded payloads.
	OutputFormatFormURLEncoded OutputFormat = "form"
	// OutputFormatPrettyText emits a human-friendly text summary.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// DefaultMaxRounds bounds how often a field (and the whole form) is
// re-prompted while validation messages remain.
const DefaultMaxRounds = 3

// Theme captures optional prefixes the session applies when printing
// messages through the driver.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// SubmitTransformer mutates collected values before serialization.
type SubmitTransformer func(map[string]any) (map[string]any, error)

// Option configures a Session.
type Option func(*Session)

// WithPromptDriver overrides the prompt driver used by the session.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithOutputFormat selects the output serialization format.
func WithOutputFormat(format OutputFormat) Option {
	return func(s *Session) {
		if format != "" {
			s.output = format
		}
	}
}

// WithValues prefills the edited record.
func WithValues(values map[string]any) Option {
	return func(s *Session) {
		s.prefill = values
	}
}

// WithExtras exposes caller values to visibility rules via `extras.`.
func WithExtras(extras map[string]any) Option {
	return func(s *Session) {
		s.extras = extras
	}
}

// WithRuleOptions forwards options to the compiled rule set, for example
// validation.WithNestedAll.
func WithRuleOptions(opts ...validation.Option) Option {
	return func(s *Session) {
		s.ruleOptions = append(s.ruleOptions, opts...)
	}
}

// WithRemote validates the collected values against a remote endpoint once
// they pass local validation.
func WithRemote(client *remote.Client) Option {
	return func(s *Session) {
		s.remote = client
	}
}

// WithMaxRounds overrides DefaultMaxRounds.
func WithMaxRounds(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxRounds = n
		}
	}
}

// WithSubmitTransformer allows callers to mutate collected values prior to
// serialization.
func WithSubmitTransformer(fn SubmitTransformer) Option {
	return func(s *Session) {
		s.submit = fn
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(s *Session) {
		s.theme = theme
	}
}

// WithLogger sets the logger shared with the edit context.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}
