package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formstate/pkg/editstate"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/remote"
	"github.com/goliatone/go-formstate/pkg/validation"
	"github.com/goliatone/go-formstate/pkg/visibility"
	"github.com/goliatone/go-formstate/pkg/visibility/expr"
)

// Session edits a schema-driven record in the terminal. Every answer is
// written to the record and reported to the edit context, which validates
// the field; fields with messages are asked again.
type Session struct {
	form   model.FormModel
	record *model.Record
	ec     *editstate.EditContext
	rules  *validation.RuleSet

	driver      PromptDriver
	output      OutputFormat
	prefill     map[string]any
	extras      map[string]any
	ruleOptions []validation.Option
	remote      *remote.Client
	maxRounds   int
	submit      SubmitTransformer
	theme       Theme
	logger      *zap.Logger
	visibility  *expr.Evaluator
}

// NewSession prepares a session for form. Without WithPromptDriver the
// session prompts on the process terminal.
func NewSession(form model.FormModel, opts ...Option) (*Session, error) {
	s := &Session{
		form:       form,
		output:     OutputFormatJSON,
		maxRounds:  DefaultMaxRounds,
		logger:     zap.NewNop(),
		visibility: expr.New(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver()
	}

	s.record = model.RecordFromDefaults(form)
	for key, value := range s.prefill {
		if err := s.record.SetValue(key, value); err != nil {
			return nil, fmt.Errorf("tui: prefill: %w", err)
		}
	}

	ruleOptions := append([]validation.Option{
		validation.WithVisibility(s.visibility),
		validation.WithExtras(s.extras),
	}, s.ruleOptions...)
	rules, err := validation.Compile(form, ruleOptions...)
	if err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}
	ec, err := editstate.New(s.record, form,
		editstate.WithFieldValidation(),
		editstate.WithValidator(rules),
		editstate.WithLogger(s.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}
	s.rules = rules
	s.ec = ec
	return s, nil
}

// Context returns the edit context tracking the session.
func (s *Session) Context() *editstate.EditContext { return s.ec }

// Record returns the edited record.
func (s *Session) Record() *model.Record { return s.record }

// Run prompts for every visible field, re-asks fields that fail validation
// and returns the serialized values once the form is valid.
func (s *Session) Run(ctx context.Context) ([]byte, error) {
	if s.ec.Closed() {
		return nil, editstate.ErrClosed
	}
	if s.form.Summary != "" {
		if err := s.info(ctx, s.form.Summary); err != nil {
			return nil, err
		}
	}
	if err := s.promptFields(ctx, s.form.Fields, ""); err != nil {
		return nil, err
	}

	for round := 0; ; round++ {
		valid, err := s.validate(ctx)
		if err != nil {
			return nil, err
		}
		if valid {
			break
		}
		if round >= s.maxRounds {
			s.logger.Info("form still invalid", zap.String("form", s.form.ID), zap.Int("messages", s.ec.Store().Len()))
			return nil, ErrInvalid
		}
		if err := s.reportInvalid(ctx); err != nil {
			return nil, err
		}
	}

	values := s.record.Snapshot()
	if values == nil {
		values = map[string]any{}
	}
	if s.submit != nil {
		transformed, err := s.submit(values)
		if err != nil {
			return nil, fmt.Errorf("tui: submit transformer: %w", err)
		}
		values = transformed
	}
	return serialize(s.output, values)
}

// validate runs local rules and, when they pass, the remote check.
func (s *Session) validate(ctx context.Context) (bool, error) {
	if !s.ec.Validate() {
		return false, nil
	}
	if s.remote == nil {
		return true, nil
	}
	pending := s.remote.Start(ctx, s.ec, s.record.Snapshot())
	if err := pending.Apply(s.ec); err != nil {
		return false, err
	}
	return s.ec.Valid(), nil
}

// reportInvalid prints the current messages and re-asks every field that
// holds one.
func (s *Session) reportInvalid(ctx context.Context) error {
	for _, msg := range s.ec.ModelMessages() {
		if err := s.errorf(ctx, "%s", msg); err != nil {
			return err
		}
	}
	for _, id := range s.ec.Store().Fields() {
		field, ok := s.form.Lookup(id.Field)
		if !ok {
			continue
		}
		for _, msg := range s.ec.MessagesFor(id) {
			if err := s.errorf(ctx, "%s", msg); err != nil {
				return err
			}
		}
		if err := s.promptField(ctx, field, id.Field); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) promptFields(ctx context.Context, fields []model.Field, prefix string) error {
	for _, field := range fields {
		path := model.JoinPath(prefix, field.Name)
		visible, err := s.visible(path, field)
		if err != nil {
			return err
		}
		if !visible {
			continue
		}
		if err := s.promptField(ctx, field, path); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) visible(path string, field model.Field) (bool, error) {
	rule := field.Metadata[model.MetadataVisibleWhen]
	if rule == "" {
		return true, nil
	}
	visible, err := s.visibility.Eval(path, rule, visibility.Context{
		Lookup: s.record.GetValue,
		Extras: s.extras,
	})
	if err != nil {
		return false, fmt.Errorf("tui: visibility of %q: %w", path, err)
	}
	return visible, nil
}

// promptField asks for a value until the field has no messages or the
// attempts run out; the final validation pass reports what remains.
func (s *Session) promptField(ctx context.Context, field model.Field, path string) error {
	switch field.Type {
	case model.FieldTypeObject:
		if len(field.Nested) > 0 {
			if err := s.info(ctx, field.DisplayLabel()); err != nil {
				return err
			}
			return s.promptFields(ctx, field.Nested, path)
		}
	case model.FieldTypeArray:
		if field.Items != nil && field.Items.Type == model.FieldTypeObject && len(field.Items.Nested) > 0 {
			return s.promptItems(ctx, field, path)
		}
	}

	id := s.ec.Field(path)
	for attempt := 0; attempt < s.maxRounds; attempt++ {
		value, err := s.ask(ctx, field, path)
		if err != nil {
			return err
		}
		if value != nil {
			if err := s.record.SetValue(path, value); err != nil {
				return fmt.Errorf("tui: %w", err)
			}
		}
		s.ec.NotifyFieldChanged(id)

		messages := s.ec.MessagesFor(id)
		if len(messages) == 0 {
			return nil
		}
		for _, msg := range messages {
			if err := s.errorf(ctx, "%s", msg); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Session) promptItems(ctx context.Context, field model.Field, path string) error {
	existing, _ := s.record.GetValue(path)
	count := len(asList(existing))
	for idx := 0; idx < count; idx++ {
		if err := s.promptFields(ctx, field.Items.Nested, model.JoinPath(path, strconv.Itoa(idx))); err != nil {
			return err
		}
	}
	for idx := count; ; idx++ {
		more, err := s.driver.Confirm(ctx, ConfirmConfig{
			Message: fmt.Sprintf("Add %s item?", field.DisplayLabel()),
			Help:    field.Description,
		})
		if err != nil {
			return err
		}
		if !more {
			break
		}
		if err := s.promptFields(ctx, field.Items.Nested, model.JoinPath(path, strconv.Itoa(idx))); err != nil {
			return err
		}
	}
	s.ec.NotifyFieldChanged(s.ec.Field(path))
	return nil
}

// ask returns the typed answer for a scalar or list field. A nil value
// leaves the record untouched.
func (s *Session) ask(ctx context.Context, field model.Field, path string) (any, error) {
	current, _ := s.record.GetValue(path)
	message := field.DisplayLabel()

	switch field.Type {
	case model.FieldTypeBoolean:
		def, _ := current.(bool)
		return s.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: def, Help: field.Description})

	case model.FieldTypeInteger, model.FieldTypeNumber:
		raw, err := s.driver.Input(ctx, InputConfig{
			Message:   message,
			Default:   textOf(current),
			Help:      field.Description,
			Validator: s.inputCheck(field, path),
		})
		if err != nil {
			return nil, err
		}
		return parseNumber(field.Type, raw), nil

	case model.FieldTypeArray:
		return s.askList(ctx, field, current)
	}

	if len(field.Enum) > 0 {
		options := enumOptions(field.Enum)
		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      options,
			DefaultIndex: indexOf(options, textOf(current)),
			Help:         field.Description,
		})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(field.Enum) {
			return nil, fmt.Errorf("tui: %s: selection %d out of range", path, idx)
		}
		return field.Enum[idx], nil
	}

	switch {
	case field.Format == "password":
		return s.driver.Password(ctx, InputConfig{
			Message:   message,
			Help:      field.Description,
			Validator: s.inputCheck(field, path),
		})
	case field.Metadata["input"] == "textarea":
		return s.driver.TextArea(ctx, TextAreaConfig{Message: message, Default: textOf(current), Help: field.Description})
	}
	return s.driver.Input(ctx, InputConfig{
		Message:     message,
		Default:     textOf(current),
		Help:        field.Description,
		Placeholder: field.Metadata["placeholder"],
		Validator:   s.inputCheck(field, path),
	})
}

// inputCheck runs the field's rules against a raw answer on a copy of the
// record, so prompts can refuse bad input before it is stored.
func (s *Session) inputCheck(field model.Field, path string) func(string) error {
	return func(raw string) error {
		var value any = raw
		if field.Type == model.FieldTypeInteger || field.Type == model.FieldTypeNumber {
			value = parseNumber(field.Type, raw)
		}
		scratch := model.NewRecord(s.record.Snapshot())
		if value != nil {
			if err := scratch.SetValue(path, value); err != nil {
				return err
			}
		}
		failures := s.rules.ValidateField(scratch, path)
		if len(failures) == 0 {
			return nil
		}
		messages := make([]string, 0, len(failures))
		for _, failure := range failures {
			messages = append(messages, failure.Message)
		}
		return errors.New(strings.Join(messages, "; "))
	}
}

func (s *Session) askList(ctx context.Context, field model.Field, current any) (any, error) {
	message := field.DisplayLabel()
	if field.Items != nil && len(field.Items.Enum) > 0 {
		options := enumOptions(field.Items.Enum)
		var defaults []int
		for _, item := range asList(current) {
			if idx := indexOf(options, textOf(item)); idx >= 0 {
				defaults = append(defaults, idx)
			}
		}
		picked, err := s.driver.MultiSelect(ctx, SelectConfig{
			Message:  message,
			Options:  options,
			Defaults: defaults,
			Help:     field.Description,
		})
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, len(picked))
		for _, idx := range picked {
			if idx >= 0 && idx < len(field.Items.Enum) {
				out = append(out, field.Items.Enum[idx])
			}
		}
		return out, nil
	}

	var parts []string
	for _, item := range asList(current) {
		parts = append(parts, textOf(item))
	}
	raw, err := s.driver.Input(ctx, InputConfig{
		Message: message + " (comma separated)",
		Default: strings.Join(parts, ", "),
		Help:    field.Description,
	})
	if err != nil {
		return nil, err
	}
	itemType := model.FieldTypeString
	if field.Items != nil {
		itemType = field.Items.Type
	}
	out := []any{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch itemType {
		case model.FieldTypeInteger, model.FieldTypeNumber:
			out = append(out, parseNumber(itemType, part))
		case model.FieldTypeBoolean:
			if b, err := strconv.ParseBool(part); err == nil {
				out = append(out, b)
				continue
			}
			out = append(out, part)
		default:
			out = append(out, part)
		}
	}
	return out, nil
}

func (s *Session) info(ctx context.Context, msg string) error {
	return s.driver.Info(ctx, s.theme.InfoPrefix+msg)
}

func (s *Session) errorf(ctx context.Context, format string, args ...any) error {
	return s.driver.Info(ctx, s.theme.ErrorPrefix+fmt.Sprintf(format, args...))
}

// parseNumber keeps unparsable input as text so the type rule reports it.
// Empty input yields nil.
func parseNumber(kind model.FieldType, raw string) any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if kind == model.FieldTypeInteger {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n
		}
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func enumOptions(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprint(v)
	}
	return out
}

func textOf(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

func asList(value any) []any {
	list, _ := value.([]any)
	return list
}

// IsAborted reports whether err means the user cancelled the session.
func IsAborted(err error) bool {
	return errors.Is(err, ErrAborted)
}
