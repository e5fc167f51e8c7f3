package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/visibility"
	"github.com/goliatone/go-formstate/pkg/visibility/expr"
)

// Option configures rule compilation.
type Option func(*options)

type options struct {
	nested     map[string]struct{}
	nestedAll  bool
	visibility visibility.Evaluator
	extras     map[string]any
	custom     []customRule
	labeler    model.Labeler
}

type customRule struct {
	path string
	fn   RuleFunc
}

// WithNested opts the given object or array paths into nested validation in
// addition to fields flagged with validate.nested metadata.
func WithNested(paths ...string) Option {
	return func(o *options) {
		for _, path := range paths {
			if trimmed := strings.TrimSpace(path); trimmed != "" {
				o.nested[trimmed] = struct{}{}
			}
		}
	}
}

// WithNestedAll validates every nested object and array item.
func WithNestedAll() Option {
	return func(o *options) {
		o.nestedAll = true
	}
}

// WithVisibility overrides the evaluator used for visibleWhen rules.
func WithVisibility(evaluator visibility.Evaluator) Option {
	return func(o *options) {
		if evaluator != nil {
			o.visibility = evaluator
		}
	}
}

// WithLabeler labels fields that declare no label. It receives the dotted
// field path. Defaults to model.DefaultLabeler.
func WithLabeler(labeler model.Labeler) Option {
	return func(o *options) {
		if labeler != nil {
			o.labeler = labeler
		}
	}
}

// WithExtras exposes caller values to visibility rules via `extras.`.
func WithExtras(extras map[string]any) Option {
	return func(o *options) {
		o.extras = extras
	}
}

// WithRule attaches an ad-hoc rule to a declared field path. Custom rules run
// after the declared rules of that field.
func WithRule(path string, fn RuleFunc) Option {
	return func(o *options) {
		o.custom = append(o.custom, customRule{path: strings.TrimSpace(path), fn: fn})
	}
}

// RuleSet is the compiled, immutable rule list for one form. It is safe for
// concurrent use.
type RuleSet struct {
	form       model.FormModel
	entries    []*entry
	visibility visibility.Evaluator
	extras     map[string]any
}

var _ FieldValidator = (*RuleSet)(nil)

type entry struct {
	name        string
	path        string
	rules       []rule
	required    bool
	visibleWhen string
	children    []*entry
	// items holds per-element rules for opted-in arrays; item.name is empty
	// for scalar elements.
	items *entry
}

// Compile builds the RuleSet for form. By default only top-level fields are
// checked; nested objects and array items are compiled when opted in.
// Misconfigured rules (bad thresholds, invalid regexes, unknown formats,
// malformed visibility expressions) are reported here.
func Compile(form model.FormModel, opts ...Option) (*RuleSet, error) {
	cfg := options{nested: make(map[string]struct{}), labeler: model.DefaultLabeler}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.visibility == nil {
		cfg.visibility = expr.New()
	}

	c := compiler{cfg: cfg}
	entries, err := c.fields(form.Fields, "")
	if err != nil {
		return nil, err
	}

	byPath := make(map[string]*entry)
	indexEntries(entries, byPath)
	for _, custom := range cfg.custom {
		target, ok := byPath[custom.path]
		if !ok {
			return nil, fmt.Errorf("validation: custom rule for unknown field %q", custom.path)
		}
		fn := custom.fn
		target.rules = append(target.rules, rule{kind: "custom", check: func(value any, _ bool) (string, bool) {
			return fn(value)
		}})
	}

	return &RuleSet{
		form:       form,
		entries:    entries,
		visibility: cfg.visibility,
		extras:     cfg.extras,
	}, nil
}

// MustCompile is Compile that panics on error, for package-level rule sets.
func MustCompile(form model.FormModel, opts ...Option) *RuleSet {
	rs, err := Compile(form, opts...)
	if err != nil {
		panic(err)
	}
	return rs
}

// Form returns the schema the rule set was compiled from.
func (rs *RuleSet) Form() model.FormModel {
	if rs == nil {
		return model.FormModel{}
	}
	return rs.form
}

// Validate runs every compiled rule in declaration order.
func (rs *RuleSet) Validate(m any) []Failure {
	if rs == nil {
		return nil
	}
	run := rs.newRun(m)
	for _, e := range rs.entries {
		run.entry(e, "")
	}
	return run.out
}

// ValidateField runs the rules of path and everything nested below it.
func (rs *RuleSet) ValidateField(m any, path string) []Failure {
	if rs == nil {
		return nil
	}
	segments := strings.Split(strings.TrimSpace(path), ".")
	run := rs.newRun(m)
	rs.validatePath(run, rs.entries, "", segments)
	return run.out
}

func (rs *RuleSet) validatePath(run *runner, entries []*entry, prefix string, segments []string) {
	if len(segments) == 0 {
		return
	}
	for _, e := range entries {
		if e.name != segments[0] {
			continue
		}
		if len(segments) == 1 {
			run.entry(e, prefix)
			return
		}
		base := joinPath(prefix, e.name)
		if e.items != nil {
			if idx, err := strconv.Atoi(segments[1]); err == nil {
				itemPath := joinPath(base, strconv.Itoa(idx))
				if len(segments) == 2 {
					run.item(e.items, itemPath)
					return
				}
				rs.validatePath(run, e.items.children, itemPath, segments[2:])
				return
			}
		}
		rs.validatePath(run, e.children, base, segments[1:])
		return
	}
}

func (rs *RuleSet) newRun(m any) *runner {
	return &runner{
		rs:    rs,
		model: m,
		lookup: func(path string) (any, bool) {
			return Lookup(m, path)
		},
	}
}

type runner struct {
	rs     *RuleSet
	model  any
	lookup func(string) (any, bool)
	out    []Failure
}

func (r *runner) visible(e *entry, path string) bool {
	if e.visibleWhen == "" {
		return true
	}
	ok, err := r.rs.visibility.Eval(path, e.visibleWhen, visibility.Context{
		Lookup: r.lookup,
		Extras: r.rs.extras,
	})
	if err != nil {
		r.out = append(r.out, Failure{Rule: "visibility", Message: fmt.Sprintf("visibility rule for %s: %v", path, err)})
		return false
	}
	return ok
}

func (r *runner) entry(e *entry, prefix string) {
	path := joinPath(prefix, e.name)
	r.check(e, path)
}

func (r *runner) item(e *entry, path string) {
	r.check(e, path)
}

func (r *runner) check(e *entry, path string) {
	if !r.visible(e, path) {
		return
	}
	value, present := r.lookup(path)
	empty := isEmpty(value, present)
	for _, rl := range e.rules {
		if rl.kind != ruleRequired && empty {
			continue
		}
		if message, ok := rl.check(value, present); !ok {
			r.out = append(r.out, Failure{Field: path, Rule: rl.kind, Message: message})
			if rl.kind == ruleRequired || rl.kind == ruleType {
				break
			}
		}
	}
	if empty {
		return
	}
	for _, child := range e.children {
		r.entry(child, path)
	}
	if e.items != nil {
		for idx := range toList(value) {
			itemPath := joinPath(path, strconv.Itoa(idx))
			r.check(e.items, itemPath)
		}
	}
}

type compiler struct {
	cfg options
}

func (c *compiler) fields(fields []model.Field, prefix string) ([]*entry, error) {
	out := make([]*entry, 0, len(fields))
	for _, field := range fields {
		e, err := c.field(field, joinPath(prefix, field.Name))
		if err != nil {
			return nil, err
		}
		e.name = field.Name
		out = append(out, e)
	}
	return out, nil
}

func (c *compiler) field(field model.Field, path string) (*entry, error) {
	label := field.Label
	if label == "" {
		label = c.cfg.labeler(path)
	}
	if label == "" {
		label = "Value"
	}

	e := &entry{
		path:        path,
		required:    field.Required,
		visibleWhen: strings.TrimSpace(field.Metadata[model.MetadataVisibleWhen]),
	}
	if e.visibleWhen != "" {
		if checker, ok := c.cfg.visibility.(interface{ Check(string) error }); ok {
			if err := checker.Check(e.visibleWhen); err != nil {
				return nil, fmt.Errorf("validation: field %q: %w", path, err)
			}
		}
	}

	if field.Required {
		e.rules = append(e.rules, requiredRule(label, ""))
	}
	if typed, ok := typeRule(field, label); ok {
		e.rules = append(e.rules, typed)
	}
	if len(field.Enum) > 0 {
		e.rules = append(e.rules, enumRule(field.Enum, label))
	}
	hasFormat := false
	for _, spec := range field.Validations {
		if spec.Kind == model.ValidationRuleFormat {
			hasFormat = true
		}
		compiled, err := compileRule(spec, field, label)
		if err != nil {
			return nil, err
		}
		e.rules = append(e.rules, compiled)
	}
	if !hasFormat && KnownFormat(field.Format) {
		compiled, err := compileRule(model.ValidationRule{
			Kind:   model.ValidationRuleFormat,
			Params: map[string]string{"value": field.Format},
		}, field, label)
		if err != nil {
			return nil, err
		}
		e.rules = append(e.rules, compiled)
	}

	if !c.nestedEnabled(field, path) {
		return e, nil
	}
	if len(field.Nested) > 0 {
		children, err := c.fields(field.Nested, path)
		if err != nil {
			return nil, err
		}
		e.children = children
	}
	if field.Items != nil {
		itemField := *field.Items
		if itemField.Label == "" {
			itemField.Label = label
		}
		item, err := c.field(itemField, path)
		if err != nil {
			return nil, err
		}
		e.items = item
	}
	return e, nil
}

func (c *compiler) nestedEnabled(field model.Field, path string) bool {
	if c.cfg.nestedAll || field.NestedOptIn() {
		return true
	}
	_, ok := c.cfg.nested[path]
	return ok
}

func indexEntries(entries []*entry, dest map[string]*entry) {
	for _, e := range entries {
		dest[e.path] = e
		indexEntries(e.children, dest)
		if e.items != nil {
			indexEntries(e.items.children, dest)
		}
	}
}

func joinPath(parent, child string) string {
	return model.JoinPath(parent, child)
}
