package expr

import (
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-formstate/pkg/visibility"
)

// Evaluator is a small, dependency-free visibility evaluator. Rules are
// compiled once and cached, so it is safe to share across goroutines.
//
// Grammar:
//
//	expr    = or
//	or      = and { "||" and }
//	and     = unary { "&&" unary }
//	unary   = "!" unary | primary
//	primary = "(" expr ")" | ident [ op literal ]
//	op      = "==" | "!=" | "<" | "<=" | ">" | ">="
//
// Identifiers are dotted paths resolved through visibility.Context.Lookup;
// the `extras.` prefix reads visibility.Context.Extras instead. A bare
// identifier is tested for truthiness.
type Evaluator struct {
	cache sync.Map
}

// New constructs an Evaluator.
func New() *Evaluator { return &Evaluator{} }

var _ visibility.Evaluator = (*Evaluator)(nil)

// Eval compiles (or reuses) the rule and evaluates it. Empty rules are
// always visible.
func (e *Evaluator) Eval(_ string, rule string, ctx visibility.Context) (bool, error) {
	program, err := e.compile(rule)
	if err != nil {
		return false, err
	}
	if program == nil {
		return true, nil
	}
	return program.eval(ctx)
}

// Check reports a syntax error in rule without evaluating it.
func (e *Evaluator) Check(rule string) error {
	_, err := e.compile(rule)
	return err
}

// compile parses the rule, returning nil for an empty rule.
func (e *Evaluator) compile(rule string) (node, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return nil, nil
	}
	if cached, ok := e.cache.Load(trimmed); ok {
		return cached.(node), nil
	}
	tokens, err := lex(trimmed)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	program, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, fmt.Errorf("visibility/expr: unexpected token %q", p.tokens[p.pos].text)
	}
	e.cache.Store(trimmed, program)
	return program, nil
}
