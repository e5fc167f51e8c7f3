package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formstate/pkg/visibility"
)

type node interface {
	eval(ctx visibility.Context) (bool, error)
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) accept(k kind) (token, bool) {
	tok, ok := p.peek()
	if !ok || tok.kind != k {
		return token{}, false
	}
	p.pos++
	return tok, true
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.accept(kindOr); !ok {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orNode{left, right}
	}
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.accept(kindAnd); !ok {
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = andNode{left, right}
	}
}

func (p *parser) parseUnary() (node, error) {
	if _, ok := p.accept(kindNot); ok {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notNode{inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	if _, ok := p.accept(kindLParen); ok {
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, ok := p.accept(kindRParen); !ok {
			return nil, errors.New("visibility/expr: missing closing ')'")
		}
		return inner, nil
	}

	ident, ok := p.accept(kindIdent)
	if !ok {
		tok, more := p.peek()
		if !more {
			return nil, errors.New("visibility/expr: unexpected end of expression")
		}
		return nil, fmt.Errorf("visibility/expr: expected identifier, got %q", tok.text)
	}

	op, ok := p.accept(kindOp)
	if !ok {
		return truthyNode{path: ident.text}, nil
	}
	lit, ok := p.peek()
	if !ok {
		return nil, errors.New("visibility/expr: missing literal")
	}
	switch lit.kind {
	case kindString, kindNumber, kindBool, kindNull:
	case kindIdent:
		// bare words compare as strings
		lit.kind = kindString
	default:
		return nil, fmt.Errorf("visibility/expr: expected literal, got %q", lit.text)
	}
	p.pos++
	cmp := compareNode{path: ident.text, op: op.text, literal: lit}
	if lit.kind != kindNumber && op.text != "==" && op.text != "!=" {
		return nil, fmt.Errorf("visibility/expr: operator %q requires a number", op.text)
	}
	if lit.kind == kindNumber {
		value, err := strconv.ParseFloat(lit.text, 64)
		if err != nil {
			return nil, fmt.Errorf("visibility/expr: invalid number %q", lit.text)
		}
		cmp.number = value
	}
	return cmp, nil
}

type orNode struct{ left, right node }

func (n orNode) eval(ctx visibility.Context) (bool, error) {
	ok, err := n.left.eval(ctx)
	if err != nil || ok {
		return ok, err
	}
	return n.right.eval(ctx)
}

type andNode struct{ left, right node }

func (n andNode) eval(ctx visibility.Context) (bool, error) {
	ok, err := n.left.eval(ctx)
	if err != nil || !ok {
		return false, err
	}
	return n.right.eval(ctx)
}

type notNode struct{ inner node }

func (n notNode) eval(ctx visibility.Context) (bool, error) {
	ok, err := n.inner.eval(ctx)
	return !ok, err
}

type truthyNode struct{ path string }

func (n truthyNode) eval(ctx visibility.Context) (bool, error) {
	value, ok := resolve(ctx, n.path)
	return ok && truthy(value), nil
}

type compareNode struct {
	path    string
	op      string
	literal token
	number  float64
}

func (n compareNode) eval(ctx visibility.Context) (bool, error) {
	value, _ := resolve(ctx, n.path)

	var equal bool
	switch n.literal.kind {
	case kindNull:
		equal = value == nil
	case kindBool:
		equal = truthy(value) == (n.literal.text == "true")
	case kindString:
		equal = toString(value) == n.literal.text
	case kindNumber:
		got, _ := toNumber(value)
		switch n.op {
		case "<":
			return got < n.number, nil
		case "<=":
			return got <= n.number, nil
		case ">":
			return got > n.number, nil
		case ">=":
			return got >= n.number, nil
		}
		equal = got == n.number
	}
	if n.op == "!=" {
		return !equal, nil
	}
	return equal, nil
}

func resolve(ctx visibility.Context, path string) (any, bool) {
	if rest, ok := strings.CutPrefix(path, "extras."); ok {
		value, found := ctx.Extras[rest]
		return value, found
	}
	if ctx.Lookup == nil {
		return nil, false
	}
	return ctx.Lookup(path)
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return parsed
		}
		return strings.TrimSpace(v) != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}
	if n, ok := toNumber(value); ok {
		return n != 0
	}
	return true
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return parsed, err == nil
	}
	return 0, false
}

func toString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
