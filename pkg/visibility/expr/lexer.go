package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type kind int

const (
	kindIdent kind = iota
	kindString
	kindNumber
	kindBool
	kindNull
	kindOp
	kindAnd
	kindOr
	kindNot
	kindLParen
	kindRParen
)

type token struct {
	kind kind
	text string
}

var twoCharTokens = map[string]kind{
	"==": kindOp,
	"!=": kindOp,
	"<=": kindOp,
	">=": kindOp,
	"&&": kindAnd,
	"||": kindOr,
}

func lex(input string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(input); {
		ch := input[i]
		if unicode.IsSpace(rune(ch)) {
			i++
			continue
		}
		if i+1 < len(input) {
			if k, ok := twoCharTokens[input[i:i+2]]; ok {
				tokens = append(tokens, token{kind: k, text: input[i : i+2]})
				i += 2
				continue
			}
		}
		switch ch {
		case '(':
			tokens = append(tokens, token{kind: kindLParen, text: "("})
			i++
		case ')':
			tokens = append(tokens, token{kind: kindRParen, text: ")"})
			i++
		case '!':
			tokens = append(tokens, token{kind: kindNot, text: "!"})
			i++
		case '<', '>':
			tokens = append(tokens, token{kind: kindOp, text: string(ch)})
			i++
		case '=', '&', '|':
			return nil, fmt.Errorf("visibility/expr: unexpected %q at offset %d", ch, i)
		case '"', '\'':
			text, next, err := lexString(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: kindString, text: text})
			i = next
		default:
			start := i
			for i < len(input) && !strings.ContainsRune(" \t\r\n()!=<>&|", rune(input[i])) {
				i++
			}
			tokens = append(tokens, classifyWord(input[start:i]))
		}
	}
	return tokens, nil
}

func lexString(input string, start int) (string, int, error) {
	quote := input[start]
	escaped := false
	for i := start + 1; i < len(input); i++ {
		switch {
		case escaped:
			escaped = false
		case input[i] == '\\':
			escaped = true
		case input[i] == quote:
			raw := input[start+1 : i]
			if quote == '\'' {
				raw = strings.ReplaceAll(raw, `"`, `\"`)
				raw = strings.ReplaceAll(raw, `\'`, `'`)
			}
			text, err := strconv.Unquote(`"` + raw + `"`)
			if err != nil {
				return "", 0, fmt.Errorf("visibility/expr: invalid string literal: %w", err)
			}
			return text, i + 1, nil
		}
	}
	return "", 0, errors.New("visibility/expr: unterminated string literal")
}

func classifyWord(word string) token {
	switch strings.ToLower(word) {
	case "true", "false":
		return token{kind: kindBool, text: strings.ToLower(word)}
	case "null", "nil":
		return token{kind: kindNull, text: "null"}
	}
	if _, err := strconv.ParseFloat(word, 64); err == nil {
		return token{kind: kindNumber, text: word}
	}
	return token{kind: kindIdent, text: word}
}
