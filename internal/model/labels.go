package model

import (
	"strings"
	"unicode"
)

// Labeler turns a field name or dotted field path into the label used in
// prompts and validation messages.
type Labeler func(name string) string

// acronyms are kept upper-case wherever they appear in a label.
var acronyms = map[string]string{
	"api":   "API",
	"cvv":   "CVV",
	"html":  "HTML",
	"http":  "HTTP",
	"https": "HTTPS",
	"iban":  "IBAN",
	"id":    "ID",
	"ip":    "IP",
	"json":  "JSON",
	"sku":   "SKU",
	"uri":   "URI",
	"url":   "URL",
	"uuid":  "UUID",
	"vat":   "VAT",
}

// DefaultLabeler labels the last named segment of a path, so "address.city"
// gives "City" and "lines.0.sku" gives "SKU". Words are split on
// underscores, dashes, spaces, camelCase and letter/digit boundaries; the
// first word is capitalised and the rest lower-cased ("postal_code" gives
// "Postal code", "userID" gives "User ID").
func DefaultLabeler(name string) string {
	words := labelWords(lastNamedSegment(name))
	if len(words) == 0 {
		return ""
	}
	for i, word := range words {
		if acronym, ok := acronyms[strings.ToLower(word)]; ok {
			words[i] = acronym
			continue
		}
		lower := []rune(strings.ToLower(word))
		if i == 0 {
			lower[0] = unicode.ToUpper(lower[0])
		}
		words[i] = string(lower)
	}
	return strings.Join(words, " ")
}

func lastNamedSegment(path string) string {
	segments := strings.Split(strings.TrimSpace(path), ".")
	for i := len(segments) - 1; i >= 0; i-- {
		segment := strings.TrimSpace(segments[i])
		if segment == "" || isIndex(segment) {
			continue
		}
		return segment
	}
	return ""
}

func isIndex(segment string) bool {
	for _, r := range segment {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return segment != ""
}

// labelWords splits name into words. An upper-case run followed by a
// lower-case letter ends one letter early ("HTMLBody" gives HTML, Body).
func labelWords(name string) []string {
	var (
		words   []string
		current []rune
	)
	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = current[:0]
		}
	}
	runes := []rune(name)
	for i, r := range runes {
		if r == '_' || r == '-' || unicode.IsSpace(r) {
			flush()
			continue
		}
		if i > 0 && len(current) > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			switch {
			case unicode.IsLower(prev) && unicode.IsUpper(r),
				unicode.IsLetter(prev) && unicode.IsDigit(r),
				unicode.IsDigit(prev) && unicode.IsLetter(r),
				unicode.IsUpper(prev) && unicode.IsUpper(r) && nextLower:
				flush()
			}
		}
		current = append(current, r)
	}
	flush()
	return words
}
