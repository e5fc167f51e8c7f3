package render

import (
	"fmt"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// Theme is the resolved theme data passed to the summary template.
type Theme struct {
	Name    string
	Variant string
	Tokens  map[string]string
	CSSVars map[string]string
	Style   string
}

// TokenPrefix namespaces theme tokens turned into CSS custom properties.
const TokenPrefix = "--formstate-"

func resolveTheme(selector theme.ThemeSelector, name, variant string) (Theme, error) {
	if selector == nil {
		return Theme{}, nil
	}
	selection, err := selector.Select(name, variant)
	if err != nil {
		return Theme{}, fmt.Errorf("render: select theme %q: %w", name, err)
	}
	if selection == nil {
		return Theme{}, nil
	}

	out := Theme{Name: selection.Theme, Variant: selection.Variant}
	if selection.Manifest != nil && len(selection.Manifest.Tokens) > 0 {
		out.Tokens = make(map[string]string, len(selection.Manifest.Tokens))
		out.CSSVars = make(map[string]string, len(selection.Manifest.Tokens))
		for key, value := range selection.Manifest.Tokens {
			out.Tokens[key] = value
			out.CSSVars[TokenPrefix+cssName(key)] = value
		}
	}
	out.Style = cssVarsStyle(out.CSSVars)
	return out, nil
}

func cssName(token string) string {
	return strings.NewReplacer(".", "-", "_", "-", " ", "-").Replace(strings.ToLower(strings.TrimSpace(token)))
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, key := range keys {
		value := strings.NewReplacer(";", "", "\"", "", "<", "", ">", "").Replace(vars[key])
		fmt.Fprintf(&b, "%s: %s;", key, value)
	}
	return b.String()
}
