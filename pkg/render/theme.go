package render

import (
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// cssVariables flattens a theme selection's tokens into CSS custom
// properties. Variant tokens override the manifest's base tokens.
func cssVariables(selection *theme.Selection) map[string]string {
	if selection == nil || selection.Manifest == nil {
		return nil
	}

	vars := make(map[string]string)
	for token, value := range selection.Manifest.Tokens {
		vars[cssVarName(token)] = value
	}
	if variant, ok := selection.Manifest.Variants[selection.Variant]; ok {
		for token, value := range variant.Tokens {
			vars[cssVarName(token)] = value
		}
	}
	if len(vars) == 0 {
		return nil
	}
	return vars
}

func cssVarName(token string) string {
	name := strings.TrimSpace(token)
	name = strings.ReplaceAll(name, ".", "-")
	return "--" + strings.TrimPrefix(name, "--")
}

// inlineStyle serialises the variables into a deterministic style attribute
// value.
func inlineStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		if b.Len() > 0 {
			b.WriteString("; ")
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(vars[name])
	}
	return b.String()
}
