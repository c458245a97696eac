// internal/service/template_service.go
package service

import (
	"html"
	"regexp"
	"strings"
)

// tokenPattern matches {{name}} and {{name|fallback text}} placeholders.
var tokenPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*(?:\|([^}]*))?\}\}`)

// RenderTemplate substitutes personalization tokens from the recipient's
// variables map. A missing variable falls back to the token's fallback text,
// or renders as empty string when none is given. When escapeHTML is set the
// substituted values are HTML-escaped, so recipient-supplied data cannot
// inject markup into an HTML body.
func RenderTemplate(template string, vars map[string]string, escapeHTML bool) string {
	return tokenPattern.ReplaceAllStringFunc(template, func(token string) string {
		groups := tokenPattern.FindStringSubmatch(token)
		name := groups[1]
		fallback := strings.TrimSpace(groups[2])

		value, ok := vars[name]
		if !ok || value == "" {
			value = fallback
		}
		if escapeHTML {
			value = html.EscapeString(value)
		}
		return value
	})
}
