// internal/service/template_service.go
package service

import (
	"strings"
)

// TemplateVars are the substitution values available to DM templates.
type TemplateVars struct {
	Username string
	Comment  string
}

// RenderTemplate replaces every {username} and {comment} token in the
// template. Unknown tokens are left untouched, so rendering already
// rendered text is a no-op. An empty template renders to ""; callers treat
// that as "do not send".
func RenderTemplate(template string, vars TemplateVars) string {
	result := template
	result = strings.ReplaceAll(result, "{username}", vars.Username)
	result = strings.ReplaceAll(result, "{comment}", vars.Comment)
	return result
}
