package utils

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = bluemonday.StrictPolicy()

// StripTags removes every HTML element from a display field such as an
// author name. Text content survives entity-encoded, markup does not, so the
// result is already safe to embed.
func StripTags(input string) string {
	return stripPolicy.Sanitize(input)
}

// EscapeText encodes HTML special characters as entities. Comment bodies are
// escaped exactly once, here, before they are persisted; readers serve the
// stored value verbatim.
func EscapeText(input string) string {
	return html.EscapeString(input)
}
