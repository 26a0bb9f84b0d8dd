package mindmap

import (
	"regexp"
	"strings"
)

// The strips run in order and each assumes the previous already ran.
// They are deliberately lossy: the goal is to isolate the JSON payload,
// not to repair malformed JSON (the parser fails loudly on that).
var (
	leadingFenceRe  = regexp.MustCompile("^```[a-zA-Z]*\\s*")
	trailingFenceRe = regexp.MustCompile("```$")
	labelBraceRe    = regexp.MustCompile(`^[a-zA-Z]+\s*\n*\{`)
	leadingProseRe  = regexp.MustCompile(`(?s)^[^({\[]*([{\[])`)
)

// Normalize strips formatting noise from raw LLM text and returns the
// substring believed to contain exactly one JSON object or array:
// surrounding whitespace, markdown code fences (with optional language
// tag), a stray leading label like "json" before the opening brace, and
// any prose the model prepended before the first '{' or '['.
// Normalizing already-normalized text is a no-op.
func Normalize(raw string) string {
	text := strings.TrimSpace(raw)
	text = leadingFenceRe.ReplaceAllString(text, "")
	text = trailingFenceRe.ReplaceAllString(text, "")
	text = labelBraceRe.ReplaceAllString(text, "{")
	text = leadingProseRe.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}
