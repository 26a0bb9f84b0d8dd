package mindmap

import (
	"fmt"
	"strings"
)

// ParseError means the normalized text is neither valid JSON nor a
// recognizable literal structure. It keeps the raw and normalized text
// so the caller can inspect what the model actually returned.
type ParseError struct {
	Raw        string
	Normalized string
	Err        error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf(
		"failed to parse LLM output as JSON or literal structure: %v\nraw output:\n%s\ncleaned output:\n%s",
		e.Err, e.Raw, e.Normalized,
	)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError means the parsed structure violates the fixed
// {label, node, summary, children} schema. Path locates the offending
// node ("root -> children[2]" style) and Keys carries the key set the
// failure is about (all illegal keys at once, or the missing key).
type SchemaError struct {
	Path   string
	Keys   []string
	Reason string
}

func (e *SchemaError) Error() string {
	if len(e.Keys) > 0 {
		return fmt.Sprintf("invalid node at %s: %s (keys: %s)", e.Path, e.Reason, strings.Join(e.Keys, ", "))
	}
	return fmt.Sprintf("invalid node at %s: %s", e.Path, e.Reason)
}

// BuildError means the mapping passed schema validation but a value
// could not be turned into a tree node (wrong primitive type). It wraps
// the cause together with the offending mapping.
type BuildError struct {
	Node map[string]interface{}
	Err  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("failed to build mind map node: %v (node: %v)", e.Err, e.Node)
}

func (e *BuildError) Unwrap() error { return e.Err }
