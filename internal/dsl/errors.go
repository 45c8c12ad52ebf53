package dsl

import (
	"strings"
)

// FieldError is one typed-parsing diagnostic anchored at a field path.
type FieldError struct {
	Path string
	Msg  string
}

// String renders the diagnostic as "field.path: message".
func (e FieldError) String() string {
	if e.Path == "" {
		return e.Msg
	}
	return e.Path + ": " + e.Msg
}

// TypeErrors aggregates every surviving typed-parsing diagnostic for one
// document, rendered one per line and prefixed with the originating source
// name when known.
type TypeErrors struct {
	Source string
	Errors []FieldError
}

// Error implements the error interface for TypeErrors.
func (e *TypeErrors) Error() string {
	lines := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		if e.Source != "" {
			lines = append(lines, e.Source+": "+fe.String())
		} else {
			lines = append(lines, fe.String())
		}
	}
	return strings.Join(lines, "\n")
}

// filterErrors simplifies the raw diagnostic list before it surfaces:
// duplicates produced by the reference wrapper around a failing field are
// collapsed, and a shape-level diagnostic is dropped when a more specific
// one exists beneath the same path, since it only records that a sibling
// variant was tried.
func filterErrors(errs []FieldError) []FieldError {
	seen := make(map[FieldError]bool, len(errs))
	out := make([]FieldError, 0, len(errs))
	for _, e := range errs {
		if seen[e] {
			continue
		}
		seen[e] = true
		if isShapeNoise(e) && hasDeeperError(errs, e) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// isShapeNoise reports whether a diagnostic only describes a shape
// mismatch, the kind generated while a sibling union variant was tried.
func isShapeNoise(e FieldError) bool {
	return strings.HasPrefix(e.Msg, "expected a sequence") ||
		strings.HasPrefix(e.Msg, "expected a mapping") ||
		strings.Contains(e.Msg, "does not match any")
}

// hasDeeperError reports whether another diagnostic exists strictly below
// e's path.
func hasDeeperError(errs []FieldError, e FieldError) bool {
	for _, other := range errs {
		if other == e {
			continue
		}
		if e.Path == "" && other.Path != "" {
			return true
		}
		if other.Path != e.Path &&
			(strings.HasPrefix(other.Path, e.Path+".") || strings.HasPrefix(other.Path, e.Path+"[")) {
			return true
		}
	}
	return false
}
