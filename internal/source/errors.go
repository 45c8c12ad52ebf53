package source

import (
	"fmt"
	"regexp"
	"strconv"
)

// MissingEnvVarError reports a ${NAME} substitution for which the process
// environment has no value and the expression carries no default.
type MissingEnvVarError struct {
	Name string
}

// Error implements the error interface for MissingEnvVarError.
func (e *MissingEnvVarError) Error() string {
	return fmt.Sprintf("environment variable %q is not set and has no default", e.Name)
}

// LoadError reports a failure to retrieve or parse a specification source.
// Line and Column are 0-based and negative when the underlying failure does
// not carry a position.
type LoadError struct {
	Source string
	Line   int
	Column int
	Msg    string
	Err    error
}

// Error implements the error interface for LoadError.
func (e *LoadError) Error() string {
	s := e.Msg
	if e.Source != "" {
		if e.Line >= 0 {
			if e.Column >= 0 {
				return fmt.Sprintf("%s (in %s, line %d, column %d)", s, e.Source, e.Line, e.Column)
			}
			return fmt.Sprintf("%s (in %s, line %d)", s, e.Source, e.Line)
		}
		return fmt.Sprintf("%s (in %s)", s, e.Source)
	}
	return s
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// yamlLinePattern extracts the 1-based line number that yaml.v3 embeds in
// its syntax error strings; the parser exposes no structured position for
// them.
var yamlLinePattern = regexp.MustCompile(`yaml: line (\d+):`)

// newParseError wraps a yaml.v3 decode failure in a LoadError, recovering
// the line number from the error text when present.
func newParseError(src string, err error) *LoadError {
	line := -1
	if m := yamlLinePattern.FindStringSubmatch(err.Error()); m != nil {
		if n, convErr := strconv.Atoi(m[1]); convErr == nil {
			line = n - 1
		}
	}
	return &LoadError{
		Source: src,
		Line:   line,
		Column: -1,
		Msg:    "invalid YAML: " + err.Error(),
		Err:    err,
	}
}
