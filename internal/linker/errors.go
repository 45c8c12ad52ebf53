package linker

import (
	"fmt"

	"github.com/specialistvlad/flowspec/internal/dsl"
)

// DuplicateError reports two distinct component instances sharing one
// identifier. Both payloads are carried for the report.
type DuplicateError struct {
	ID     string
	First  dsl.Component
	Second dsl.Component
}

// Error implements the error interface for DuplicateError.
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate component id %q: already bound to %s %+v, redeclared as %s %+v",
		e.ID, e.First.ComponentKind(), e.First, e.Second.ComponentKind(), e.Second)
}

// NotFoundError reports a reference naming an identifier absent from the
// symbol table. Want is the expected target kind when statically known.
type NotFoundError struct {
	ID   string
	Want dsl.Kind
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	if e.Want != "" {
		return fmt.Sprintf("reference %q not found (expected a %s)", e.ID, e.Want)
	}
	return fmt.Sprintf("reference %q not found", e.ID)
}

// WrongKindError reports a reference resolving to a component of an
// unexpected kind.
type WrongKindError struct {
	ID   string
	Want dsl.Kind
	Got  dsl.Kind
}

// Error implements the error interface for WrongKindError.
func (e *WrongKindError) Error() string {
	return fmt.Sprintf("reference %q resolves to a %s, expected a %s", e.ID, e.Got, e.Want)
}
