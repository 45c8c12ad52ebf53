// Package dsl provides the typed Go representation of a flowspec document.
//
// A Document is one of a closed set of root shapes: an aggregate
// Application, or a flat list of a single component kind (models, tools,
// types, variables, authorization providers). Variant selection is by
// shape, first match wins, in that order.
//
// Components are the unit of identity: every one carries a process-unique
// string identifier. Anywhere a field may either embed a component inline
// or point at one declared elsewhere, the field holds a Ref, which the
// linker later resolves into a direct link.
//
// Typed decoding walks the substituted YAML node tree by hand rather than
// relying on struct decoding: every diagnostic carries the offending field
// path, unknown fields are rejected, and reference unions are
// discriminated by shape before decoding so sibling-variant noise never
// reaches the user. Declared variable types are validated against the
// custom type registry during the same pass.
package dsl
