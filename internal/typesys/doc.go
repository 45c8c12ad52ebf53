// Package typesys holds the custom type registry consulted during typed
// parsing and semantic checking.
//
// User-declared structural types are collected from any `types` section of a
// document tree (at any nesting level through `references`) and from
// list-shaped root documents whose every element carries a `properties` key.
// Declarations compile to cty object types with optional attributes, so a
// field declared with a custom domain type can be matched structurally
// rather than nominally.
//
// Type expressions follow a small closed grammar: the primitives string,
// text, number, integer, boolean and any; the constructors list(T) and
// map(T); and any declared type name.
package typesys
