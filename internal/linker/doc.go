// Package linker resolves every reference placeholder in a parsed document
// into a direct link to its target component.
//
// Linking is two passes over the tree. The first builds a single global
// symbol table: every component contained in a top-level collection of the
// Application (recursing into a flow's inline steps, inputs and outputs),
// then every nested sub-document's own table merged in, and finally the
// root itself under its own identifier. Registering an identifier already
// bound to a different component instance is a fatal duplicate; rebinding
// the identical instance is accepted silently, so duplicate detection does
// not depend on insertion order.
//
// The second pass is a pure transformation: it produces a new, fully
// resolved tree and leaves the parsed tree untouched. Resolution memoizes
// per identifier, so a component referenced from several places appears as
// one shared instance in the result, and re-linking an already linked tree
// reproduces it unchanged.
package linker
