// Package ir is the resolved semantic representation of a specification.
// Lowering replaces reference wrappers with direct pointers, compiles type
// expressions to their structural types, and normalizes optional fields,
// so consumers never see a pending reference or a nil collection. Any two
// references to one identifier lower to the same instance.
package ir
