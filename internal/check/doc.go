// Package check validates the semantic rules of a lowered application:
// per-kind step contracts, flow shape and dataflow ordering, credential
// completeness, and model kind requirements. All violations are collected
// in one pass rather than stopping at the first.
package check
