// Package source resolves a specification source, given either as literal
// YAML text or as a URI, into a substituted YAML node tree ready for typed
// parsing.
//
// Resolution covers three concerns:
//
//   - Retrieval: local files plus a pluggable set of URI scheme fetchers
//     (http, https, s3, github by default; see RegisterFetcher).
//
//   - Environment substitution: every string scalar is scanned for ${NAME}
//     and ${NAME:default} occurrences before any further interpretation.
//     Substituted scalars stay strings; the substituted text is never
//     re-parsed as YAML.
//
//   - Inclusion: the !include tag splices the target document (recursively
//     substituted and expanded) in place of the tagged scalar, while
//     !include_raw splices the target's raw text as a single string scalar.
//     Targets resolve relative to the including document's own location.
//     Expansion tracks the chain of visited locations and enforces a depth
//     bound, so an include cycle fails instead of recursing forever.
//
// Before any parsing, the loader consults a dotenv file in the working
// directory and, for local file targets, in the target's directory. Values
// found there augment the process environment but never override variables
// that are already set.
package source
