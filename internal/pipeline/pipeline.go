// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package pipeline drives a full compilation: load and expand the source,
// collect type declarations, parse the document, link references, lower
// to the semantic representation, and check semantic rules.
package pipeline

import (
	"context"

	"github.com/specialistvlad/flowspec/internal/check"
	"github.com/specialistvlad/flowspec/internal/ctxlog"
	"github.com/specialistvlad/flowspec/internal/dsl"
	"github.com/specialistvlad/flowspec/internal/ir"
	"github.com/specialistvlad/flowspec/internal/linker"
	"github.com/specialistvlad/flowspec/internal/source"
	"github.com/specialistvlad/flowspec/internal/typesys"
)

// Result carries the artifacts of one compilation.
type Result struct {
	// Parsed is the structural document before linking.
	Parsed *dsl.Document
	// Linked is the fully resolved document tree.
	Linked *dsl.Document
	// Lowered is the semantic representation handed to executors.
	Lowered *ir.Document
	// Types holds every custom type declared by the source.
	Types *typesys.Registry
}

// Options configures a compilation.
type Options struct {
	// MaxIncludeDepth bounds recursive include expansion; zero means the
	// loader default.
	MaxIncludeDepth int
	// SkipChecks parses, links and lowers without running semantic rules.
	SkipChecks bool
}

// Run compiles src, which is either literal YAML text or a URI, through
// every stage. The first failing stage aborts the run; the semantic
// checker reports all its violations at once.
func Run(ctx context.Context, src string, opts Options) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	loader := source.NewLoader()
	if opts.MaxIncludeDepth > 0 {
		loader.MaxIncludeDepth = opts.MaxIncludeDepth
	}
	root, loc, err := loader.Load(ctx, src)
	if err != nil {
		return nil, err
	}

	types := typesys.NewRegistry()
	if err := typesys.Collect(root, types); err != nil {
		return nil, err
	}
	logger.Debug("Collected type declarations.", "count", types.Len())

	parsed, err := dsl.ParseDocument(root, types, loc.Name)
	if err != nil {
		return nil, err
	}
	logger.Debug("Parsed document.", "type", parsed.Type.String())

	linked, err := linker.Link(parsed)
	if err != nil {
		return nil, err
	}
	logger.Debug("Linked document.")

	lowered, err := ir.NewResolver(types).Resolve(linked)
	if err != nil {
		return nil, err
	}
	logger.Debug("Lowered document to semantic form.")

	res := &Result{Parsed: parsed, Linked: linked, Lowered: lowered, Types: types}
	if opts.SkipChecks {
		return res, nil
	}
	if err := check.CheckDocument(lowered); err != nil {
		return nil, err
	}
	logger.Debug("Semantic checks passed.")
	return res, nil
}
