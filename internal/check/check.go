// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package check

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/flowspec/internal/ir"
)

// Violation is one semantic rule failure at a specific place in the
// application.
type Violation struct {
	Path string
	Rule string
	Msg  string
}

// String renders the violation in "path: [rule] message" form.
func (v Violation) String() string {
	return fmt.Sprintf("%s: [%s] %s", v.Path, v.Rule, v.Msg)
}

// Violations aggregates every failure found in one checking pass.
type Violations []Violation

// Error renders all violations, one per line.
func (vs Violations) Error() string {
	lines := make([]string, 0, len(vs))
	for _, v := range vs {
		lines = append(lines, v.String())
	}
	return strings.Join(lines, "\n")
}

// Check validates an application and returns all rule violations found,
// or nil when the application is semantically valid.
func Check(app *ir.Application) error {
	c := &checker{seen: make(map[ir.Node]bool)}
	c.application(app)
	if len(c.violations) == 0 {
		return nil
	}
	return c.violations
}

// CheckDocument validates any lowered document. An application root is
// checked through its tree; a flat component list is checked element-wise.
func CheckDocument(doc *ir.Document) error {
	c := &checker{seen: make(map[ir.Node]bool)}
	c.application(doc.App)
	for _, m := range doc.Models {
		c.model(m)
	}
	for _, a := range doc.AuthProviders {
		c.authProvider(a)
	}
	for _, t := range doc.Tools {
		c.tool(t)
	}
	if len(c.violations) == 0 {
		return nil
	}
	return c.violations
}

// checker accumulates violations while walking the tree. Shared instances
// are checked once.
type checker struct {
	violations Violations
	seen       map[ir.Node]bool
}

func (c *checker) report(path, rule, format string, args ...any) {
	c.violations = append(c.violations, Violation{
		Path: path,
		Rule: rule,
		Msg:  fmt.Sprintf(format, args...),
	})
}

func (c *checker) enter(n ir.Node) bool {
	if n == nil || c.seen[n] {
		return false
	}
	c.seen[n] = true
	return true
}

func (c *checker) application(app *ir.Application) {
	if app == nil {
		return
	}
	for _, a := range app.AuthProviders {
		c.authProvider(a)
	}
	for _, m := range app.Models {
		c.model(m)
	}
	for _, t := range app.Tools {
		c.tool(t)
	}
	for _, p := range app.ToolProviders {
		c.toolProvider(p)
	}
	for _, p := range app.Prompts {
		c.prompt(p)
	}
	for _, rt := range app.Retrievers {
		c.retriever(rt)
	}
	for _, m := range app.Memory {
		c.memory(m)
	}
	for _, f := range app.Flows {
		c.flow(f)
	}
	for _, f := range app.Feedback {
		c.feedback(f)
	}
}
