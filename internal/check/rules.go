// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package check

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/flowspec/internal/dsl"
	"github.com/specialistvlad/flowspec/internal/ir"
)

// Rule names, stable for tooling that filters diagnostics.
const (
	RuleAuthMethod     = "auth-method"
	RuleModelKind      = "model-kind"
	RuleFlowSize       = "flow-size"
	RuleDataflow       = "dataflow"
	RuleStepShape      = "step-shape"
	RulePromptArity    = "prompt-arity"
	RuleBranchShape    = "branch-shape"
	RuleFeedbackTarget = "feedback-target"
)

// minFlowSteps is the smallest flow that does any work: one step to take
// input and one to produce output.
const minFlowSteps = 2

func (c *checker) authProvider(a *ir.AuthProvider) {
	if a == nil || !c.enter(a) {
		return
	}
	path := "auth_providers." + a.ID

	complete := a.APIKey != "" || a.HasKeyPair() || a.SessionToken != ""
	if !complete {
		c.report(path, RuleAuthMethod, "no complete credential method: set api_key, the access key pair, or session_token")
	}
	if (a.AccessKeyID != "") != (a.SecretAccessKey != "") {
		c.report(path, RuleAuthMethod, "access_key_id and secret_access_key must be set together")
	}
	if a.RoleID != "" && !a.HasKeyPair() {
		c.report(path, RuleAuthMethod, "role_id requires the access key pair to assume the role")
	}
}

func (c *checker) model(m *ir.Model) {
	if m == nil || !c.enter(m) {
		return
	}
	c.authProvider(m.Auth)
}

func (c *checker) tool(t *ir.Tool) {
	if t == nil || !c.enter(t) {
		return
	}
	c.toolProvider(t.Provider)
}

func (c *checker) toolProvider(p *ir.ToolProvider) {
	if p == nil || !c.enter(p) {
		return
	}
	c.authProvider(p.Auth)
}

func (c *checker) prompt(p *ir.Prompt) {
	if p == nil || !c.enter(p) {
		return
	}
	if p.Template == "" {
		c.report("prompts."+p.ID, RuleStepShape, "prompt has no template")
	}
}

func (c *checker) retriever(rt *ir.Retriever) {
	if rt == nil || !c.enter(rt) {
		return
	}
	path := "retrievers." + rt.ID
	switch {
	case rt.Model == nil:
		c.report(path, RuleModelKind, "a retriever needs an embedding model")
	case rt.Model.Kind != dsl.ModelEmbedding:
		c.report(path, RuleModelKind, "model %q has kind %q, a retriever needs an embedding model", rt.Model.ID, rt.Model.Kind)
	default:
		c.model(rt.Model)
	}
}

func (c *checker) memory(m *ir.Memory) {
	if m == nil || !c.enter(m) {
		return
	}
	path := "memory." + m.ID
	if m.Kind != dsl.MemoryVector {
		c.model(m.Model)
		return
	}
	switch {
	case m.Model == nil:
		c.report(path, RuleModelKind, "vector memory needs an embedding model")
	case m.Model.Kind != dsl.ModelEmbedding:
		c.report(path, RuleModelKind, "model %q has kind %q, vector memory needs an embedding model", m.Model.ID, m.Model.Kind)
	default:
		c.model(m.Model)
	}
}

func (c *checker) feedback(f *ir.Feedback) {
	if f == nil || !c.enter(f) {
		return
	}
	if f.Flow == nil {
		c.report("feedback."+f.ID, RuleFeedbackTarget, "feedback must name the flow it rates")
		return
	}
	c.flow(f.Flow)
}

func (c *checker) flow(f *ir.Flow) {
	if f == nil || !c.enter(f) {
		return
	}
	path := "flows." + f.ID

	if len(f.Steps) < minFlowSteps {
		c.report(path, RuleFlowSize, "a flow needs at least %d steps, got %d", minFlowSteps, len(f.Steps))
	}

	// Dataflow runs in declared order: a step may only consume flow
	// inputs and outputs of steps before it.
	available := make(map[string]bool)
	for _, in := range f.Inputs {
		if in != nil {
			available[in.ID] = true
		}
	}
	for _, s := range f.Steps {
		if s == nil {
			continue
		}
		stepPath := path + ".steps." + s.ID
		for _, in := range s.Inputs {
			if in == nil || !in.Required {
				continue
			}
			if !available[in.ID] {
				c.report(stepPath, RuleDataflow, "input %q is not produced by the flow's inputs or any earlier step", in.ID)
			}
		}
		c.step(stepPath, s)
		for _, out := range s.Outputs {
			if out != nil {
				available[out.ID] = true
			}
		}
	}
	for _, out := range f.Outputs {
		if out != nil && out.Required && !available[out.ID] {
			c.report(path, RuleDataflow, "output %q is not produced by any step", out.ID)
		}
	}
}

func (c *checker) step(path string, s *ir.Step) {
	if !c.enter(s) {
		return
	}
	switch s.Kind {
	case dsl.StepLLM:
		if s.Model == nil {
			c.report(path, RuleStepShape, "an llm step needs a model")
		} else {
			c.model(s.Model)
		}
		c.promptOf(s)
		c.exactlyOne(path, RuleStepShape, "an llm step produces exactly 1 output", s.Outputs, true)
	case dsl.StepPromptTemplate:
		if s.Template == "" && s.Prompt == nil {
			c.report(path, RuleStepShape, "a prompt_template step needs a template or a prompt")
		}
		c.promptOf(s)
		c.exactlyOne(path, RulePromptArity, "a prompt_template step produces exactly 1 output", s.Outputs, true)
	case dsl.StepTool:
		if s.Tool == nil {
			c.report(path, RuleStepShape, "a tool step needs a tool")
		} else {
			c.tool(s.Tool)
		}
		c.exactlyOne(path, RuleStepShape, "a tool step produces exactly 1 output", s.Outputs, false)
	case dsl.StepRetrieval:
		if s.Retriever == nil {
			c.report(path, RuleStepShape, "a retrieval step needs a retriever")
		} else {
			c.retriever(s.Retriever)
		}
		c.exactlyOne(path, RuleStepShape, "a retrieval step consumes exactly 1 input", s.Inputs, true)
		c.exactlyOne(path, RuleStepShape, "a retrieval step produces exactly 1 output", s.Outputs, false)
	case dsl.StepFlow:
		if s.Flow == nil {
			c.report(path, RuleStepShape, "a flow step needs a flow to invoke")
		} else {
			c.flow(s.Flow)
		}
	case dsl.StepInputMessage:
		if n := len(s.Inputs); n > 0 {
			c.report(path, RuleStepShape, "an input_message step takes no inputs, got %d", n)
		}
		c.exactlyOne(path, RuleStepShape, "an input_message step produces exactly 1 output", s.Outputs, true)
	case dsl.StepOutputMessage:
		c.exactlyOne(path, RuleStepShape, "an output_message step consumes exactly 1 input", s.Inputs, true)
		if n := len(s.Outputs); n > 0 {
			c.report(path, RuleStepShape, "an output_message step produces no outputs, got %d", n)
		}
	case dsl.StepBranch:
		if s.Condition == "" {
			c.report(path, RuleBranchShape, "a branch step needs a condition")
		}
		if len(s.Branches) < 2 {
			c.report(path, RuleBranchShape, "a branch step needs at least 2 branches, got %d", len(s.Branches))
		}
	}
}

// exactlyOne enforces a one-variable contract on a step's inputs or
// outputs, optionally requiring the text type.
func (c *checker) exactlyOne(path, rule, what string, vars []*ir.Variable, wantText bool) {
	if n := len(vars); n != 1 {
		c.report(path, rule, "%s, got %d", what, n)
		return
	}
	if v := vars[0]; wantText && v != nil && !v.Type.Equals(cty.String) {
		c.report(path, rule, "%s of type text, got %s", what, typeName(v))
	}
}

// promptOf checks the prompt attached to a step, when there is one.
func (c *checker) promptOf(s *ir.Step) {
	c.prompt(s.Prompt)
}

// typeName names a variable's type for diagnostics, preferring the
// declared expression over the structural rendering.
func typeName(v *ir.Variable) string {
	if v.TypeName != "" {
		return v.TypeName
	}
	return fmt.Sprintf("%v", v.Type.FriendlyName())
}
