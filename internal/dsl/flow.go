package dsl

// StepKind names the closed set of step behaviors.
type StepKind string

// Step kinds.
const (
	StepLLM            StepKind = "llm"
	StepPromptTemplate StepKind = "prompt_template"
	StepTool           StepKind = "tool"
	StepRetrieval      StepKind = "retrieval"
	StepFlow           StepKind = "flow"
	StepInputMessage   StepKind = "input_message"
	StepOutputMessage  StepKind = "output_message"
	StepBranch         StepKind = "branch"
)

// stepKinds is the closed set accepted by the parser.
var stepKinds = map[StepKind]bool{
	StepLLM:            true,
	StepPromptTemplate: true,
	StepTool:           true,
	StepRetrieval:      true,
	StepFlow:           true,
	StepInputMessage:   true,
	StepOutputMessage:  true,
	StepBranch:         true,
}

// Flow is an ordered sequence of steps with declared input and output
// variables. Steps may be inline or references to steps defined in another
// flow of the same namespace.
type Flow struct {
	ID          string            `yaml:"id"`
	Description string            `yaml:"description,omitempty"`
	Inputs      []*Ref[*Variable] `yaml:"inputs,omitempty"`
	Outputs     []*Ref[*Variable] `yaml:"outputs,omitempty"`
	Steps       []*Ref[*Step]     `yaml:"steps,omitempty"`
}

// ComponentID implements Component.
func (f *Flow) ComponentID() string { return f.ID }

// ComponentKind implements Component.
func (f *Flow) ComponentKind() Kind { return KindFlow }

// Step is one unit of work inside a flow. Kind selects which of the
// collaborator fields are meaningful; the semantic checker enforces the
// per-kind contracts.
type Step struct {
	ID   string   `yaml:"id"`
	Kind StepKind `yaml:"kind"`

	Model     *Ref[*Model]     `yaml:"model,omitempty"`
	Prompt    *Ref[*Prompt]    `yaml:"prompt,omitempty"`
	Template  string           `yaml:"template,omitempty"`
	Tool      *Ref[*Tool]      `yaml:"tool,omitempty"`
	Retriever *Ref[*Retriever] `yaml:"retriever,omitempty"`
	Flow      *Ref[*Flow]      `yaml:"flow,omitempty"`

	Inputs  []*Ref[*Variable] `yaml:"inputs,omitempty"`
	Outputs []*Ref[*Variable] `yaml:"outputs,omitempty"`

	Condition string            `yaml:"condition,omitempty"`
	Branches  map[string]string `yaml:"branches,omitempty"`
}

// ComponentID implements Component.
func (s *Step) ComponentID() string { return s.ID }

// ComponentKind implements Component.
func (s *Step) ComponentKind() Kind { return KindStep }
