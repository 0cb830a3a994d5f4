// Package agent implements the manual ReAct reasoning loop at the heart of
// statbot: the model is prompted for free-text reasoning, an ACTION directive
// is parsed out of the response, dispatched to a registered tool, and the
// tool's observation is fed back into the conversation until the model emits
// a FINAL ANSWER or the iteration cap is reached.
package agent

import "context"

// ToolFunc is the callable behind a registered tool. Arguments arrive bound
// to their declared parameter names; the returned string is shown to the
// model verbatim as the observation.
type ToolFunc func(ctx context.Context, args map[string]string) (string, error)

// Param declares one positional tool parameter. A parameter with a Default
// is optional; missing trailing optional arguments are filled from defaults.
type Param struct {
	Name    string
	Default string
	// Required parameters have no default and must be supplied by the model.
	Required bool
}

// ToolSpec describes a registered tool. Immutable after registration.
type ToolSpec struct {
	Name    string
	Aliases []string
	Params  []Param
	Fn      ToolFunc
}

// Action is a tool invocation parsed from a model turn. Args are the raw
// argument strings in call order, unbound.
type Action struct {
	Tool string
	Args []string
}

// Turn records one loop iteration. Turns are created by the loop and never
// mutated afterwards.
type Turn struct {
	Index       int
	Output      string
	Action      *Action
	Observation string
	Terminal    bool
}

// Result is the final output of a session. Answer is never empty: when the
// loop exhausts its iterations it carries the ExhaustedAnswer sentinel.
type Result struct {
	Question   string
	Answer     string
	Turns      []Turn
	Iterations int
	Model      string
}

// ExhaustedAnswer is the sentinel answer used when the model never produced
// a final answer within the iteration limit.
const ExhaustedAnswer = "Could not reach final answer within iteration limit"
