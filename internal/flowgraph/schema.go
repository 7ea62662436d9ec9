// Package flowgraph defines the data model shared between the Java analyzer
// and the diagram renderer: the method registry, the per-method control-flow
// step model, and the assembled call graph for one source unit.
package flowgraph

// MethodNode describes one declared method (or constructor) in the analyzed
// source unit. Identity is the simple name only: when two declarations share
// a name (overloads, same-named methods in nested classes), the declaration
// collected last overwrites the earlier one and call resolution cannot tell
// them apart. That collapsing is part of the contract, kept for parity with
// consumers that rely on it.
type MethodNode struct {
	Name       string   `json:"name" yaml:"name"`
	StartByte  int      `json:"start_byte" yaml:"start_byte"`
	EndByte    int      `json:"end_byte" yaml:"end_byte"`
	Modifiers  []string `json:"modifiers" yaml:"modifiers"`
	ReturnType string   `json:"return_type" yaml:"return_type"`
}

// HasModifier reports whether the method declares the given modifier token.
func (m MethodNode) HasModifier(mod string) bool {
	for _, v := range m.Modifiers {
		if v == mod {
			return true
		}
	}
	return false
}

// StepKind tags the variant of a FlowStep.
type StepKind string

const (
	StepCall     StepKind = "call"
	StepDecision StepKind = "decision"
	StepLoop     StepKind = "loop"
	StepSwitch   StepKind = "switch"
	StepReturn   StepKind = "return"
)

// FlowStep is one unit of control flow in a method body. The variant set is
// closed: the renderer switches exhaustively over Kind, and only the fields
// listed for each kind are populated.
//
//	StepCall:     Name, External, RawText, Receiver, Offset, Line
//	StepDecision: Label, Offset, Line, Yes, No
//	StepLoop:     Label, Offset, Line, Body
//	StepSwitch:   Label, Offset, Line, Cases
//	StepReturn:   Label, Offset, Line
type FlowStep struct {
	Kind     StepKind     `json:"kind" yaml:"kind"`
	Name     string       `json:"name,omitempty" yaml:"name,omitempty"`
	External bool         `json:"external,omitempty" yaml:"external,omitempty"`
	RawText  string       `json:"raw_text,omitempty" yaml:"raw_text,omitempty"`
	Receiver string       `json:"receiver,omitempty" yaml:"receiver,omitempty"`
	Label    string       `json:"label,omitempty" yaml:"label,omitempty"`
	Offset   int          `json:"offset" yaml:"offset"`
	Line     int          `json:"line" yaml:"line"`
	Yes      []FlowStep   `json:"yes,omitempty" yaml:"yes,omitempty"`
	No       []FlowStep   `json:"no,omitempty" yaml:"no,omitempty"`
	Body     []FlowStep   `json:"body,omitempty" yaml:"body,omitempty"`
	Cases    []SwitchCase `json:"cases,omitempty" yaml:"cases,omitempty"`
}

// SwitchCase is one case group of a switch step, in source order.
type SwitchCase struct {
	Label string     `json:"label" yaml:"label"`
	Steps []FlowStep `json:"steps" yaml:"steps"`
}

// CallGraph is the assembled analysis result for one source unit. It is
// created by Parse, read-only afterward, and is the only artifact the
// renderer consumes — rendering never goes back to the syntax tree.
type CallGraph struct {
	// Nodes maps method name to its declaration details.
	Nodes map[string]MethodNode `json:"nodes" yaml:"nodes"`
	// Calls maps caller name to internally-resolved callee names, duplicates
	// allowed, in the order the invocations were encountered (including calls
	// nested in argument lists).
	Calls map[string][]string `json:"calls" yaml:"calls"`
	// Flows maps method name to the ordered top-level flow steps of its body.
	Flows map[string][]FlowStep `json:"flows" yaml:"flows"`
}

// RenderOptions configures one render pass over a CallGraph.
type RenderOptions struct {
	// TargetMethod selects a single method to render. Empty means the default
	// "public surface" view: every public or protected method, by name.
	TargetMethod string `json:"target_method,omitempty"`
	// IgnoredVariables suppress external calls whose receiver matches a
	// variable name (e.g. "logger").
	IgnoredVariables []string `json:"ignored_variables,omitempty"`
	// IgnoredServices suppress external calls whose receiver matches a
	// service name (e.g. "System.out").
	IgnoredServices []string `json:"ignored_services,omitempty"`
	// CollapseDetails renders a one-node-per-method overview instead of
	// expanded bodies. Only effective when TargetMethod is empty.
	CollapseDetails bool `json:"collapse_details,omitempty"`
	// ShowSourceRef appends a " (L<line>)" suffix to every rendered label.
	ShowSourceRef bool `json:"show_source_ref,omitempty"`
}

// DiagramResult is the output of one render pass.
type DiagramResult struct {
	// Diagram is line-oriented mermaid flowchart markup.
	Diagram string `json:"diagram"`
	// ExternalServices lists the distinct external-call receiver prefixes
	// found in the targeted methods, regardless of active filters, so a UI
	// can offer them as filter candidates.
	ExternalServices []string `json:"external_services"`
}
