// Package mermaid renders an assembled flowgraph.CallGraph into mermaid
// flowchart markup. Rendering is a pure function of the graph and the render
// options; it never re-parses source text and never mutates the graph, so the
// same graph can be replayed with different options.
package mermaid

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shjno191/graviti/internal/flowgraph"
)

// styleBlock is the fixed trailing set of style-class declarations appended
// to every diagram.
const styleBlock = `  classDef public fill:#f9f,stroke:#333,stroke-width:2px;
  classDef internal fill:#e1f5fe,stroke:#01579b,stroke-width:1px;
  classDef external fill:#ffe0b2,stroke:#e65100,stroke-width:1px,stroke-dasharray: 5 5;
  classDef decision fill:#fff9c4,stroke:#fbc02d,stroke-width:1px,shape:rhombus;
  classDef loop fill:#e8f5e9,stroke:#2e7d32,stroke-width:1px;
  classDef endNode fill:#fce4ec,stroke:#c62828,stroke-width:2px;
`

// Render produces flowchart markup and the deduplicated external-service
// list for the selected methods of graph. With a TargetMethod set it renders
// only that method (any visibility); otherwise it renders every public or
// protected method in ascending name order.
func Render(graph *flowgraph.CallGraph, opts flowgraph.RenderOptions) *flowgraph.DiagramResult {
	r := &renderer{graph: graph, opts: opts, externals: make(map[string]struct{})}
	r.out.WriteString("flowchart TD\n")

	targets := targetMethods(graph, opts.TargetMethod)

	if opts.CollapseDetails && opts.TargetMethod == "" {
		r.renderOverview(targets)
	} else {
		for _, name := range targets {
			r.renderMethodFlow(name)
		}
	}

	// External services come from the full flow tree of every targeted
	// method, untouched by the ignore filters, so a UI can always offer the
	// complete set as filter candidates.
	for _, name := range targets {
		r.collectExternals(graph.Flows[name])
	}

	r.out.WriteString(styleBlock)
	return &flowgraph.DiagramResult{
		Diagram:          r.out.String(),
		ExternalServices: sortedKeys(r.externals),
	}
}

// targetMethods resolves the method selector against the registry.
func targetMethods(graph *flowgraph.CallGraph, target string) []string {
	if target != "" {
		if _, ok := graph.Nodes[target]; ok {
			return []string{target}
		}
		return nil
	}
	var names []string
	for name, node := range graph.Nodes {
		if node.HasModifier("public") || node.HasModifier("protected") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// renderer holds the mutable state of one render pass: the node counter, the
// output under construction, and the external receivers seen so far. A fresh
// renderer per Render call keeps renders reproducible and independent.
type renderer struct {
	graph     *flowgraph.CallGraph
	opts      flowgraph.RenderOptions
	out       strings.Builder
	counter   int
	externals map[string]struct{}
}

func (r *renderer) nextID() string {
	r.counter++
	return fmt.Sprintf("N%d", r.counter)
}

// renderOverview emits one placeholder node per eligible method plus the
// caller→callee edges between them — the collapsed "who calls whom" view.
func (r *renderer) renderOverview(targets []string) {
	ids := make(map[string]string, len(targets))
	for _, name := range targets {
		id := r.nextID()
		ids[name] = id
		fmt.Fprintf(&r.out, "    %s([\"%s\"]):::public\n", id, name)
	}
	for _, caller := range targets {
		drawn := make(map[string]bool)
		for _, callee := range r.graph.Calls[caller] {
			calleeID, eligible := ids[callee]
			if !eligible || drawn[callee] {
				continue
			}
			drawn[callee] = true
			fmt.Fprintf(&r.out, "    %s --> %s\n", ids[caller], calleeID)
		}
	}
}

// renderMethodFlow renders one method as a subgraph: a start marker, the
// flow-step sequence, and an end marker fed by every remaining frontier node.
// Methods without a body (no flow entry) get only the start marker.
func (r *renderer) renderMethodFlow(name string) {
	fmt.Fprintf(&r.out, "  subgraph %s\n", name)
	r.out.WriteString("    direction TB\n")

	startID := r.nextID()
	fmt.Fprintf(&r.out, "    %s([\"%s\"]):::public\n", startID, name)

	if steps, hasBody := r.graph.Flows[name]; hasBody {
		frontier := r.renderSteps(steps, []string{startID}, "")
		endID := r.nextID()
		for _, prev := range frontier {
			fmt.Fprintf(&r.out, "    %s --> %s\n", prev, endID)
		}
		fmt.Fprintf(&r.out, "    %s([\"End of %s\"]):::endNode\n", endID, name)
	}

	r.out.WriteString("  end\n")
}

// renderSteps renders a step sequence depth-first, threading the frontier
// through it. The pending edge label is consumed by the first step that
// actually draws something; steps suppressed by the ignore filters leave both
// the frontier and the pending label untouched.
func (r *renderer) renderSteps(steps []flowgraph.FlowStep, frontier []string, pending string) []string {
	for _, step := range steps {
		next := r.renderStep(step, frontier, pending)
		if !sameIDs(next, frontier) {
			pending = ""
			frontier = next
		}
	}
	return frontier
}

func (r *renderer) renderStep(step flowgraph.FlowStep, frontier []string, pending string) []string {
	switch step.Kind {
	case flowgraph.StepCall:
		return r.renderCall(step, frontier, pending)
	case flowgraph.StepDecision:
		return r.renderDecision(step, frontier, pending)
	case flowgraph.StepLoop:
		return r.renderLoop(step, frontier, pending)
	case flowgraph.StepSwitch:
		return r.renderSwitch(step, frontier, pending)
	case flowgraph.StepReturn:
		return r.renderReturn(step, frontier, pending)
	}
	return frontier
}

func (r *renderer) renderCall(step flowgraph.FlowStep, frontier []string, pending string) []string {
	if step.External && r.suppressed(step) {
		return frontier
	}

	label := step.Name
	style := "internal"
	if step.External {
		label = "External: " + step.RawText
		style = "external"
	}

	id := r.nextID()
	fmt.Fprintf(&r.out, "    %s[\"%s\"]:::%s\n", id, r.label(label, step.Line), style)
	r.click(id, step.Offset)
	r.connect(frontier, id, pending)
	return []string{id}
}

func (r *renderer) renderDecision(step flowgraph.FlowStep, frontier []string, pending string) []string {
	id := r.nextID()
	fmt.Fprintf(&r.out, "    %s{\"%s\"}:::decision\n", id, r.label(step.Label, step.Line))
	r.click(id, step.Offset)
	r.connect(frontier, id, pending)

	yesExits := r.renderSteps(step.Yes, []string{id}, "Yes")
	noExits := []string{id}
	if len(step.No) > 0 {
		noExits = r.renderSteps(step.No, []string{id}, "No")
	}
	return append(yesExits, noExits...)
}

func (r *renderer) renderLoop(step flowgraph.FlowStep, frontier []string, pending string) []string {
	id := r.nextID()
	fmt.Fprintf(&r.out, "    %s{{\"%s\"}}:::loop\n", id, r.label(step.Label, step.Line))
	r.click(id, step.Offset)
	r.connect(frontier, id, pending)

	bodyExits := r.renderSteps(step.Body, []string{id}, "loop body")
	for _, exit := range bodyExits {
		if exit != id {
			fmt.Fprintf(&r.out, "    %s -.->|repeat| %s\n", exit, id)
		}
	}
	// The loop node is the sole forward continuation point.
	return []string{id}
}

func (r *renderer) renderSwitch(step flowgraph.FlowStep, frontier []string, pending string) []string {
	id := r.nextID()
	fmt.Fprintf(&r.out, "    %s{\"%s\"}:::decision\n", id, r.label(step.Label, step.Line))
	r.click(id, step.Offset)
	r.connect(frontier, id, pending)

	// Every case contributes its exit frontier, including empty cases whose
	// frontier is the switch node itself, so the fall-through path stays
	// drawable.
	var exits []string
	for _, c := range step.Cases {
		exits = append(exits, r.renderSteps(c.Steps, []string{id}, c.Label)...)
	}
	if len(exits) == 0 {
		exits = []string{id}
	}
	return exits
}

func (r *renderer) renderReturn(step flowgraph.FlowStep, frontier []string, pending string) []string {
	id := r.nextID()
	fmt.Fprintf(&r.out, "    %s[\"%s\"]\n", id, r.label(step.Label, step.Line))
	r.click(id, step.Offset)
	r.connect(frontier, id, pending)
	return []string{id}
}

// suppressed applies the ignore lists to an external call: a service matches
// on the raw invocation prefix or the whole receiver, a variable matches on
// the receiver or the receiver's leading segment.
func (r *renderer) suppressed(step flowgraph.FlowStep) bool {
	for _, svc := range r.opts.IgnoredServices {
		if svc == "" {
			continue
		}
		if strings.HasPrefix(step.RawText, svc) || step.Receiver == svc {
			return true
		}
	}
	for _, v := range r.opts.IgnoredVariables {
		if v == "" {
			continue
		}
		if step.Receiver == v || strings.HasPrefix(step.Receiver, v+".") {
			return true
		}
	}
	return false
}

// connect draws an edge from every frontier node to id, carrying the pending
// label on the first connection only.
func (r *renderer) connect(frontier []string, id, pending string) {
	for i, prev := range frontier {
		if i == 0 && pending != "" {
			fmt.Fprintf(&r.out, "    %s -->|%s| %s\n", prev, pending, id)
			continue
		}
		fmt.Fprintf(&r.out, "    %s --> %s\n", prev, id)
	}
}

func (r *renderer) click(id string, offset int) {
	fmt.Fprintf(&r.out, "    click %s call onNodeClick(\"offset-%d\") \"Scroll to source\"\n", id, offset)
}

// label makes a step label line-safe and, when source references are on,
// appends the originating line.
func (r *renderer) label(text string, line int) string {
	text = strings.ReplaceAll(strings.ReplaceAll(text, "\n", " "), `"`, "'")
	if r.opts.ShowSourceRef && line > 0 {
		return fmt.Sprintf("%s (L%d)", text, line)
	}
	return text
}

func (r *renderer) collectExternals(steps []flowgraph.FlowStep) {
	for _, step := range steps {
		if step.Kind == flowgraph.StepCall && step.External && step.Receiver != "" {
			r.externals[step.Receiver] = struct{}{}
		}
		r.collectExternals(step.Yes)
		r.collectExternals(step.No)
		r.collectExternals(step.Body)
		for _, c := range step.Cases {
			r.collectExternals(c.Steps)
		}
	}
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
