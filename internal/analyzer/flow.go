package analyzer

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/shjno191/graviti/internal/flowgraph"
)

const (
	maxLoopLabelLen = 60
	maxCaseLabelLen = 30
)

// extractFlow turns a method body into its ordered flow-step sequence.
// Statement kinds without an explicit rule fall through to a generic
// recursion over named children, so unfamiliar syntax degrades to the flows
// of whatever it contains instead of being dropped.
func (a *analysis) extractFlow(body *sitter.Node) []flowgraph.FlowStep {
	return a.extractStatements(body)
}

// extractStatements concatenates the flows of each named child in order.
func (a *analysis) extractStatements(node *sitter.Node) []flowgraph.FlowStep {
	steps := make([]flowgraph.FlowStep, 0)
	for i := 0; i < int(node.NamedChildCount()); i++ {
		steps = append(steps, a.extractStatement(node.NamedChild(i))...)
	}
	return steps
}

func (a *analysis) extractStatement(node *sitter.Node) []flowgraph.FlowStep {
	switch node.Type() {
	case "block", "constructor_body":
		return a.extractStatements(node)
	case "expression_statement", "local_variable_declaration":
		return a.callSteps(node)
	case "return_statement":
		return []flowgraph.FlowStep{a.returnStep(node)}
	case "if_statement":
		return a.ifSteps(node)
	case "for_statement", "while_statement", "do_statement", "enhanced_for_statement":
		return []flowgraph.FlowStep{a.loopStep(node)}
	case "switch_expression", "switch_statement":
		return []flowgraph.FlowStep{a.switchStep(node)}
	default:
		return a.extractStatements(node)
	}
}

// callSteps emits one Call step per invocation under node, in document order.
func (a *analysis) callSteps(node *sitter.Node) []flowgraph.FlowStep {
	invocations := a.findInvocations(node)
	steps := make([]flowgraph.FlowStep, 0, len(invocations))
	for _, inv := range invocations {
		steps = append(steps, flowgraph.FlowStep{
			Kind:     flowgraph.StepCall,
			Name:     inv.Name,
			External: inv.External,
			RawText:  inv.RawText,
			Receiver: inv.Receiver,
			Offset:   inv.Offset,
			Line:     inv.Line,
		})
	}
	return steps
}

// returnStep emits exactly one Return step carrying the statement's literal
// text. Calls inside the return expression stay part of the label; they are
// not surfaced as separate Call steps.
func (a *analysis) returnStep(node *sitter.Node) flowgraph.FlowStep {
	return flowgraph.FlowStep{
		Kind:   flowgraph.StepReturn,
		Label:  normalizeQuotes(a.nodeText(node)),
		Offset: int(node.StartByte()),
		Line:   int(node.StartPoint().Row) + 1,
	}
}

// ifSteps emits the condition's calls first, then one Decision step whose
// branches are the recursively-extracted consequence and alternative flows.
func (a *analysis) ifSteps(node *sitter.Node) []flowgraph.FlowStep {
	condition := node.ChildByFieldName("condition")

	var steps []flowgraph.FlowStep
	label := ""
	offset := int(node.StartByte())
	line := int(node.StartPoint().Row) + 1
	if condition != nil {
		steps = a.callSteps(condition)
		label = singleLine(a.nodeText(condition))
		offset = int(condition.StartByte())
		line = int(condition.StartPoint().Row) + 1
	}

	decision := flowgraph.FlowStep{
		Kind:   flowgraph.StepDecision,
		Label:  label,
		Offset: offset,
		Line:   line,
		Yes:    make([]flowgraph.FlowStep, 0),
		No:     make([]flowgraph.FlowStep, 0),
	}
	if consequence := node.ChildByFieldName("consequence"); consequence != nil {
		decision.Yes = a.extractStatement(consequence)
	}
	if alternative := node.ChildByFieldName("alternative"); alternative != nil {
		decision.No = a.extractStatement(alternative)
	}
	return append(steps, decision)
}

// loopStep normalizes all four loop kinds to a single step shape: a
// one-line header label plus the recursively-extracted body.
func (a *analysis) loopStep(node *sitter.Node) flowgraph.FlowStep {
	step := flowgraph.FlowStep{
		Kind:   flowgraph.StepLoop,
		Label:  truncate(a.loopLabel(node), maxLoopLabelLen),
		Offset: int(node.StartByte()),
		Line:   int(node.StartPoint().Row) + 1,
		Body:   make([]flowgraph.FlowStep, 0),
	}
	if body := node.ChildByFieldName("body"); body != nil {
		step.Body = a.extractStatement(body)
	}
	return step
}

func (a *analysis) loopLabel(node *sitter.Node) string {
	switch node.Type() {
	case "for_statement":
		var parts []string
		for _, field := range []string{"init", "condition", "update"} {
			if child := node.ChildByFieldName(field); child != nil {
				parts = append(parts, strings.TrimSuffix(strings.TrimSpace(a.nodeText(child)), ";"))
			}
		}
		return singleLine("for (" + strings.Join(parts, "; ") + ")")
	case "while_statement":
		if cond := node.ChildByFieldName("condition"); cond != nil {
			return singleLine("while " + a.nodeText(cond))
		}
		return "while (...)"
	case "do_statement":
		if cond := node.ChildByFieldName("condition"); cond != nil {
			return singleLine("do...while " + a.nodeText(cond))
		}
		return "do...while (...)"
	case "enhanced_for_statement":
		typeText := ""
		if t := node.ChildByFieldName("type"); t != nil {
			typeText = a.nodeText(t)
		}
		nameText := ""
		if n := node.ChildByFieldName("name"); n != nil {
			nameText = a.nodeText(n)
		}
		valueText := ""
		if v := node.ChildByFieldName("value"); v != nil {
			valueText = a.nodeText(v)
		}
		return singleLine("for (" + typeText + " " + nameText + " : " + valueText + ")")
	}
	return "loop"
}

// switchStep builds the switch label from the subject expression and one
// case entry per case group, preserving source order.
func (a *analysis) switchStep(node *sitter.Node) flowgraph.FlowStep {
	subject := "..."
	if cond := node.ChildByFieldName("condition"); cond != nil {
		subject = singleLine(a.nodeText(cond))
	}

	step := flowgraph.FlowStep{
		Kind:   flowgraph.StepSwitch,
		Label:  "switch " + subject,
		Offset: int(node.StartByte()),
		Line:   int(node.StartPoint().Row) + 1,
		Cases:  make([]flowgraph.SwitchCase, 0),
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return step
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		group := body.NamedChild(i)
		step.Cases = append(step.Cases, flowgraph.SwitchCase{
			Label: truncate(a.caseLabel(group), maxCaseLabelLen),
			Steps: a.caseSteps(group),
		})
	}
	return step
}

// caseLabel joins a case group's label tokens with ", ". Groups without a
// recognizable label (e.g. arrow-syntax rules) fall back to their first
// source line, then to the literal "case".
func (a *analysis) caseLabel(group *sitter.Node) string {
	var labels []string
	for i := 0; i < int(group.NamedChildCount()); i++ {
		child := group.NamedChild(i)
		if child.Type() == "switch_label" {
			labels = append(labels, strings.TrimSpace(a.nodeText(child)))
		}
	}
	if len(labels) > 0 {
		return singleLine(strings.Join(labels, ", "))
	}
	if first, _, found := strings.Cut(a.nodeText(group), "\n"); found || first != "" {
		if label := strings.TrimSpace(first); label != "" {
			return singleLine(label)
		}
	}
	return "case"
}

func (a *analysis) caseSteps(group *sitter.Node) []flowgraph.FlowStep {
	steps := make([]flowgraph.FlowStep, 0)
	for i := 0; i < int(group.NamedChildCount()); i++ {
		child := group.NamedChild(i)
		if child.Type() == "switch_label" {
			continue
		}
		steps = append(steps, a.extractStatement(child)...)
	}
	return steps
}

// singleLine makes text safe for a one-line diagram label.
func singleLine(s string) string {
	return normalizeQuotes(strings.ReplaceAll(s, "\n", " "))
}

func normalizeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, "'")
}

// truncate shortens a label to max characters, counting runes so multi-byte
// source text never gets cut mid-character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
