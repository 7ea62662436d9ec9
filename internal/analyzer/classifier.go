package analyzer

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Invocation is one call site found by the classifier.
type Invocation struct {
	// Name is the invoked method's simple name.
	Name string
	// External is false for calls resolvable inside the analyzed unit:
	// a bare call to a registered method, or any call through "this".
	External bool
	// RawText is the full invocation source text, receiver included.
	RawText string
	// Receiver is the receiver expression text ("" for bare calls).
	Receiver string
	// Offset is the invocation's start byte in the source text.
	Offset int
	// Line is the 1-based source line of the invocation.
	Line int
}

// findInvocations returns every invocation under node as a flat list in
// document order. Argument subtrees are visited, so nested calls such as
// a(b()) surface both a and b (outer first).
func (a *analysis) findInvocations(node *sitter.Node) []Invocation {
	var invocations []Invocation
	a.classify(node, &invocations)
	return invocations
}

func (a *analysis) classify(node *sitter.Node, out *[]Invocation) {
	if node.Type() == "method_invocation" {
		if inv, ok := a.classifyInvocation(node); ok {
			*out = append(*out, inv)
		}
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		a.classify(node.NamedChild(i), out)
	}
}

func (a *analysis) classifyInvocation(node *sitter.Node) (Invocation, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return Invocation{}, false
	}
	name := a.nodeText(nameNode)

	inv := Invocation{
		Name:    name,
		RawText: a.nodeText(node),
		Offset:  int(node.StartByte()),
		Line:    int(node.StartPoint().Row) + 1,
	}

	object := node.ChildByFieldName("object")
	switch {
	case object == nil:
		_, declared := a.registry[name]
		inv.External = !declared
	case a.nodeText(object) == "this":
		inv.External = false
	default:
		inv.External = true
		inv.Receiver = a.nodeText(object)
	}
	return inv, true
}
