// Package analyzer turns a single Java source unit into a flowgraph.CallGraph:
// a method registry, a caller→callee adjacency, and a structured control-flow
// model per method body. It is the only package that touches the syntax tree;
// everything downstream (rendering, export, serving) consumes the CallGraph.
package analyzer

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/shjno191/graviti/internal/flowgraph"
)

// Parse analyzes Java source text and returns the assembled call graph.
// Each call creates its own parser and tree, so concurrent Parse calls on
// separate sources need no coordination. A source that cannot be turned into
// a tree at all is a hard failure; no partial graph is returned.
func Parse(source []byte) (*flowgraph.CallGraph, error) {
	sitterParser := sitter.NewParser()
	sitterParser.SetLanguage(java.GetLanguage())

	tree, err := sitterParser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing java source: %w", err)
	}

	a := &analysis{source: source}
	decls := a.collectDeclarations(tree.RootNode())

	graph := &flowgraph.CallGraph{
		Nodes: a.registry,
		Calls: make(map[string][]string, len(decls)),
		Flows: make(map[string][]flowgraph.FlowStep, len(decls)),
	}

	for _, decl := range decls {
		// Adjacency: every internally-resolved invocation anywhere in the
		// body, in document order, nested-argument calls included.
		calls := make([]string, 0)
		body := decl.node.ChildByFieldName("body")
		if body != nil {
			for _, inv := range a.findInvocations(body) {
				if !inv.External {
					if _, declared := a.registry[inv.Name]; declared {
						calls = append(calls, inv.Name)
					}
				}
			}
		}
		graph.Calls[decl.name] = calls

		if body != nil {
			graph.Flows[decl.name] = a.extractFlow(body)
		}
	}

	return graph, nil
}

// analysis carries the source text and the method registry through the
// collection, classification, and flow-extraction passes over one tree.
type analysis struct {
	source   []byte
	registry map[string]flowgraph.MethodNode
}

func (a *analysis) nodeText(node *sitter.Node) string {
	return node.Content(a.source)
}
