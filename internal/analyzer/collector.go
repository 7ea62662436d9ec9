package analyzer

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/shjno191/graviti/internal/flowgraph"
)

// declaration pairs a collected method name with its declaration node so the
// flow extractor can revisit the body after the registry is complete.
type declaration struct {
	name string
	node *sitter.Node
}

// collectDeclarations walks the tree once and builds the method registry.
// It recurses into class declarations and class bodies to reach nested and
// member declarations, and nowhere else. Method identity is the simple name:
// a later declaration with the same name overwrites the earlier one.
func (a *analysis) collectDeclarations(root *sitter.Node) []declaration {
	a.registry = make(map[string]flowgraph.MethodNode)
	var decls []declaration
	a.collect(root, &decls)
	return decls
}

func (a *analysis) collect(node *sitter.Node, decls *[]declaration) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "method_declaration", "constructor_declaration":
			a.collectMethod(child, decls)
		case "class_declaration", "class_body":
			a.collect(child, decls)
		}
	}
}

func (a *analysis) collectMethod(node *sitter.Node, decls *[]declaration) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := strings.TrimSpace(a.nodeText(nameNode))

	returnType := ""
	if t := node.ChildByFieldName("type"); t != nil {
		returnType = strings.TrimSpace(a.nodeText(t))
	}

	a.registry[name] = flowgraph.MethodNode{
		Name:       name,
		StartByte:  int(node.StartByte()),
		EndByte:    int(node.EndByte()),
		Modifiers:  a.collectModifiers(node),
		ReturnType: returnType,
	}
	*decls = append(*decls, declaration{name: name, node: node})
}

// collectModifiers extracts the modifier tokens of a declaration. It prefers
// the children of an explicit modifiers node; if the modifiers node has no
// children it falls back to the node's whole trimmed text as a single token.
// No modifiers node means no modifiers.
func (a *analysis) collectModifiers(node *sitter.Node) []string {
	modifiersNode := node.ChildByFieldName("modifiers")
	if modifiersNode == nil {
		for i := 0; i < int(node.NamedChildCount()); i++ {
			if child := node.NamedChild(i); child.Type() == "modifiers" {
				modifiersNode = child
				break
			}
		}
	}
	if modifiersNode == nil {
		return []string{}
	}

	mods := make([]string, 0, modifiersNode.ChildCount())
	for i := 0; i < int(modifiersNode.ChildCount()); i++ {
		mods = append(mods, strings.TrimSpace(a.nodeText(modifiersNode.Child(i))))
	}
	if len(mods) == 0 {
		mods = append(mods, strings.TrimSpace(a.nodeText(modifiersNode)))
	}
	return mods
}
