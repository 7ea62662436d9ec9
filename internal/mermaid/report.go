package mermaid

import (
	"fmt"
	"strings"

	"github.com/shjno191/graviti/internal/flowgraph"
)

// MarkdownReport renders the selected methods as a markdown document with one
// mermaid fence per method, followed by the aggregated external-service list.
// The title is typically the analyzed file name.
func MarkdownReport(graph *flowgraph.CallGraph, opts flowgraph.RenderOptions, title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Method flows: %s\n", title)

	targets := targetMethods(graph, opts.TargetMethod)
	externals := make(map[string]struct{})

	for _, name := range targets {
		node := graph.Nodes[name]
		fmt.Fprintf(&b, "\n## %s\n\n", name)
		if len(node.Modifiers) > 0 || node.ReturnType != "" {
			fmt.Fprintf(&b, "`%s`\n\n", strings.TrimSpace(strings.Join(node.Modifiers, " ")+" "+node.ReturnType+" "+name))
		}

		methodOpts := opts
		methodOpts.TargetMethod = name
		methodOpts.CollapseDetails = false
		result := Render(graph, methodOpts)

		b.WriteString("```mermaid\n")
		b.WriteString(result.Diagram)
		b.WriteString("```\n")

		for _, svc := range result.ExternalServices {
			externals[svc] = struct{}{}
		}
	}

	if len(externals) > 0 {
		b.WriteString("\n## External services\n\n")
		for _, svc := range sortedKeys(externals) {
			fmt.Fprintf(&b, "- `%s`\n", svc)
		}
	}
	return b.String()
}
