package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/shjno191/graviti/internal/flowgraph"
	"github.com/shjno191/graviti/internal/mermaid"
)

func newRenderCmd() *cobra.Command {
	var (
		method         string
		ignoreVars     []string
		ignoreServices []string
		collapse       bool
		sourceRefs     bool
		format         string
		outPath        string
		interactive    bool
		noCache        bool
	)

	cmd := &cobra.Command{
		Use:   "render <file.java>",
		Short: "Render flow diagrams for a Java source file",
		Long: `Render mermaid flowchart diagrams for the methods of a Java source file.

Without --method, every public or protected method is rendered. Output
formats:
  mermaid    raw flowchart markup (default)
  markdown   a report with one mermaid fence per method
  json       the diagram plus the detected external services`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			graph, _, err := analyzeFile(cfg, args[0], noCache)
			if err != nil {
				return err
			}

			opts := baseOptions(cfg)
			opts.TargetMethod = method
			opts.IgnoredVariables = append(opts.IgnoredVariables, ignoreVars...)
			opts.IgnoredServices = append(opts.IgnoredServices, ignoreServices...)
			if cmd.Flags().Changed("collapse") {
				opts.CollapseDetails = collapse
			}
			if cmd.Flags().Changed("source-refs") {
				opts.ShowSourceRef = sourceRefs
			}

			if interactive && opts.TargetMethod == "" {
				selected, err := pickMethod(graph.Nodes)
				if err != nil {
					return err
				}
				opts.TargetMethod = selected
			}
			if opts.TargetMethod != "" {
				if _, ok := graph.Nodes[opts.TargetMethod]; !ok {
					return fmt.Errorf("method %q not found in %s", opts.TargetMethod, args[0])
				}
			}

			var output string
			switch format {
			case "mermaid":
				output = mermaid.Render(graph, opts).Diagram
			case "markdown":
				output = mermaid.MarkdownReport(graph, opts, filepath.Base(args[0]))
			case "json":
				data, err := json.MarshalIndent(mermaid.Render(graph, opts), "", "  ")
				if err != nil {
					return fmt.Errorf("encode diagram: %w", err)
				}
				output = string(data) + "\n"
			default:
				return fmt.Errorf("unknown format %q (want mermaid, markdown, or json)", format)
			}

			if outPath != "" {
				if err := os.WriteFile(outPath, []byte(output), 0644); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outPath)
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&method, "method", "m", "", "render a single method (any visibility)")
	cmd.Flags().StringSliceVar(&ignoreVars, "ignore-var", nil, "hide external calls on these receiver variables")
	cmd.Flags().StringSliceVar(&ignoreServices, "ignore-service", nil, "hide external calls with these invocation prefixes")
	cmd.Flags().BoolVar(&collapse, "collapse", false, "render a one-node-per-method overview")
	cmd.Flags().BoolVar(&sourceRefs, "source-refs", false, "append source line references to labels")
	cmd.Flags().StringVarP(&format, "format", "f", "mermaid", "output format: mermaid, markdown, or json")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write output to a file instead of stdout")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick the method to render from a list")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "skip the analysis cache")

	return cmd
}

// pickMethod prompts for one method from the registry.
func pickMethod(nodes map[string]flowgraph.MethodNode) (string, error) {
	names := make([]string, 0, len(nodes))
	for name := range nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	options := make([]huh.Option[string], 0, len(names))
	for _, name := range names {
		node := nodes[name]
		display := name
		if len(node.Modifiers) > 0 {
			display = fmt.Sprintf("%s (%s)", name, node.Modifiers[0])
		}
		options = append(options, huh.NewOption(display, name))
	}

	var selected string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Method to render").
				Options(options...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("method selection: %w", err)
	}
	return selected, nil
}
