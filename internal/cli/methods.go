package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/shjno191/graviti/internal/mermaid"
)

// Style definitions for the methods listing.
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"})
	publicStyle  = lipgloss.NewStyle().Bold(true)
	privateStyle = lipgloss.NewStyle().Faint(true)
)

func newMethodsCmd() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "methods <file.java>",
		Short: "List the methods declared in a Java source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			graph, _, err := analyzeFile(cfg, args[0], noCache)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(graph.Nodes))
			for name := range graph.Nodes {
				names = append(names, name)
			}
			sort.Strings(names)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out)
			fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Methods in %s", args[0])))
			fmt.Fprintln(out, headerStyle.Render(strings.Repeat("=", len("Methods in ")+len(args[0]))))
			fmt.Fprintln(out)

			for _, name := range names {
				node := graph.Nodes[name]
				signature := strings.TrimSpace(strings.Join(node.Modifiers, " ") + " " + node.ReturnType + " " + name)

				style := privateStyle
				if node.HasModifier("public") || node.HasModifier("protected") {
					style = publicStyle
				}
				fmt.Fprintf(out, "  %s", style.Render(signature))
				if callees := graph.Calls[name]; len(callees) > 0 {
					fmt.Fprintf(out, "  -> %s", strings.Join(callees, ", "))
				}
				fmt.Fprintln(out)
			}

			result := mermaid.Render(graph, baseOptions(cfg))
			if len(result.ExternalServices) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, headerStyle.Render("External services"))
				for _, svc := range result.ExternalServices {
					fmt.Fprintf(out, "  %s\n", svc)
				}
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "skip the analysis cache")

	return cmd
}
