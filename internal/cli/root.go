// Package cli implements the command-line interface for graviti.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "graviti",
	Short: "graviti - Java call graphs and control-flow diagrams as mermaid markup",
	Long: `graviti analyzes a Java source file, builds the call graph between its
declared methods plus a structured control-flow model per method body, and
renders mermaid flowchart diagrams from it.

Commands:
  render     Render flow diagrams for a Java source file
  methods    List the methods declared in a Java source file
  export     Export the analyzed call graph (JSON, YAML, or Neo4j)
  serve      Serve a live diagram preview in the browser
  watch      Re-render diagrams whenever watched Java sources change
  init       Initialize a .graviti.yaml config file`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .graviti.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	bindFlag := func(key, flag string) {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("failed to bind %s flag: %v", flag, err))
		}
	}
	bindFlag("config_file", "config")

	// Add subcommands
	rootCmd.AddCommand(newRenderCmd())
	rootCmd.AddCommand(newMethodsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}
