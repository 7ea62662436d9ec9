package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shjno191/graviti/internal/export"
)

func newExportCmd() *cobra.Command {
	var (
		format  string
		outPath string
		toNeo4j bool
		neoURI  string
		neoUser string
		neoPass string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "export <file.java>",
		Short: "Export the analyzed call graph (JSON, YAML, or Neo4j)",
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
			doc := &export.Document{File: args[0], Graph: graph}

			if toNeo4j {
				uri := neoURI
				if uri == "" {
					uri = cfg.Neo4j.URI
				}
				if uri == "" {
					return fmt.Errorf("no neo4j uri configured (set neo4j.uri or --neo4j-uri)")
				}
				user := neoUser
				if user == "" {
					user = cfg.Neo4j.User
				}
				pass := neoPass
				if pass == "" {
					pass = cfg.Neo4j.Password
				}

				ctx := context.Background()
				loader, err := export.NewNeo4jLoader(ctx, uri, user, pass)
				if err != nil {
					return err
				}
				defer loader.Close()

				if err := loader.CreateIndexes(); err != nil {
					return fmt.Errorf("create indexes: %w", err)
				}
				if err := loader.Load(doc); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", args[0], uri)
				return nil
			}

			var w io.Writer = cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				w = f
			}

			switch format {
			case "json":
				return export.WriteJSON(w, doc)
			case "yaml":
				return export.WriteYAML(w, doc)
			default:
				return fmt.Errorf("unknown format %q (want json or yaml)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write output to a file instead of stdout")
	cmd.Flags().BoolVar(&toNeo4j, "neo4j", false, "load the graph into Neo4j instead of writing a file")
	cmd.Flags().StringVar(&neoURI, "neo4j-uri", "", "Neo4j connection URI (overrides config)")
	cmd.Flags().StringVar(&neoUser, "neo4j-user", "", "Neo4j user (overrides config)")
	cmd.Flags().StringVar(&neoPass, "neo4j-password", "", "Neo4j password (overrides config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "skip the analysis cache")

	return cmd
}
