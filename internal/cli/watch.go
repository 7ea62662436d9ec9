package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shjno191/graviti/internal/mermaid"
	"github.com/shjno191/graviti/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	var (
		outDir      string
		format      string
		excludeDirs []string
	)

	cmd := &cobra.Command{
		Use:   "watch <path> [path...]",
		Short: "Re-render diagrams whenever watched Java sources change",
		Long: `Watch Java source files (or directories of them) and re-render a diagram
file next to each change. Output files land in --out-dir, named after the
source file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			w := watcher.NewWatcher(watcher.Config{
				Paths:       args,
				ExcludeDirs: excludeDirs,
			})
			defer w.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				fmt.Fprintln(cmd.OutOrStdout(), "\nShutting down...")
				cancel()
			}()

			events, err := w.Start(ctx)
			if err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Watching %s\n", strings.Join(args, ", "))
			fmt.Fprintf(out, "Output directory: %s\n", outDir)

			render := func(path string) {
				graph, _, err := analyzeFile(cfg, path, true)
				if err != nil {
					fmt.Fprintf(out, "  %s: %v\n", path, err)
					return
				}

				opts := baseOptions(cfg)
				var content, ext string
				switch format {
				case "markdown":
					content = mermaid.MarkdownReport(graph, opts, filepath.Base(path))
					ext = ".md"
				default:
					content = mermaid.Render(graph, opts).Diagram
					ext = ".mmd"
				}

				base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				target := filepath.Join(outDir, base+ext)
				if err := os.WriteFile(target, []byte(content), 0644); err != nil {
					fmt.Fprintf(out, "  %s: write output: %v\n", path, err)
					return
				}
				fmt.Fprintf(out, "  %s -> %s\n", path, target)
			}

			// Render everything once up front so the output directory is
			// complete before the first change arrives.
			for _, root := range args {
				seedRenders(root, render)
			}

			for evt := range events {
				switch evt.Op {
				case watcher.Remove, watcher.Rename:
					fmt.Fprintf(out, "  %s removed\n", evt.Path)
				default:
					render(evt.Path)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "diagrams", "directory for rendered diagram files")
	cmd.Flags().StringVarP(&format, "format", "f", "mermaid", "output format: mermaid or markdown")
	cmd.Flags().StringSliceVar(&excludeDirs, "exclude", []string{".git", "target", "build"}, "directory names to skip")

	return cmd
}

// seedRenders invokes render for every Java file under root (or root itself
// when it is a file).
func seedRenders(root string, render func(string)) {
	info, err := os.Stat(root)
	if err != nil {
		return
	}
	if !info.IsDir() {
		if strings.EqualFold(filepath.Ext(root), ".java") {
			render(root)
		}
		return
	}
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".java") {
			render(path)
		}
		return nil
	})
}
