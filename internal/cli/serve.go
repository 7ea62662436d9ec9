package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shjno191/graviti/internal/server"
	"github.com/shjno191/graviti/internal/watcher"
)

func newServeCmd() *cobra.Command {
	var (
		port     int
		allowAll bool
		noWatch  bool
	)

	cmd := &cobra.Command{
		Use:   "serve <file.java>",
		Short: "Serve a live diagram preview in the browser",
		Long: `Analyze a Java source file and serve an HTML page that renders its flow
diagrams. Unless --no-watch is set, the file is watched and connected pages
reload automatically after each change.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			path := args[0]
			source, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read source file: %w", err)
			}

			srv := server.New(server.Config{
				Port:     cfg.Server.Port,
				AllowAll: allowAll,
			}, baseOptions(cfg))
			if err := srv.Update(path, source); err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				fmt.Fprintln(cmd.OutOrStdout(), "\nShutting down...")
				cancel()
			}()

			if !noWatch {
				w := watcher.NewWatcher(watcher.Config{Paths: []string{path}})
				defer w.Close()

				events, err := w.Start(ctx)
				if err != nil {
					return fmt.Errorf("start watcher: %w", err)
				}
				go func() {
					for evt := range events {
						if evt.Path != path {
							continue
						}
						source, err := os.ReadFile(path)
						if err != nil {
							fmt.Fprintf(cmd.OutOrStdout(), "re-read %s: %v\n", path, err)
							continue
						}
						if err := srv.Update(path, source); err != nil {
							fmt.Fprintf(cmd.OutOrStdout(), "%v\n", err)
						}
					}
				}()
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Preview at http://localhost:%d\n", cfg.Server.Port)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 4977, "HTTP listen port (overrides config)")
	cmd.Flags().BoolVar(&allowAll, "allow-all-origins", false, "allow all CORS origins")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "serve a one-shot analysis without watching the file")

	return cmd
}
