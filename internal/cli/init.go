package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/shjno191/graviti/internal/config"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a .graviti.yaml config file",
		Long: `Write a .graviti.yaml with the default configuration to the current
directory. Existing files are only replaced after confirmation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultConfigFile + "." + config.DefaultConfigType

			if _, err := os.Stat(path); err == nil {
				var overwrite bool
				form := huh.NewForm(
					huh.NewGroup(
						huh.NewConfirm().
							Title(fmt.Sprintf("%s already exists. Overwrite?", path)).
							Value(&overwrite),
					),
				)
				if err := form.Run(); err != nil {
					return fmt.Errorf("confirmation: %w", err)
				}
				if !overwrite {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load defaults: %w", err)
			}
			if err := config.WriteConfig(cfg, path); err != nil {
				return fmt.Errorf("write config file: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	}
}
