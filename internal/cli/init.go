package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taxa/internal/sqlite"
	"github.com/mesh-intelligence/taxa/pkg/types"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize taxa storage",
		Long: "Create the configuration and data directories, write a default\n" +
			"config.yaml if none exists, and initialize the sqlite store.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Root pre-run has already created the config directory and file.
			cfg := a.config
			cfg.Backend = types.BackendSQLite

			b := sqlite.NewBackend()
			if err := b.Attach(cfg); err != nil {
				return systemErr("initialize storage: %w", err)
			}
			if err := b.Detach(); err != nil {
				return systemErr("finalize storage: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "taxa initialized in %s\n", cfg.DataDir)
			return nil
		},
	}
}
