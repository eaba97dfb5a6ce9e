package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taxa/internal/editor"
	"github.com/mesh-intelligence/taxa/internal/notify"
	"github.com/mesh-intelligence/taxa/internal/taxonomy"
	"github.com/mesh-intelligence/taxa/internal/tui"
)

// statusHistory bounds the notifications kept for the status line, which
// shows only the latest.
const statusHistory = 16

func newEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open the interactive taxonomy editor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			store, closeStore, err := openStore(ctx, a.config, a.logger)
			if err != nil {
				return err
			}
			defer closeStore()

			// Notifications go to the status line. The log keeps only warnings
			// and errors while the UI owns the terminal.
			notes := notify.NewRecorder(statusHistory)
			a.logger.SetLevel(minLevel(a.logger.GetLevel()))
			tc := taxonomy.New(store, notify.Fanout{notes, notify.NewLogSink(a.logger)})
			model := tui.New(ctx, editor.New(tc), notes)
			defer model.Close()

			_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			if err != nil {
				return systemErr("editor: %w", err)
			}
			return nil
		},
	}
}
