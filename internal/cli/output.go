package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taxa/internal/notify"
	"github.com/mesh-intelligence/taxa/pkg/types"
)

// notifier reports taxonomy notifications on the command's streams and the
// log. Success and info go to stdout unless JSON output is on; warnings and
// errors always go to stderr.
func (a *app) notifier(cmd *cobra.Command) types.Notifier {
	printer := notify.Func(func(n types.Notification) {
		switch n.Severity {
		case types.SeverityError, types.SeverityWarning:
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", n.Severity, n.Text)
		default:
			if !a.flags.jsonMode {
				fmt.Fprintln(cmd.OutOrStdout(), n.Text)
			}
		}
	})
	return notify.Fanout{printer, notify.NewLogSink(a.logger)}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeTaxa prints taxa as a table.
func writeTaxa(w io.Writer, taxa []types.Taxon) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "POS\tID\tNAME\tTYPE\tFREEFORM\tONE\tPRESETS\tFILTER")
	for _, t := range taxa {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%t\t%t\t%s\t%s\n",
			t.Position, t.ID, t.Name, t.DataType, t.Freeform, t.OnePerEngagement,
			strings.Join(t.PresetValues, ","), t.FilterType)
	}
	return tw.Flush()
}

// writeFieldErrors prints per-field validation failures to w.
func writeFieldErrors(w io.Writer, errs types.FieldErrors) {
	for _, fe := range errs {
		fmt.Fprintf(w, "  %s: %s\n", fe.Field, fe.Message)
	}
}

// minLevel caps the log level at warn so routine messages do not draw over
// a full-screen UI.
func minLevel(level log.Level) log.Level {
	if level > log.WarnLevel {
		return log.WarnLevel
	}
	return level
}
