// Package cli implements the taxa command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taxa/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// errReported marks a failure that was already shown to the user through a
// notification. Execute exits without printing it again.
var errReported = errors.New("reported")

// sysError marks failures of the environment rather than of user input.
type sysError struct{ err error }

func (e sysError) Error() string { return e.err.Error() }
func (e sysError) Unwrap() error { return e.err }

func systemErr(format string, args ...any) error {
	return sysError{err: fmt.Errorf(format, args...)}
}

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	debug     bool
}

// app is the state shared by subcommands once the root has loaded config.
type app struct {
	flags  rootFlags
	config types.Config
	logger *log.Logger
}

// NewRootCmd creates the top-level "taxa" command with global flags and all
// subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{logger: log.New()}
	a.logger.SetOutput(os.Stderr)

	root := &cobra.Command{
		Use:   "taxa",
		Short: "Edit the metadata taxonomy attached to engagements",
		Long: "Taxa manages taxon definitions: named, typed metadata fields with\n" +
			"preset values, ordering, and per-type validation.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.load()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (env "+envConfigDirHelp+")")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory for the sqlite backend")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	pf.BoolVar(&a.flags.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newServeCmd(a),
		newListCmd(a),
		newAddCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newReorderCmd(a),
		newTypesCmd(a),
		newEditCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(NewRootCmd(), os.Args[1:]))
}

func run(root *cobra.Command, args []string) int {
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	if !errors.Is(err, errReported) {
		fmt.Fprintln(root.ErrOrStderr(), "taxa:", err)
	}
	var se sysError
	if errors.As(err, &se) {
		return exitSysError
	}
	return exitUserError
}
