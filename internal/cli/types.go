package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/taxa/pkg/types"
)

func newTypesCmd(a *app) *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "types",
		Short: "Show the data types a taxon can hold and what each supports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			descs := types.Descriptors()
			out := cmd.OutOrStdout()
			switch {
			case a.flags.jsonMode:
				return writeJSON(out, descs)
			case asYAML:
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(descs); err != nil {
					return err
				}
				return enc.Close()
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tNAME\tPRESETS\tFREEFORM\tMULTI\tINPUT")
			for _, d := range descs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					d.Key, d.DisplayName, yesNo(d.SupportsPresetValues),
					yesNo(d.SupportsFreeform), yesNo(d.SupportsMulti), d.Input)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "output in YAML format")
	return cmd
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
