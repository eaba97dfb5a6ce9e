package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taxa/internal/form"
	"github.com/mesh-intelligence/taxa/internal/taxonomy"
	"github.com/mesh-intelligence/taxa/pkg/types"
)

// withTaxonomy opens the configured store, loads a taxonomy context over it,
// and runs fn.
func (a *app) withTaxonomy(cmd *cobra.Command, fn func(ctx context.Context, tc *taxonomy.Context) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, closeStore, err := openStore(ctx, a.config, a.logger)
	if err != nil {
		return err
	}
	defer closeStore()

	tc := taxonomy.New(store, a.notifier(cmd))
	if !tc.Load(ctx) {
		return errReported
	}
	return fn(ctx, tc)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", types.ErrInvalidID, s)
	}
	return id, nil
}

func splitPresets(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List taxa in position order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTaxonomy(cmd, func(_ context.Context, tc *taxonomy.Context) error {
				taxa := tc.Taxa()
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), taxa)
				}
				if len(taxa) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No taxa have been defined yet.")
					return nil
				}
				return writeTaxa(cmd.OutOrStdout(), taxa)
			})
		},
	}
}

// taxonFlags are the editable fields shared by add and update.
type taxonFlags struct {
	description string
	dataType    string
	freeform    bool
	onePer      bool
	presets     string
	filter      string
}

func (f *taxonFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.description, "description", "", "help text, at most 255 characters")
	fs.StringVar(&f.dataType, "type", string(types.DataTypeText), "data type (see \"taxa types\")")
	fs.BoolVar(&f.freeform, "freeform", true, "accept values outside the presets")
	fs.BoolVar(&f.onePer, "one-per-engagement", false, "allow at most one value per engagement")
	fs.StringVar(&f.presets, "presets", "", "comma-separated preset values")
	fs.StringVar(&f.filter, "filter", "", "filter control: chips, dropdown, or date_range")
}

func newAddCmd(a *app) *cobra.Command {
	var f taxonFlags
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a taxon at the end of the order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dt, err := types.ParseDataType(f.dataType)
			if err != nil {
				return err
			}
			ft, err := types.ParseFilterType(f.filter)
			if err != nil {
				return err
			}
			draft := types.TaxonDraft{
				Name:             args[0],
				Description:      f.description,
				DataType:         dt,
				Freeform:         f.freeform,
				OnePerEngagement: f.onePer,
				PresetValues:     splitPresets(f.presets),
				FilterType:       ft,
			}
			draft.Normalize()
			if errs := types.ValidateTaxon(draft.Taxon()); len(errs) > 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "invalid taxon:")
				writeFieldErrors(cmd.ErrOrStderr(), errs)
				return errReported
			}

			return a.withTaxonomy(cmd, func(ctx context.Context, tc *taxonomy.Context) error {
				created, ok := tc.Create(ctx, draft)
				if !ok {
					return errReported
				}
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), created)
				}
				return writeTaxa(cmd.OutOrStdout(), []types.Taxon{*created})
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var (
		f    taxonFlags
		name string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a taxon",
		Long: "Update applies only the flags given on the command line, then\n" +
			"normalizes and validates the result for the taxon's data type.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withTaxonomy(cmd, func(ctx context.Context, tc *taxonomy.Context) error {
				if _, ok := tc.Get(id); !ok {
					return fmt.Errorf("%w: %d", types.ErrNotFound, id)
				}
				tc.Select(id)
				fm, _ := form.ForSelected(tc)

				changed := cmd.Flags().Changed
				if changed("name") {
					fm.SetName(name)
				}
				if changed("description") {
					fm.SetDescription(f.description)
				}
				if changed("type") {
					dt, err := types.ParseDataType(f.dataType)
					if err != nil {
						return err
					}
					fm.SetDataType(dt)
				}
				if changed("freeform") {
					fm.SetFreeform(f.freeform)
				}
				if changed("one-per-engagement") {
					fm.SetOnePerEngagement(f.onePer)
				}
				if changed("presets") {
					fm.SetPresetValues(splitPresets(f.presets))
				}
				if changed("filter") {
					ft, err := types.ParseFilterType(f.filter)
					if err != nil {
						return err
					}
					fm.SetFilterType(ft)
				}
				if !fm.IsDirty() {
					fmt.Fprintln(cmd.ErrOrStderr(), "nothing to update")
					return nil
				}

				if !fm.Submit(ctx) {
					writeFieldErrors(cmd.ErrOrStderr(), fm.Errors())
					return errReported
				}
				saved := fm.Draft()
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), saved)
				}
				return writeTaxa(cmd.OutOrStdout(), []types.Taxon{saved})
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&name, "name", "", "new display name")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a taxon and close the gap in the order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withTaxonomy(cmd, func(ctx context.Context, tc *taxonomy.Context) error {
				if !tc.Remove(ctx, id) {
					return errReported
				}
				return nil
			})
		},
	}
}

func newReorderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <id>...",
		Short: "Set the taxon order",
		Long: "Reorder takes every taxon id in the desired order. Use \"taxa list\"\n" +
			"to see the current ids.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, len(args))
			for i, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids[i] = id
			}
			return a.withTaxonomy(cmd, func(ctx context.Context, tc *taxonomy.Context) error {
				if !tc.Reorder(ctx, ids) {
					return errReported
				}
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), tc.Taxa())
				}
				return writeTaxa(cmd.OutOrStdout(), tc.Taxa())
			})
		},
	}
}
