package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"designate/pkg/config"
	"designate/pkg/contextmenu"
	"designate/pkg/defs"
)

// withSettings opens the store and a provider with every known handle
// registered, then calls fn.
func (a *app) withSettings(fn func(*config.UnifiedProvider) error) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	d, st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	prov := config.NewProvider(cfg, st)
	if db, err := defs.Load(cfg.Defs.Path); err == nil {
		prov.RegisterTools(db)
	} else {
		prov.RegisterTools(defs.Default())
	}
	suffixes := make([]string, 0, len(contextmenu.Builtin))
	for _, e := range contextmenu.Builtin {
		suffixes = append(suffixes, e.Suffix)
	}
	prov.RegisterMenuEntries(suffixes)

	return fn(prov)
}

func (a *app) newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and change persisted settings",
	}
	cmd.AddCommand(a.newSettingsListCmd(), a.newSettingsGetCmd(), a.newSettingsSetCmd())
	return cmd
}

func (a *app) newSettingsListCmd() *cobra.Command {
	var hidden bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List settings with their effective values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withSettings(func(prov *config.UnifiedProvider) error {
				tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "KEY\tGROUP\tVALUE\tSOURCE")
				for _, v := range prov.List(ctx, hidden) {
					source := "default"
					if v.Stored {
						source = "stored"
					}
					fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", v.Key, v.Group, v.Value, source)
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t\n", config.KeySelectionLimit, config.GroupGeneral, prov.SelectionLimit(ctx))
				return tw.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&hidden, "hidden", false, "Include hidden settings")
	return cmd
}

func (a *app) newSettingsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key := args[0]
			return a.withSettings(func(prov *config.UnifiedProvider) error {
				if key == config.KeySelectionLimit {
					fmt.Fprintln(a.stdout, prov.SelectionLimit(ctx))
					return nil
				}
				if _, ok := prov.Lookup(key); !ok {
					return fmt.Errorf("%w: %s", config.ErrUnknownSetting, key)
				}
				fmt.Fprintln(a.stdout, prov.Bool(ctx, key))
				return nil
			})
		},
	}
}

func (a *app) newSettingsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Persist one setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key, raw := args[0], args[1]
			return a.withSettings(func(prov *config.UnifiedProvider) error {
				if key == config.KeySelectionLimit {
					n, err := strconv.Atoi(raw)
					if err != nil {
						return fmt.Errorf("invalid selection limit %q: %w", raw, err)
					}
					got, err := prov.SetSelectionLimit(ctx, n)
					if err != nil {
						return err
					}
					fmt.Fprintf(a.stdout, "%s = %d\n", key, got)
					return nil
				}

				val, err := strconv.ParseBool(raw)
				if err != nil {
					return fmt.Errorf("invalid value %q for %s: %w", raw, key, err)
				}
				if err := prov.SetBool(ctx, key, val); err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "%s = %t\n", key, val)
				return nil
			})
		},
	}
}
