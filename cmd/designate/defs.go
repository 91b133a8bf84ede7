package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"designate/pkg/defs"
	"designate/pkg/keys"
)

var errInvalidDefs = errors.New("definitions have errors")

func (a *app) newDefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "defs",
		Short: "Inspect tool definitions",
	}
	cmd.AddCommand(a.newDefsCheckCmd())
	return cmd
}

func (a *app) newDefsCheckCmd() *cobra.Command {
	var contextKey string

	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Validate a definition file",
		Long: `Validate a definition file. Duplicate names and malformed bindings
are errors and exit non-zero. Shared hotkeys and bindings on the context
action key are reported as warnings.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" || contextKey == "" {
				cfg, err := a.loadConfig()
				if err != nil {
					return err
				}
				if path == "" {
					path = cfg.Defs.Path
				}
				if contextKey == "" {
					contextKey = cfg.Hotkeys.ContextAction
				}
			}

			key, err := keys.Parse(contextKey)
			if err != nil {
				return fmt.Errorf("invalid context key: %w", err)
			}

			db, err := defs.Load(path)
			if err != nil {
				return err
			}

			res := defs.Validate(db, key)
			fmt.Fprintf(a.stdout, "%s: %d tools, %d reverse\n%s\n", path, db.Len(), len(db.Reverse()), res.String())
			if res.HasErrors() {
				return errInvalidDefs
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&contextKey, "context-key", "", "Reserved context action key (default from config)")
	return cmd
}
