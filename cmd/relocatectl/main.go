// Command relocatectl manages the destinations database: schema migrations,
// fixture seeding and listing.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/neexbeast/relocation/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	databaseURL string
	noColor     bool
	ui          *UI
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "relocatectl",
		Short:        "Manage the relocation destinations database",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			opts.ui = NewUI(cmd.OutOrStdout(), opts.noColor)
			if err := config.LoadEnvFiles(config.DefaultEnvFiles...); err != nil {
				return err
			}
			if opts.databaseURL == "" {
				opts.databaseURL = os.Getenv("DATABASE_URL")
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", "", "Postgres connection URL (default $DATABASE_URL)")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(newMigrateCmd(opts), newSeedCmd(opts), newListCmd(opts))
	return cmd
}

func (o *rootOptions) requireDatabaseURL() (string, error) {
	if o.databaseURL == "" {
		return "", errors.New("DATABASE_URL not set: pass --database-url or set it in .env.local")
	}
	return o.databaseURL, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
