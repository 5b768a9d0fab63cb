package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/neexbeast/relocation/internal/destination"
	"github.com/neexbeast/relocation/internal/seed"
	"github.com/neexbeast/relocation/internal/storage"
	"github.com/neexbeast/relocation/migrations"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or inspect schema migrations",
	}

	withMigrator := func(fn func(m *storage.Migrator) error) error {
		dbURL, err := opts.requireDatabaseURL()
		if err != nil {
			return err
		}
		m, err := storage.NewMigrator(dbURL, migrations.FS)
		if err != nil {
			return err
		}
		defer func() { _ = m.Close() }()
		return fn(m)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				return withMigrator(func(m *storage.Migrator) error {
					if err := m.Up(); err != nil {
						return err
					}
					return reportVersion(opts.ui, m)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				return withMigrator(func(m *storage.Migrator) error {
					if err := m.Down(); err != nil {
						return err
					}
					opts.ui.Success("schema rolled back")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				return withMigrator(func(m *storage.Migrator) error {
					return reportVersion(opts.ui, m)
				})
			},
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Mark the schema as VERSION without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				return withMigrator(func(m *storage.Migrator) error {
					if err := m.Force(version); err != nil {
						return err
					}
					opts.ui.Success("schema forced to version %d", version)
					return nil
				})
			},
		},
	)

	return cmd
}

type versioner interface {
	Version() (uint, bool, error)
}

func reportVersion(ui *UI, m versioner) error {
	v, dirty, err := m.Version()
	if err != nil {
		return err
	}
	switch {
	case v == 0:
		ui.Warning("no migrations applied")
	case dirty:
		ui.Warning("schema version %d (dirty: fix and run migrate force)", v)
	default:
		ui.Success("schema version %d", v)
	}
	return nil
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert destination fixtures and verify them",
		Long: `Seed loads destination fixtures (one YAML file per country) and upserts
them in a single transaction. Without --dir the bundled fixtures are used.
Each destination is read back to report its city and visa counts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dests, err := loadFixtures(dir)
			if err != nil {
				return err
			}

			dbURL, err := opts.requireDatabaseURL()
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			pool, err := storage.Connect(ctx, dbURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			return runSeed(ctx, opts.ui, storage.NewRepository(pool), dests)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "directory of *.yaml fixtures (default: bundled)")
	return cmd
}

func loadFixtures(dir string) ([]destination.Destination, error) {
	if dir == "" {
		return seed.Fixtures()
	}
	return seed.Load(os.DirFS(dir))
}

func runSeed(ctx context.Context, ui *UI, store seed.Store, dests []destination.Destination) error {
	if len(dests) == 0 {
		ui.Warning("no fixtures found")
		return nil
	}

	reports, err := seed.Seed(ctx, store, dests)
	if err != nil {
		return err
	}

	ui.Success("seeded %d destinations", len(reports))
	for _, r := range reports {
		ui.Header("%s (%s)", r.Stats.CountryName, r.Slug)
		ui.Info("Cities: %d", r.Stats.CityCount)
		ui.Info("Visas: %d", r.Stats.VisaCount)
	}
	return nil
}

// Lister is the read access the list command needs.
type Lister interface {
	ListEnabled(ctx context.Context) ([]*destination.Destination, error)
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List enabled destinations by priority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbURL, err := opts.requireDatabaseURL()
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			pool, err := storage.Connect(ctx, dbURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			return runList(ctx, opts.ui, storage.NewRepository(pool))
		},
	}
}

func runList(ctx context.Context, ui *UI, store Lister) error {
	dests, err := store.ListEnabled(ctx)
	if err != nil {
		return err
	}
	if len(dests) == 0 {
		ui.Warning("no enabled destinations: run relocatectl seed")
		return nil
	}

	for _, d := range dests {
		ui.Header("%s %s (%s)", d.Flag, d.CountryName, d.Slug)
		ui.Info("Region: %s  Priority: %d  Visas: %d  Cities: %d", d.Region, d.Priority, len(d.Visas), len(d.CostOfLiving))
	}
	return nil
}
