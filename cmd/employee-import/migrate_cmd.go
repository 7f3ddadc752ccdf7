package main

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/iota-uz/hrm-import/pkg/configuration"
)

const migrationsSubdir = "hrm"

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply the hrm schema migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := "up"
			if len(args) == 1 {
				direction = args[0]
			}
			conf := configuration.Use()
			defer conf.Unload()

			db, err := sql.Open("pgx", conf.Database.Opts)
			if err != nil {
				return withCode(exitDB, fmt.Errorf("open db: %w", err))
			}
			defer func() { _ = db.Close() }()
			if err := db.PingContext(cmd.Context()); err != nil {
				return withCode(exitDB, fmt.Errorf("ping db: %w", err))
			}
			goose.SetLogger(conf.Logger())
			return migrate(cmd.Context(), db, filepath.Join(conf.MigrationsDir, migrationsSubdir), direction)
		},
	}
}

func migrate(ctx context.Context, db *sql.DB, dir, direction string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return withCode(exitUsage, err)
	}
	var err error
	switch direction {
	case "up":
		err = goose.UpContext(ctx, db, dir)
	case "down":
		err = goose.DownContext(ctx, db, dir)
	case "status":
		err = goose.StatusContext(ctx, db, dir)
	default:
		return withCode(exitUsage, fmt.Errorf("unknown migrate direction %q", direction))
	}
	if err != nil {
		return withCode(exitDBWrite, fmt.Errorf("migrate %s: %w", direction, err))
	}
	return nil
}
