package main

import (
	"database/sql"
	"fmt"

	"github.com/poiesic/newsdesk/storage/sqlstore"
	"github.com/urfave/cli/v2"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the Articles schema",
		Subcommands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Apply migrations",
				Flags:  []cli.Flag{stepsFlag()},
				Action: migrateAction("up"),
			},
			{
				Name:   "down",
				Usage:  "Revert migrations",
				Flags:  []cli.Flag{stepsFlag()},
				Action: migrateAction("down"),
			},
			{
				Name:   "version",
				Usage:  "Print the applied schema version",
				Action: versionAction,
			},
		},
	}
}

func stepsFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  "steps",
		Usage: "Number of migrations to apply (0 applies all)",
	}
}

func migrateAction(direction string) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg := loadedConfig(c).Articles
		db, err := sqlstore.OpenDB(c.Context, cfg.Store())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := sqlstore.Migrate(db, cfg.Dialect, direction, c.Int("steps")); err != nil {
			return fmt.Errorf("migrate %s: %w", direction, err)
		}
		return printVersion(c, db, cfg.Dialect)
	}
}

func versionAction(c *cli.Context) error {
	cfg := loadedConfig(c).Articles
	db, err := sqlstore.OpenDB(c.Context, cfg.Store())
	if err != nil {
		return err
	}
	defer db.Close()
	return printVersion(c, db, cfg.Dialect)
}

func printVersion(c *cli.Context, db *sql.DB, dialect string) error {
	version, dirty, err := sqlstore.MigrationVersion(db, dialect)
	if err != nil {
		return err
	}
	if dirty {
		fmt.Fprintf(c.App.Writer, "version %d (dirty)\n", version)
		return nil
	}
	fmt.Fprintf(c.App.Writer, "version %d\n", version)
	return nil
}
