// Command migrate manages the schema of the SQLite configuration database.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/runtimeterrors/trailrunners/pkg/config"
	"github.com/runtimeterrors/trailrunners/pkg/migrate"
	_ "modernc.org/sqlite" // SQLite driver
)

const usage = `Configuration database migration tool

Usage:
  migrate -dsn <config.db> [-command up|down|to|version|status] [-target N] [-dry-run]

Commands:
  up        apply all pending migrations (default)
  down      roll back to -target
  to        move up or down to -target
  version   print the applied version
  status    print the applied version and pending migrations

Examples:
  migrate -dsn config.db
  migrate -dsn config.db -command down -target 0 -dry-run
`

var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }
	dsn := fs.String("dsn", "", "Path to the SQLite configuration database")
	command := fs.String("command", "up", "Migration command")
	target := fs.String("target", "", "Target version for down/to")
	dryRun := fs.Bool("dry-run", false, "Print the planned steps without running them")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dsn == "" {
		return fmt.Errorf("%w: -dsn is required", errUsage)
	}

	db, err := sql.Open("sqlite", *dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	migrator := config.NewMigrator(db, nil)

	switch *command {
	case "version":
		version, err := migrator.GetCurrentVersion()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Current version: %d\n", version)
		return nil
	case "status":
		return printStatus(out, migrator)
	}

	version, err := targetVersion(*command, *target)
	if err != nil {
		return err
	}

	if *dryRun {
		steps, err := migrator.Plan(version)
		if err != nil {
			return err
		}
		printSteps(out, steps)
		return nil
	}

	if *command == "down" {
		err = migrator.MigrateDown(version)
	} else {
		err = migrator.MigrateTo(version)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Migration completed successfully")
	return nil
}

// targetVersion resolves the version a mutating command moves to
func targetVersion(command, target string) (int, error) {
	switch command {
	case "up":
		return migrate.Latest, nil
	case "down", "to":
		if target == "" {
			return 0, fmt.Errorf("%w: -target is required for %s", errUsage, command)
		}
		v, err := strconv.Atoi(target)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid target version %q", target)
		}
		return v, nil
	default:
		return 0, fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

func printStatus(out io.Writer, migrator *migrate.Migrator) error {
	current, err := migrator.GetCurrentVersion()
	if err != nil {
		return err
	}
	pending, err := migrator.GetPendingMigrations()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Migration table: %s\n", config.MigrationTable)
	fmt.Fprintf(out, "Current version: %d\n", current)
	fmt.Fprintf(out, "Pending migrations: %d\n", len(pending))
	for _, mig := range pending {
		fmt.Fprintf(out, "  %d: %s\n", mig.Version, mig.Name)
	}
	return nil
}

func printSteps(out io.Writer, steps []migrate.Step) {
	if len(steps) == 0 {
		fmt.Fprintln(out, "Nothing to do")
		return
	}
	for _, s := range steps {
		fmt.Fprintf(out, "  %-4s %d: %s\n", s.Direction, s.Version, s.Name)
	}
}
