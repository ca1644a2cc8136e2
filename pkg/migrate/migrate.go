// Package migrate applies versioned SQL schema migrations.
package migrate

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// Latest targets the newest migration the provider knows about
const Latest = -1

// Migration represents a single database migration
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// DB represents either a database connection or transaction
type DB interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// MigrationProvider defines how migrations are loaded and how the applied version is tracked
type MigrationProvider interface {
	GetMigrations() ([]Migration, error)
	GetCurrentVersion(db *sql.DB) (int, error)
	SetVersion(db DB, version int) error
	CreateMigrationTable(db *sql.DB) error
}

// Direction says whether a step applies or reverts its migration
type Direction int

const (
	Up Direction = iota
	Down
)

func (d Direction) String() string {
	if d == Down {
		return "down"
	}
	return "up"
}

// Step is one migration run in one direction
type Step struct {
	Migration
	Direction Direction
}

// statement returns the SQL the step executes and the version recorded afterwards
func (s Step) statement() (string, int) {
	if s.Direction == Down {
		return s.Down, s.Version - 1
	}
	return s.Up, s.Version
}

// Migrator plans and runs migrations against one database
type Migrator struct {
	db       *sql.DB
	provider MigrationProvider
	logger   *zap.SugaredLogger
}

// NewMigrator creates a new migrator instance. logger may be nil.
func NewMigrator(db *sql.DB, provider MigrationProvider, logger *zap.SugaredLogger) *Migrator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Migrator{db: db, provider: provider, logger: logger}
}

// GetCurrentVersion returns the applied version, 0 for a fresh database
func (m *Migrator) GetCurrentVersion() (int, error) {
	if err := m.provider.CreateMigrationTable(m.db); err != nil {
		return 0, fmt.Errorf("failed to create migration table: %w", err)
	}
	return m.provider.GetCurrentVersion(m.db)
}

// Plan lists the steps that would take the database to target, in execution order.
// Upgrades run oldest first and rollbacks newest first.
func (m *Migrator) Plan(target int) ([]Step, error) {
	current, err := m.GetCurrentVersion()
	if err != nil {
		return nil, err
	}

	migrations, err := m.provider.GetMigrations()
	if err != nil {
		return nil, fmt.Errorf("failed to get migrations: %w", err)
	}

	if target == Latest {
		target = current
		for _, mig := range migrations {
			target = max(target, mig.Version)
		}
	}
	if target < 0 {
		return nil, fmt.Errorf("invalid target version %d", target)
	}

	var steps []Step
	switch {
	case target > current:
		for _, mig := range migrations {
			if mig.Version > current && mig.Version <= target {
				steps = append(steps, Step{Migration: mig, Direction: Up})
			}
		}
	case target < current:
		for i := len(migrations) - 1; i >= 0; i-- {
			if mig := migrations[i]; mig.Version > target && mig.Version <= current {
				steps = append(steps, Step{Migration: mig, Direction: Down})
			}
		}
	}
	return steps, nil
}

// MigrateTo runs migrations up or down to reach a specific version
func (m *Migrator) MigrateTo(target int) error {
	steps, err := m.Plan(target)
	if err != nil {
		return err
	}
	for _, step := range steps {
		if err := m.apply(step); err != nil {
			return fmt.Errorf("migration %d %s: %w", step.Version, step.Direction, err)
		}
	}
	return nil
}

// MigrateUp runs all pending migrations
func (m *Migrator) MigrateUp() error {
	return m.MigrateTo(Latest)
}

// MigrateDown reverts migrations until target is the applied version.
// Unlike MigrateTo it refuses targets that are not below the current version.
func (m *Migrator) MigrateDown(target int) error {
	current, err := m.GetCurrentVersion()
	if err != nil {
		return err
	}
	if target >= current {
		return fmt.Errorf("target version %d must be less than current version %d", target, current)
	}
	return m.MigrateTo(target)
}

// GetPendingMigrations returns the migrations newer than the applied version
func (m *Migrator) GetPendingMigrations() ([]Migration, error) {
	steps, err := m.Plan(Latest)
	if err != nil {
		return nil, err
	}
	pending := make([]Migration, 0, len(steps))
	for _, step := range steps {
		pending = append(pending, step.Migration)
	}
	return pending, nil
}

// apply runs one step and records the new version in the same transaction
func (m *Migrator) apply(step Step) error {
	query, version := step.statement()
	if query == "" {
		return fmt.Errorf("no %s SQL", step.Direction)
	}

	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(query); err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	if err := m.provider.SetVersion(tx, version); err != nil {
		return fmt.Errorf("record version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	m.logger.Infow("migration applied", "version", step.Version, "name", step.Name, "direction", step.Direction.String())
	return nil
}
