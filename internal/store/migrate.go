// Package store provides database schema migration management.
package store

import (
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migration represents an applied database schema migration.
type Migration struct {
	Version     int
	AppliedAt   time.Time
	Description string
	Checksum    string
}

// Migrator applies versioned schema migrations from an fs.FS.
// Migration files follow the V<version>__<description>.up.sql naming
// convention and must only make additive-safe changes to existing
// collections, so an upgraded store keeps its documents.
type Migrator struct {
	db  *sql.DB
	src fs.FS
}

// NewMigrator creates a Migrator reading the embedded migration set.
func NewMigrator(db *sql.DB) *Migrator {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		// The embed directive guarantees the directory exists.
		panic(fmt.Sprintf("embedded migrations missing: %v", err))
	}
	return &Migrator{db: db, src: sub}
}

// NewMigratorFS creates a Migrator reading migrations from src.
func NewMigratorFS(db *sql.DB, src fs.FS) *Migrator {
	return &Migrator{db: db, src: src}
}

// Initialize creates the schema_migrations table if it doesn't exist.
func (m *Migrator) Initialize() error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY CHECK(version > 0),
		applied_at INTEGER NOT NULL CHECK(applied_at > 0),
		description TEXT NOT NULL CHECK(length(description) > 0),
		checksum TEXT NOT NULL CHECK(length(checksum) = 64)
	);`
	_, err := m.db.Exec(query)
	return err
}

// CurrentVersion returns the current schema version.
func (m *Migrator) CurrentVersion() (int, error) {
	var version int
	err := m.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

// GetAppliedMigrations returns all applied migrations.
func (m *Migrator) GetAppliedMigrations() ([]Migration, error) {
	rows, err := m.db.Query("SELECT version, applied_at, description, checksum FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var migrations []Migration
	for rows.Next() {
		var mig Migration
		var appliedAt int64
		err := rows.Scan(&mig.Version, &appliedAt, &mig.Description, &mig.Checksum)
		if err != nil {
			return nil, err
		}
		mig.AppliedAt = time.Unix(appliedAt, 0)
		migrations = append(migrations, mig)
	}
	return migrations, rows.Err()
}

// Up applies all pending migrations in version order.
func (m *Migrator) Up() error {
	if err := m.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize migrations table: %w", err)
	}

	applied, err := m.GetAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}
	appliedVersions := make(map[int]bool)
	for _, mig := range applied {
		appliedVersions[mig.Version] = true
	}

	entries, err := fs.ReadDir(m.src, ".")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	var pending []struct {
		version int
		name    string
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		// Parse version from filename (V1__initial_schema.up.sql)
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}

		parts := strings.Split(strings.TrimSuffix(name, ".up.sql"), "__")
		if len(parts) < 2 {
			continue
		}

		version, err := strconv.Atoi(strings.TrimPrefix(parts[0], "V"))
		if err != nil {
			continue
		}

		pending = append(pending, struct {
			version int
			name    string
		}{version, name})
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].version < pending[j].version
	})

	for _, mig := range pending {
		if appliedVersions[mig.version] {
			continue
		}
		if err := m.applyMigration(mig.version, mig.name); err != nil {
			return fmt.Errorf("failed to apply migration V%d: %w", mig.version, err)
		}
	}

	return nil
}

// applyMigration applies a single migration inside a transaction.
func (m *Migrator) applyMigration(version int, filename string) error {
	content, err := fs.ReadFile(m.src, filename)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(string(content)); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	description := strings.TrimSuffix(filename, ".up.sql")
	description = strings.TrimPrefix(description, fmt.Sprintf("V%d__", version))
	hash := sha256.Sum256(content)
	checksum := hex.EncodeToString(hash[:])

	query := `INSERT INTO schema_migrations (version, applied_at, description, checksum)
			  VALUES (?, ?, ?, ?)`
	if _, err := tx.Exec(query, version, time.Now().Unix(), description, checksum); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}

// Down rolls back the last applied migration using its .down.sql file.
func (m *Migrator) Down() error {
	current, err := m.CurrentVersion()
	if err != nil {
		return err
	}
	if current == 0 {
		return fmt.Errorf("no migrations to rollback")
	}

	pattern := fmt.Sprintf("V%d__*.down.sql", current)
	matches, err := fs.Glob(m.src, pattern)
	if err != nil {
		return fmt.Errorf("failed to search for rollback migration: %w", err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("no rollback migration found for version %d", current)
	}

	content, err := fs.ReadFile(m.src, matches[0])
	if err != nil {
		return fmt.Errorf("failed to read rollback migration: %w", err)
	}

	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(string(content)); err != nil {
		return fmt.Errorf("failed to execute rollback SQL: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM schema_migrations WHERE version = ?", current); err != nil {
		return fmt.Errorf("failed to remove migration record: %w", err)
	}

	return tx.Commit()
}
