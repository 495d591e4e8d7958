package shared

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// Migration is one schema revision. Scripts are paired files named
// NNNN_description_up.sql / NNNN_description_down.sql under sql/.
type Migration struct {
	Version int
	Up      string
	Down    string
}

// loadMigrations collects the embedded migration pairs, sorted by version.
// An up script without its down counterpart is an error: the match cache
// must always be rollback-able.
func loadMigrations() ([]Migration, error) {
	ups, err := fs.Glob(migrationFiles, "sql/*_up.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list migration scripts: %w", err)
	}

	migrations := make([]Migration, 0, len(ups))
	for _, upPath := range ups {
		prefix, _, ok := strings.Cut(path.Base(upPath), "_")
		if !ok {
			continue
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			continue
		}

		up, err := migrationFiles.ReadFile(upPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", upPath, err)
		}

		downPath := strings.TrimSuffix(upPath, "_up.sql") + "_down.sql"
		down, err := migrationFiles.ReadFile(downPath)
		if err != nil {
			return nil, fmt.Errorf("incomplete migration for version %d: %w", version, err)
		}

		migrations = append(migrations, Migration{
			Version: version,
			Up:      string(up),
			Down:    string(down),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// RunMigrations brings the database up to the latest embedded schema.
// Applied versions are tracked in schema_migrations, so repeated calls
// are no-ops.
func RunMigrations(db *sql.DB) error {
	migrations, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	if err := createMigrationsTable(db); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return fmt.Errorf("failed to check migration status: %w", err)
	}

	for _, migration := range migrations {
		if applied[migration.Version] {
			continue
		}
		if err := applyMigration(db, migration); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// RollbackMigration undoes the most recently applied migration.
func RollbackMigration(db *sql.DB) error {
	migrations, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	current, err := currentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	if current < 0 {
		return fmt.Errorf("no migrations to rollback")
	}

	for _, migration := range migrations {
		if migration.Version == current {
			if err := revertMigration(db, migration); err != nil {
				return fmt.Errorf("failed to rollback migration %d: %w", migration.Version, err)
			}
			return nil
		}
	}

	return fmt.Errorf("migration version %d not found", current)
}

func createMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// appliedVersions returns the set of versions already recorded.
func appliedVersions(db *sql.DB) (map[int]bool, error) {
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// currentVersion returns the highest applied version, or -1 when the
// schema_migrations table is empty.
func currentVersion(db *sql.DB) (int, error) {
	var version sql.NullInt64
	if err := db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version); err != nil {
		return 0, err
	}
	if !version.Valid {
		return -1, nil
	}
	return int(version.Int64), nil
}

// applyMigration runs a migration's up script and records the version,
// all in one transaction.
func applyMigration(db *sql.DB, migration Migration) error {
	return inTransaction(db, migration.Up,
		"INSERT INTO schema_migrations (version) VALUES (?)", migration.Version)
}

// revertMigration runs a migration's down script and forgets the version.
func revertMigration(db *sql.DB, migration Migration) error {
	return inTransaction(db, migration.Down,
		"DELETE FROM schema_migrations WHERE version = ?", migration.Version)
}

// inTransaction executes every statement of a script followed by the
// bookkeeping query, committing only if all of them succeed.
func inTransaction(db *sql.DB, script, bookkeeping string, args ...any) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(script) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %w\nStatement: %s", err, stmt)
		}
	}

	if _, err := tx.Exec(bookkeeping, args...); err != nil {
		return err
	}

	return tx.Commit()
}

// splitStatements breaks a script on semicolons into executable
// statements, dropping line comments and blank lines.
func splitStatements(script string) []string {
	var statements []string
	for _, raw := range strings.Split(script, ";") {
		var lines []string
		for _, line := range strings.Split(raw, "\n") {
			if idx := strings.Index(line, "--"); idx >= 0 {
				line = line[:idx]
			}
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
		if stmt := strings.Join(lines, "\n"); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
