package db

import (
	"database/sql"
	"embed"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/sym"
)

//go:embed sqlite/migrations/*.sql
var migrations embed.FS

// Migration is one embedded schema step.
type Migration struct {
	Version  string
	Filename string
}

// Migrations lists embedded migrations in application order.
func Migrations() ([]Migration, error) {
	entries, err := migrations.ReadDir("sqlite/migrations")
	if err != nil {
		return nil, errors.Wrap(err, "read migrations")
	}

	var out []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		out = append(out, Migration{
			Version:  strings.SplitN(entry.Name(), "_", 2)[0],
			Filename: entry.Name(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, nil
}

// Migrate runs all pending migrations, each in its own transaction.
// If logger is provided, logs migration progress; otherwise operates silently.
func Migrate(db *sql.DB, logger *zap.SugaredLogger) error {
	all, err := Migrations()
	if err != nil {
		return err
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return err
	}

	count := 0
	for _, m := range all {
		if applied[m.Version] {
			if logger != nil {
				logger.Debugw("Skipping migration (already applied)", "migration", m.Filename)
			}
			continue
		}
		// 000 creates schema_migrations; anything else needs it to exist already
		if applied == nil && m.Version != "000" {
			return errors.Newf("schema_migrations table missing, but migration is not 000: %s", m.Filename)
		}

		if err := apply(db, m); err != nil {
			return err
		}
		if applied == nil {
			applied = map[string]bool{}
		}
		applied[m.Version] = true
		count++

		if logger != nil {
			logger.Infow("Applied migration", "migration", m.Filename, "version", m.Version)
		}
	}

	if logger != nil {
		logger.Infow("Migrations complete",
			"symbol", sym.DB,
			"applied", count,
			"total_migrations", len(all),
		)
	}
	return nil
}

// appliedVersions returns nil when schema_migrations does not exist yet.
func appliedVersions(db *sql.DB) (map[string]bool, error) {
	var tables int
	if err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_migrations'",
	).Scan(&tables); err != nil {
		if IsDatabaseClosed(err) {
			return nil, errors.Mark(err, ErrDatabaseClosed)
		}
		return nil, errors.Wrap(err, "inspect schema_migrations")
	}
	if tables == 0 {
		return nil, nil
	}

	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, errors.Wrap(err, "list applied migrations")
	}
	defer rows.Close()

	applied := map[string]bool{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrap(err, "scan migration version")
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func apply(db *sql.DB, m Migration) error {
	sqlBytes, err := migrations.ReadFile(path.Join("sqlite/migrations", m.Filename))
	if err != nil {
		return errors.Wrapf(err, "read %s", m.Filename)
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrapf(err, "begin tx for %s", m.Filename)
	}

	if _, err := tx.Exec(string(sqlBytes)); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "execute %s", m.Filename)
	}

	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.Version); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "record %s", m.Filename)
	}

	return errors.Wrapf(tx.Commit(), "commit %s", m.Filename)
}
