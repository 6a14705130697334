// Package sqlstore keeps metadata modules in SQLite and serves parameter facets
// from it lazily.
package sqlstore

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 2

// migrations[v] upgrades a database at user_version v.
var migrations = map[int]string{
	1: "ALTER TABLE field_marshal ADD COLUMN array_fields INTEGER",
}

type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open creates or opens the database at path and applies the schema.
func Open(path string, options ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "connect database")
	}
	// one writer; also keeps PRAGMA foreign_keys on the only connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, logger: zap.NewNop()}
	for _, option := range options {
		option(s)
	}
	if err := s.applyPragmas(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.applySchema(); err != nil {
		db.Close()
		return nil, err
	}
	s.logger.Debug("sqlstore opened", zap.String("path", path))
	return s, nil
}

func (this *Store) Close() error {
	if this.db == nil {
		return nil
	}
	err := this.db.Close()
	this.db = nil
	return err
}

func (this *Store) applyPragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := this.db.Exec(pragma); err != nil {
			return errors.Wrapf(err, "execute %q", pragma)
		}
	}
	return nil
}

func (this *Store) applySchema() error {
	if _, err := this.db.Exec(schemaSQL); err != nil {
		return errors.Wrap(err, "apply schema")
	}
	var version int
	if err := this.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return errors.Wrap(err, "read user_version")
	}
	if version > schemaVersion {
		return errors.Errorf("database schema version %d is newer than %d", version, schemaVersion)
	}
	for ; version > 0 && version < schemaVersion; version++ {
		if _, err := this.db.Exec(migrations[version]); err != nil {
			return errors.Wrapf(err, "migrate schema from version %d", version)
		}
		this.logger.Info("sqlstore schema migrated", zap.Int("from", version))
	}
	if _, err := this.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return errors.Wrap(err, "set user_version")
	}
	return nil
}

// Modules lists the module names in the database.
func (this *Store) Modules() ([]string, error) {
	rows, err := this.db.Query("SELECT name FROM modules ORDER BY name")
	if err != nil {
		return nil, errors.Wrap(err, "query modules")
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "scan module")
		}
		names = append(names, name)
	}
	return names, errors.Wrap(rows.Err(), "iterate modules")
}
