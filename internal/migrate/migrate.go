// Package migrate applies the embedded SQL migrations with goose.
package migrate

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/and161185/crudkeeper/migrations"
)

// Migrator wraps a goose provider bound to one database.
type Migrator struct {
	db  *sql.DB
	p   *goose.Provider
	log *zap.Logger
}

// Open connects to dsn through the pgx stdlib driver.
func Open(dsn string, log *zap.Logger) (*Migrator, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	m, err := New(db, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}

// New binds a Migrator to an open database.
func New(db *sql.DB, log *zap.Logger) (*Migrator, error) {
	if log == nil {
		log = zap.NewNop()
	}
	p, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Migrator{db: db, p: p, log: log}, nil
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) error {
	res, err := m.p.Up(ctx)
	for _, r := range res {
		m.log.Info("migration applied",
			zap.Int64("version", r.Source.Version),
			zap.String("file", r.Source.Path),
			zap.Duration("dur", r.Duration),
		)
	}
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) error {
	r, err := m.p.Down(ctx)
	if err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	m.log.Info("migration rolled back", zap.Int64("version", r.Source.Version))
	return nil
}

// Version reports the current schema version.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	return m.p.GetDBVersion(ctx)
}

// Close closes the database handle.
func (m *Migrator) Close() error { return m.db.Close() }

// Up is a one-shot helper for startup: open, apply, close.
func Up(ctx context.Context, dsn string, log *zap.Logger) error {
	m, err := Open(dsn, log)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up(ctx)
}
