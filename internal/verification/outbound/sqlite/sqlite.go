// Package sqlite stores verification codes in an embedded SQLite database,
// for single-node deployments and local development.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/shandysiswandi/gootp/internal/pkg/goerror"
	"github.com/shandysiswandi/gootp/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

type SQLite struct {
	db  *sql.DB
	ins instrument.Instrumentation
}

// Open opens the database at dsn (a file path or ":memory:").
//
// SQLite allows one writer at a time, so the pool is capped at a single
// connection. This also keeps ":memory:" databases shared across calls.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func NewSQLite(db *sql.DB, ins instrument.Instrumentation) *SQLite {
	return &SQLite{db: db, ins: ins}
}

// Migrate applies the embedded up migrations.
func Migrate(db *sql.DB) error {
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return err
	}

	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

func (s *SQLite) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return goerror.ErrNotFound
	}

	// modernc reports constraint failures as "constraint failed: UNIQUE constraint failed: ..."
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return goerror.ErrConflict
	}

	return err
}

func (s *SQLite) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("verification.outbound.sqlite").Start(ctx, name)
}

func (s *SQLite) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
