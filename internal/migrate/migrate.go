// Package migrate runs the embedded SQL migrations with golang-migrate on
// top of a lib/pq connection.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	gomigrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"
)

// ErrMissingDown is returned when an up migration has no down counterpart.
var ErrMissingDown = errors.New("migration has no down file")

// Open connects to PostgreSQL with the lib/pq connector.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	connector, err := pq.NewConnector(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Versions lists the migration versions in fsys in order and checks that
// each has both an up and a down file.
func Versions(fsys fs.FS) ([]uint, error) {
	src, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	defer src.Close()

	var versions []uint
	v, err := src.First()
	for err == nil {
		if err := readable(src, v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
		v, err = src.Next(v)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	return versions, nil
}

func readable(src source.Driver, version uint) error {
	up, _, err := src.ReadUp(version)
	if err != nil {
		return fmt.Errorf("migration %d has no up file: %w", version, err)
	}
	_ = up.Close()

	down, _, err := src.ReadDown(version)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("migration %d: %w", version, ErrMissingDown)
	}
	if err != nil {
		return fmt.Errorf("read down migration %d: %w", version, err)
	}
	return down.Close()
}

// Migrator applies and rolls back the migrations in an fs.FS. Progress is
// tracked by golang-migrate in the schema_migrations table under a
// PostgreSQL advisory lock.
type Migrator struct {
	m      *gomigrate.Migrate
	logger *slog.Logger
}

// New creates a Migrator for db. Closing the Migrator closes db.
func New(db *sql.DB, fsys fs.FS, logger *slog.Logger) (*Migrator, error) {
	src, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("init postgres driver: %w", err)
	}

	m, err := gomigrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("init migrator: %w", err)
	}
	m.Log = logAdapter{logger: logger}

	return &Migrator{m: m, logger: logger}, nil
}

// Up applies every pending migration. Nothing pending is not an error.
func (m *Migrator) Up(ctx context.Context) error {
	defer m.stopOnCancel(ctx)()

	if err := m.m.Up(); err != nil && !errors.Is(err, gomigrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Down rolls back the most recent steps migrations.
func (m *Migrator) Down(ctx context.Context, steps int) error {
	if steps < 1 {
		return fmt.Errorf("steps must be at least 1, got %d", steps)
	}
	defer m.stopOnCancel(ctx)()

	if err := m.m.Steps(-steps); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// Version returns the applied schema version, 0 when nothing has been
// applied, and whether a previous run failed halfway.
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = m.m.Version()
	if errors.Is(err, gomigrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}

// Force records version as applied and clears the dirty flag without
// running any SQL. It is the manual way out of a failed migration.
func (m *Migrator) Force(version int) error {
	if err := m.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	m.logger.Warn("schema version forced", slog.Int("version", version))
	return nil
}

// Close releases the migration source and the database.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}

// stopOnCancel asks golang-migrate to stop after the current migration
// when ctx is cancelled. The returned func ends the watch.
func (m *Migrator) stopOnCancel(ctx context.Context) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			select {
			case m.m.GracefulStop <- true:
			default:
			}
		case <-done:
		}
	}()
	return func() { close(done) }
}

// logAdapter routes golang-migrate's Printf logging to slog.
type logAdapter struct {
	logger *slog.Logger
}

func (l logAdapter) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "migrate"))
}

func (l logAdapter) Verbose() bool { return false }
