package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// dsnPragmas puts the database in WAL mode with foreign keys enforced.
const dsnPragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

// Store owns the rankpulse.db handle and hands out the per-port views.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens dataDir/rankpulse.db and brings its schema up to date. An
// empty dataDir means ~/.rankpulse/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".rankpulse", "data")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	path := filepath.Join(dataDir, "rankpulse.db")
	db, err := sql.Open("sqlite", path+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	sub, err := subFS(migrationFiles, "migrations")
	if err == nil {
		err = migrate(context.Background(), db, sub)
	}
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

func (s *Store) ReportStore() driven.ReportStore { return &reportStore{store: s} }

func (s *Store) SnapshotStore() driven.SnapshotStore { return &snapshotStore{store: s} }

// SnapshotWriter shares its implementation with SnapshotStore.
func (s *Store) SnapshotWriter() driven.SnapshotWriter { return &snapshotStore{store: s} }

func (s *Store) SchedulerStore() driven.SchedulerStore { return &schedulerStore{store: s} }
