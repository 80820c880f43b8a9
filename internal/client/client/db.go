package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/migrations"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/repositories/kv"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/filex"
)

const (
	DriverSQLite  = "sqlite"
	DriverLevelDB = "leveldb"
	DriverMemory  = "memory"
)

// Store is an opened durable tier.
type Store struct {
	KV    kv.Repository
	close func() error
}

func (s *Store) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the SQLite file at dsn and migrates it.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one writer; transactions in kv.Atomic would otherwise hit SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenStore opens the durable tier named by driver at path. The memory
// driver ignores path.
func OpenStore(ctx context.Context, driver, path string) (*Store, error) {
	if driver != DriverMemory {
		if _, err := filex.EnsureParentDir(path); err != nil {
			return nil, fmt.Errorf("preparing store directory: %w", err)
		}
	}
	switch driver {
	case DriverSQLite, "":
		db, err := InitDatabase(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store %q: %w", path, err)
		}
		return &Store{KV: kv.NewSQLiteRepository(db), close: db.Close}, nil
	case DriverLevelDB:
		r, err := kv.OpenLevelDB(path)
		if err != nil {
			return nil, fmt.Errorf("opening leveldb store %q: %w", path, err)
		}
		return &Store{KV: r, close: r.Close}, nil
	case DriverMemory:
		r, err := kv.NewMemLevelDB()
		if err != nil {
			return nil, fmt.Errorf("opening memory store: %w", err)
		}
		return &Store{KV: r, close: r.Close}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
