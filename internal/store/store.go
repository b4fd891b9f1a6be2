// Package store picks the storage backend for the running process.
//
// The SQLite file database is the default. When a Postgres DSN is configured
// the same repository interfaces are served by pgx instead.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/yatube/internal/repository"
	"github.com/sakif/yatube/internal/repository/postgres"
	"github.com/sakif/yatube/internal/repository/sqlite"
)

type Config struct {
	DBPath      string
	DatabaseURL string
}

// Store bundles the repositories of one backend with its Close.
type Store struct {
	Users  repository.UserRepository
	Groups repository.GroupRepository
	Posts  repository.PostRepository

	Backend string
	close   func() error
}

func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open connects to Postgres if cfg.DatabaseURL is set and to the SQLite file
// at cfg.DBPath otherwise. The SQLite parent directory is created if needed.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.DatabaseURL != "" {
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		logger.Info("using postgres store")
		return &Store{
			Users:   db.Users(),
			Groups:  db.Groups(),
			Posts:   db.Posts(),
			Backend: "postgres",
			close:   db.Close,
		}, nil
	}

	if cfg.DBPath != ":memory:" {
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("store: creating database directory %s: %w", dir, err)
		}
	}

	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	logger.Info("using sqlite store", slog.String("path", cfg.DBPath))
	return FromSQLite(db), nil
}

// FromSQLite wraps an already open SQLite database.
func FromSQLite(db *sqlite.DB) *Store {
	return &Store{
		Users:   db.Users(),
		Groups:  db.Groups(),
		Posts:   db.Posts(),
		Backend: "sqlite",
		close:   db.Close,
	}
}
