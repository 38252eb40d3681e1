// Package builder assembles the application dependencies from configuration.
package builder

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/jwhyun/plywood/internal/archive"
	"github.com/jwhyun/plywood/internal/config"
	"github.com/jwhyun/plywood/internal/engine"
	"github.com/jwhyun/plywood/internal/matchstore"
	"github.com/jwhyun/plywood/internal/render"
	"github.com/jwhyun/plywood/internal/service/arena"
)

// Deps are the wired application services.
type Deps struct {
	Engine   *engine.Engine
	Store    *matchstore.Store
	Repo     archive.Repository
	Renderer render.BoardRenderer
	Arena    *arena.Arena

	db *sql.DB
}

// New wires everything. Redis and Postgres are both optional: without redis
// there are no live snapshots, without Postgres the archive lives in memory.
func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	eng := engine.New(engine.WithDepth(cfg.SearchDepth), engine.WithLogger(logger))

	var store *matchstore.Store
	if strings.TrimSpace(cfg.RedisURL) != "" {
		s, err := matchstore.New(cfg.RedisURL, time.Duration(cfg.SnapshotTTLSec)*time.Second)
		if err != nil {
			return nil, fmt.Errorf("init match store: %w", err)
		}
		store = s
	}

	var repo archive.Repository
	var db *sql.DB
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(16)
		db.SetMaxIdleConns(8)
		db.SetConnMaxLifetime(30 * time.Minute)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		repo = archive.NewRepository(db)
		logger.Info("archive_postgres_ready")
	} else {
		repo = archive.NewMemoryRepository()
		logger.Info("archive_memory_fallback")
	}

	return &Deps{
		Engine:   eng,
		Store:    store,
		Repo:     repo,
		Renderer: render.NewRenderer(),
		Arena:    arena.New(eng, store, repo),
		db:       db,
	}, nil
}

// Close releases the external connections.
func (d *Deps) Close() {
	if d == nil {
		return
	}
	if d.Store != nil {
		_ = d.Store.Close()
	}
	if d.db != nil {
		_ = d.db.Close()
	}
}
