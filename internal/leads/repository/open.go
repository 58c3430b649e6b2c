package repository

import (
	"context"
	"database/sql"
	"fmt"

	"leadagent_backend/platform/config"
	"leadagent_backend/platform/db"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Backend is an opened and migrated store plus its connection lifecycle.
type Backend struct {
	Repository
	Kind   string
	health interface{ Ping(ctx context.Context) error }
	close  func()
}

// Ping checks the underlying connection.
func (b *Backend) Ping(ctx context.Context) error {
	return b.health.Ping(ctx)
}

// Close releases the connection.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Open connects to the configured backend and applies its migrations.
func Open(ctx context.Context, cfg config.StoreConfig) (*Backend, error) {
	switch cfg.GetStoreBackend() {
	case config.StoreBackendRemote:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect remote store: %w", err)
		}
		repo := NewRemote(pool)
		if err := repo.Migrate(); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate remote store: %w", err)
		}
		return remoteBackend(repo, pool), nil

	case "", config.StoreBackendLocal:
		conn, err := db.OpenSQLite(cfg.GetSQLitePath())
		if err != nil {
			return nil, fmt.Errorf("open local store: %w", err)
		}
		repo := NewLocal(conn)
		if err := repo.Migrate(); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("migrate local store: %w", err)
		}
		return localBackend(repo, conn), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.GetStoreBackend())
	}
}

func remoteBackend(repo *RemoteRepository, pool *pgxpool.Pool) *Backend {
	return &Backend{
		Repository: repo,
		Kind:       config.StoreBackendRemote,
		health:     db.NewPoolAdapter(pool),
		close:      pool.Close,
	}
}

func localBackend(repo *LocalRepository, conn *sql.DB) *Backend {
	return &Backend{
		Repository: repo,
		Kind:       config.StoreBackendLocal,
		health:     db.NewSQLAdapter(conn),
		close:      func() { _ = conn.Close() },
	}
}
