package pipeline

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minios-linux/pagetrans/config"
)

// PostgresStatusStore implements StatusStore on the public.pdf table.
type PostgresStatusStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStatusStore connects and pings the database.
func NewPostgresStatusStore(ctx context.Context, cfg config.DatabaseConfig) (*PostgresStatusStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStatusStore{pool: pool}, nil
}

// SetStatus implements StatusStore.
func (s *PostgresStatusStore) SetStatus(ctx context.Context, pdfKey, status string) error {
	query := `UPDATE public.pdf SET status = $1 WHERE pdf_key = $2`

	if _, err := s.pool.Exec(ctx, query, status, pdfKey); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStatusStore) Close() {
	s.pool.Close()
}
