package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store implements the app repositories on Postgres. Methods join the
// transaction carried by ctx when there is one.
type Store struct {
	conn
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{conn: conn{pool: pool}}
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, s.pool, fn)
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
