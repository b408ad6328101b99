package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"prep-progress-service/internal/domain"
)

// DocumentStore persists user documents as JSONB rows in Postgres. This is
// the durable backend; production deployments front it with the Redis cache.
type DocumentStore struct {
	pool *pgxpool.Pool
}

func NewDocumentStore(pool *pgxpool.Pool) *DocumentStore {
	return &DocumentStore{pool: pool}
}

func (s *DocumentStore) Get(ctx context.Context, userID, name string) ([]byte, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM progress_documents WHERE user_id=$1 AND name=$2`,
		userID, name).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s document: %w", name, err)
	}
	return raw, nil
}

func (s *DocumentStore) Set(ctx context.Context, userID, name string, data []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO progress_documents (user_id, name, data, updated_at)
		 VALUES ($1, $2, $3::jsonb, now())
		 ON CONFLICT (user_id, name) DO UPDATE SET data=EXCLUDED.data, updated_at=now()`,
		userID, name, data)
	if err != nil {
		return fmt.Errorf("save %s document: %w", name, err)
	}
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM progress_documents WHERE user_id=$1`, userID)
	if err != nil {
		return fmt.Errorf("clear documents: %w", err)
	}
	return nil
}
