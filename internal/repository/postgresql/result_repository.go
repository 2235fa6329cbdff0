package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stats-service/internal/entity"
)

// ResultRepository stores job results in the job_results table. The column is
// JSON rather than JSONB so the stored text comes back byte for byte.
type ResultRepository struct {
	pool *pgxpool.Pool
}

func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

func (r *ResultRepository) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS job_results (
	id         BIGINT PRIMARY KEY,
	result     JSON NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
	if _, err := r.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("ensure job_results: %w", err)
	}
	return nil
}

func (r *ResultRepository) Put(ctx context.Context, id entity.JobID, result any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result %d: %w", id, err)
	}

	const q = `
INSERT INTO job_results (id, result)
VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET result = EXCLUDED.result;
`
	if _, err := r.pool.Exec(ctx, q, int64(id), string(data)); err != nil {
		return fmt.Errorf("put result %d: %w", id, err)
	}
	return nil
}

func (r *ResultRepository) Get(ctx context.Context, id entity.JobID) (json.RawMessage, error) {
	const q = `SELECT result::text FROM job_results WHERE id = $1;`

	var text string
	if err := r.pool.QueryRow(ctx, q, int64(id)).Scan(&text); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrNotFound
		}
		return nil, fmt.Errorf("get result %d: %w", id, err)
	}
	return json.RawMessage(text), nil
}
