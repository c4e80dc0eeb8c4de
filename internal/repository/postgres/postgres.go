package postgres

import (
	"context"
	"fmt"

	"github.com/gasolina/backend/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
	CREATE TABLE IF NOT EXISTS prediction_logs (
		id          TEXT PRIMARY KEY,
		state       TEXT NOT NULL,
		year        INTEGER NOT NULL,
		month       INTEGER NOT NULL,
		price       DOUBLE PRECISION NOT NULL,
		model_kind  TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS prediction_logs_created_at_idx ON prediction_logs (created_at DESC);
`

// PostgresRepository implements domain.PredictionRepository
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the prediction_logs table if it does not exist
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: failed to create schema: %w", err)
	}
	return nil
}

// SavePrediction persists a prediction log to PostgreSQL
func (r *PostgresRepository) SavePrediction(ctx context.Context, log domain.PredictionLog) error {
	query := `
		INSERT INTO prediction_logs (id, state, year, month, price, model_kind, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		log.ID, log.State, log.Year, log.Month, log.Price, log.ModelKind, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save prediction log: %w", err)
	}

	return nil
}

// RecentPredictions retrieves the latest prediction logs from PostgreSQL
func (r *PostgresRepository) RecentPredictions(ctx context.Context, limit int) ([]domain.PredictionLog, error) {
	query := `
		SELECT id, state, year, month, price, model_kind, created_at
		FROM prediction_logs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query prediction logs: %w", err)
	}
	defer rows.Close()

	var results []domain.PredictionLog
	for rows.Next() {
		var p domain.PredictionLog
		err := rows.Scan(&p.ID, &p.State, &p.Year, &p.Month, &p.Price, &p.ModelKind, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan prediction row: %w", err)
		}
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to iterate prediction rows: %w", err)
	}

	return results, nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}
