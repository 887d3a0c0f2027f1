package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// processedEventRepository implements the ProcessedEventRepository interface using PostgreSQL.
type processedEventRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProcessedEventRepository creates a new PostgreSQL-backed processed event repository.
func NewProcessedEventRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProcessedEventRepository {
	return &processedEventRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "processed_event").Logger(),
	}
}

// IsProcessed reports whether the event id has been recorded.
func (r *processedEventRepository) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM processed_events WHERE event_id = $1)", eventID,
	).Scan(&ok)
	if err != nil {
		r.logger.Error().Err(err).Str("event_id", eventID).Msg("failed to check processed event")
		return false, fmt.Errorf("failed to check processed event: %w", err)
	}
	return ok, nil
}

// MarkProcessed inserts the event record within tx. A concurrent transaction
// holding the same event id blocks this insert until it commits or rolls back.
func (r *processedEventRepository) MarkProcessed(ctx context.Context, tx pgx.Tx, eventID, eventType string, orderID uuid.UUID) (bool, error) {
	query := `
		INSERT INTO processed_events (event_id, event_type, order_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id) DO NOTHING
	`

	tag, err := tx.Exec(ctx, query, eventID, eventType, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("event_id", eventID).Msg("failed to record processed event")
		return false, fmt.Errorf("failed to record processed event: %w", err)
	}

	inserted := tag.RowsAffected() == 1
	if !inserted {
		r.logger.Info().Str("event_id", eventID).Msg("event already processed")
	}
	return inserted, nil
}
