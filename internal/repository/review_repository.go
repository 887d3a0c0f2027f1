package repository

import (
	"context"
	"fmt"

	"globomart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// reviewRepository implements the ReviewRepository interface using PostgreSQL.
type reviewRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool *pgxpool.Pool, logger zerolog.Logger) ReviewRepository {
	return &reviewRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "review").Logger(),
	}
}

// Upsert creates or replaces the user's review and refreshes the product's ratings.
func (r *reviewRepository) Upsert(ctx context.Context, productID uuid.UUID, review *model.Review) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := r.lockProduct(ctx, tx, productID); err != nil {
			return err
		}

		query := `
			INSERT INTO reviews (id, product_id, user_id, rating, comment, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (product_id, user_id)
			DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment
			RETURNING id, created_at
		`

		err := tx.QueryRow(ctx, query,
			review.ID, productID, review.UserID, review.Rating, review.Comment, review.CreatedAt,
		).Scan(&review.ID, &review.CreatedAt)
		if err != nil {
			r.logger.Error().Err(err).
				Str("product_id", productID.String()).
				Str("user_id", review.UserID.String()).
				Msg("failed to upsert review")
			return fmt.Errorf("failed to upsert review: %w", translateError(err))
		}

		return r.recomputeRatings(ctx, tx, productID)
	})
}

// ListByProduct retrieves the reviews of a product with the reviewer's name.
func (r *reviewRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.Review, error) {
	query := `
		SELECT rv.id, rv.user_id, COALESCE(u.name, ''), rv.rating, rv.comment, rv.created_at
		FROM reviews rv
		LEFT JOIN users u ON u.id = rv.user_id
		WHERE rv.product_id = $1
		ORDER BY rv.created_at, rv.id
	`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to query reviews")
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.UserName, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan review row")
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating review rows")
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}

// Delete removes a review and recomputes the product's ratings from the remaining reviews.
func (r *reviewRepository) Delete(ctx context.Context, productID, reviewID uuid.UUID) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := r.lockProduct(ctx, tx, productID); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, "DELETE FROM reviews WHERE id = $1 AND product_id = $2", reviewID, productID)
		if err != nil {
			r.logger.Error().Err(err).Str("review_id", reviewID.String()).Msg("failed to delete review")
			return fmt.Errorf("failed to delete review: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrReviewNotFound
		}

		return r.recomputeRatings(ctx, tx, productID)
	})
}

// lockProduct serialises concurrent review writes on one product.
func (r *reviewRepository) lockProduct(ctx context.Context, tx pgx.Tx, productID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRow(ctx, "SELECT id FROM products WHERE id = $1 FOR UPDATE", productID).Scan(&id)
	if err != nil {
		if isNoRows(err) {
			return model.ErrProductNotFound
		}
		r.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to lock product")
		return fmt.Errorf("failed to lock product: %w", err)
	}
	return nil
}

func (r *reviewRepository) recomputeRatings(ctx context.Context, tx pgx.Tx, productID uuid.UUID) error {
	rows, err := tx.Query(ctx, "SELECT rating FROM reviews WHERE product_id = $1", productID)
	if err != nil {
		return fmt.Errorf("failed to query ratings: %w", err)
	}

	reviews, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Review, error) {
		var rv model.Review
		err := row.Scan(&rv.Rating)
		return rv, err
	})
	if err != nil {
		return fmt.Errorf("failed to collect ratings: %w", err)
	}

	_, err = tx.Exec(ctx,
		"UPDATE products SET ratings = $2, num_of_reviews = $3 WHERE id = $1",
		productID, model.AverageRating(reviews), len(reviews),
	)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to update ratings")
		return fmt.Errorf("failed to update ratings: %w", err)
	}

	r.logger.Debug().
		Str("product_id", productID.String()).
		Int("num_of_reviews", len(reviews)).
		Msg("ratings recomputed")

	return nil
}
