package repository

import (
	"context"
	"testing"
	"time"

	"globomart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewRepository_UpsertRecomputesRatings(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	reviews := NewReviewRepository(pool, zerolog.Nop())
	products := NewProductRepository(pool, zerolog.Nop())
	jane := seedUser(t, pool, "Jane", "jane@example.com", model.RoleUser)
	john := seedUser(t, pool, "John", "john@example.com", model.RoleUser)
	p := catalogue(t)[:1]
	seedProducts(t, pool, p)

	ctx := context.Background()
	upsert := func(userID uuid.UUID, rating float64, comment string) {
		t.Helper()
		require.NoError(t, reviews.Upsert(ctx, p[0].ID, &model.Review{
			ID:        uuid.New(),
			UserID:    userID,
			Rating:    rating,
			Comment:   comment,
			CreatedAt: time.Now().UTC(),
		}))
	}

	upsert(jane.ID, 5, "great")
	upsert(john.ID, 2, "meh")

	got, err := products.GetByID(ctx, p[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 3.5, got.Ratings)
	assert.Equal(t, 2, got.NumOfReviews)

	// A second review by the same user replaces the first.
	upsert(jane.ID, 3, "changed my mind")

	list, err := reviews.ListByProduct(ctx, p[0].ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Jane", list[0].UserName)
	assert.Equal(t, "changed my mind", list[0].Comment)

	got, err = products.GetByID(ctx, p[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 2.5, got.Ratings)
	assert.Equal(t, 2, got.NumOfReviews)
}

func TestReviewRepository_DeleteRecomputesFromRemaining(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	reviews := NewReviewRepository(pool, zerolog.Nop())
	products := NewProductRepository(pool, zerolog.Nop())
	jane := seedUser(t, pool, "Jane", "jane@example.com", model.RoleUser)
	john := seedUser(t, pool, "John", "john@example.com", model.RoleUser)
	p := catalogue(t)[:1]
	seedProducts(t, pool, p)

	ctx := context.Background()
	janeReview := &model.Review{ID: uuid.New(), UserID: jane.ID, Rating: 5, Comment: "great", CreatedAt: time.Now()}
	johnReview := &model.Review{ID: uuid.New(), UserID: john.ID, Rating: 1, Comment: "bad", CreatedAt: time.Now()}
	require.NoError(t, reviews.Upsert(ctx, p[0].ID, janeReview))
	require.NoError(t, reviews.Upsert(ctx, p[0].ID, johnReview))

	require.NoError(t, reviews.Delete(ctx, p[0].ID, johnReview.ID))

	got, err := products.GetByID(ctx, p[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.Ratings)
	assert.Equal(t, 1, got.NumOfReviews)

	require.NoError(t, reviews.Delete(ctx, p[0].ID, janeReview.ID))

	got, err = products.GetByID(ctx, p[0].ID)
	require.NoError(t, err)
	assert.Zero(t, got.Ratings)
	assert.Zero(t, got.NumOfReviews)

	assert.ErrorIs(t, reviews.Delete(ctx, p[0].ID, janeReview.ID), model.ErrReviewNotFound)
	assert.ErrorIs(t, reviews.Delete(ctx, uuid.New(), janeReview.ID), model.ErrProductNotFound)
}

func TestReviewRepository_RejectsOutOfRangeRating(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	reviews := NewReviewRepository(pool, zerolog.Nop())
	jane := seedUser(t, pool, "Jane", "jane@example.com", model.RoleUser)
	p := catalogue(t)[:1]
	seedProducts(t, pool, p)

	err := reviews.Upsert(context.Background(), p[0].ID, &model.Review{
		ID: uuid.New(), UserID: jane.ID, Rating: 9, Comment: "x", CreatedAt: time.Now(),
	})
	assert.ErrorIs(t, err, model.ErrValidation)
}
