package repository

import (
	"context"
	"fmt"
	"time"

	"globomart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const userColumns = `id, name, email, password_hash, role, avatar, reset_password_token,
	reset_password_expire, created_at`

func scanUser(row rowScanner) (model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Avatar, &u.ResetPasswordToken,
		&u.ResetPasswordExpire, &u.CreatedAt,
	)
	return u, err
}

// userRepository implements the UserRepository interface using PostgreSQL.
type userRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool, logger zerolog.Logger) UserRepository {
	return &userRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "user").Logger(),
	}
}

// Create inserts a new user. A taken email yields a duplicate key error.
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, role, avatar, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query, u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.Avatar, u.CreatedAt)
	if err != nil {
		r.logger.Warn().Err(err).Str("user_id", u.ID.String()).Msg("failed to create user")
		return fmt.Errorf("failed to create user: %w", translateError(err))
	}
	return nil
}

func (r *userRepository) getOne(ctx context.Context, field, query string, args ...any) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("by", field).Msg("user not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("by", field).Msg("failed to query user")
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.getOne(ctx, "id", "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

// GetByEmail retrieves a user by email, case-insensitively.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, "email", "SELECT "+userColumns+" FROM users WHERE lower(email) = lower($1)", email)
}

// GetByResetToken retrieves the user holding tokenHash if it expires after now.
func (r *userRepository) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error) {
	return r.getOne(ctx, "reset_token",
		"SELECT "+userColumns+" FROM users WHERE reset_password_token = $1 AND reset_password_expire > $2",
		tokenHash, now,
	)
}

// List retrieves all users, oldest first.
func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at, id")
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query users")
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan user row")
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating user rows")
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// Update writes name, email, role and avatar.
func (r *userRepository) Update(ctx context.Context, u *model.User) error {
	query := `UPDATE users SET name = $2, email = $3, role = $4, avatar = $5 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, u.ID, u.Name, u.Email, u.Role, u.Avatar)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", u.ID.String()).Msg("failed to update user")
		return fmt.Errorf("failed to update user: %w", translateError(err))
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// UpdatePassword stores a new hash and clears the reset token.
func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, reset_password_token = NULL, reset_password_expire = NULL
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to update password")
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// SetResetToken stores or clears the reset token.
func (r *userRepository) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash *string, expire *time.Time) error {
	query := `UPDATE users SET reset_password_token = $2, reset_password_expire = $3 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, tokenHash, expire)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to set reset token")
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// Delete removes a user. Their orders and reviews go with them, and the
// ratings of every product they reviewed are recomputed in the same transaction.
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, "SELECT DISTINCT product_id FROM reviews WHERE user_id = $1", id)
		if err != nil {
			return fmt.Errorf("failed to query reviewed products: %w", err)
		}
		reviewed, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
		if err != nil {
			return fmt.Errorf("failed to collect reviewed products: %w", err)
		}

		tag, err := tx.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
		if err != nil {
			r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to delete user")
			return fmt.Errorf("failed to delete user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrUserNotFound
		}

		if len(reviewed) == 0 {
			return nil
		}

		query := `
			UPDATE products p
			SET ratings = COALESCE((SELECT AVG(rating) FROM reviews WHERE product_id = p.id), 0),
			    num_of_reviews = (SELECT COUNT(*) FROM reviews WHERE product_id = p.id)
			WHERE p.id = ANY($1)
		`
		if _, err := tx.Exec(ctx, query, reviewed); err != nil {
			r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to recompute ratings")
			return fmt.Errorf("failed to recompute ratings: %w", err)
		}
		return nil
	})
}
