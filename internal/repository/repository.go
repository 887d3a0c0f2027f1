package repository

import (
	"context"
	"time"

	"globomart/internal/apifilter"
	"globomart/internal/model"
	"globomart/internal/sales"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// Find executes a catalogue query. It returns one page of products and the
	// number of products matching the query's filters regardless of pagination.
	Find(ctx context.Context, q apifilter.Query) ([]model.Product, int, error)

	// ListAll retrieves every product, newest first.
	ListAll(ctx context.Context) ([]model.Product, error)

	// GetByID retrieves a single product by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)

	// ValidateProductsExist checks if all provided product IDs exist in the database.
	// Returns model.ErrProductsNotFound if any product ID does not exist.
	ValidateProductsExist(ctx context.Context, ids []uuid.UUID) error

	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	UpdateImages(ctx context.Context, id uuid.UUID, images []model.Image) error
	Delete(ctx context.Context, id uuid.UUID) error

	// DecrementStock subtracts each item's quantity from its product's stock
	// within the provided transaction. Stock is not floored at zero.
	DecrementStock(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error
}

// ReviewRepository defines the interface for product review operations. Every
// write recomputes the product's ratings and review count in the same transaction.
type ReviewRepository interface {
	// Upsert creates the user's review of the product or replaces its rating and comment.
	Upsert(ctx context.Context, productID uuid.UUID, review *model.Review) error

	// ListByProduct retrieves the reviews of a product, oldest first.
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.Review, error)

	// Delete removes a review. Returns model.ErrReviewNotFound when it does not belong to the product.
	Delete(ctx context.Context, productID, reviewID uuid.UUID) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts the order's line items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items and owner summary.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// LockStatus reads the order's status and locks its row until tx ends.
	LockStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID) (model.OrderStatus, error)

	// UpdateStatus writes the order's status, delivery time and payment status within tx.
	UpdateStatus(ctx context.Context, tx pgx.Tx, order *model.Order) error

	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// HasOrderedProduct reports whether the user has an order containing the product.
	HasOrderedProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error)

	// SalesByDay groups orders created in [start, end] by UTC calendar date.
	SalesByDay(ctx context.Context, start, end time.Time) (map[string]sales.Group, error)
}

// ProcessedEventRepository records payment provider events that have been applied.
type ProcessedEventRepository interface {
	// IsProcessed reports whether the event has already been recorded.
	IsProcessed(ctx context.Context, eventID string) (bool, error)

	// MarkProcessed records the event within tx. It returns false without error
	// when the event was already recorded by another transaction.
	MarkProcessed(ctx context.Context, tx pgx.Tx, eventID, eventType string, orderID uuid.UUID) (bool, error)
}

// UserRepository defines the interface for user account operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// GetByResetToken retrieves the user holding an unexpired reset token hash.
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error)

	List(ctx context.Context) ([]model.User, error)

	// Update writes name, email, role and avatar.
	Update(ctx context.Context, user *model.User) error

	// UpdatePassword stores a new password hash and clears any reset token.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error

	// SetResetToken stores or, with nil arguments, clears the reset token hash and expiry.
	SetResetToken(ctx context.Context, id uuid.UUID, tokenHash *string, expire *time.Time) error

	Delete(ctx context.Context, id uuid.UUID) error
}
