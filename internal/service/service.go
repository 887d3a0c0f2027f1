package service

import (
	"context"
	"net/url"
	"time"

	"globomart/internal/model"

	"github.com/google/uuid"
)

// ProductService defines operations for the catalogue and product reviews.
type ProductService interface {
	// List runs a catalogue query from request parameters (keyword, filters, sort, page).
	List(ctx context.Context, params url.Values) (*model.ProductListResponse, error)

	// ListAll retrieves every product for the admin dashboard.
	ListAll(ctx context.Context) ([]model.Product, error)

	// GetByID retrieves a product with its reviews.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	Create(ctx context.Context, userID uuid.UUID, in *model.ProductInput) (*model.Product, error)
	Update(ctx context.Context, id uuid.UUID, in *model.ProductInput) (*model.Product, error)

	// Delete removes the product and its uploaded images.
	Delete(ctx context.Context, id uuid.UUID) error

	// UploadImages appends images given as base64 data URIs.
	UploadImages(ctx context.Context, id uuid.UUID, dataURIs []string) (*model.Product, error)
	DeleteImage(ctx context.Context, id uuid.UUID, publicID string) (*model.Product, error)

	// UpsertReview creates the user's review or updates it if one exists.
	UpsertReview(ctx context.Context, userID uuid.UUID, req *model.ReviewRequest) error
	ListReviews(ctx context.Context, productID uuid.UUID) ([]model.Review, error)

	// DeleteReview removes a review and returns the product with recomputed ratings.
	DeleteReview(ctx context.Context, productID, reviewID uuid.UUID) (*model.Product, error)

	// CanReview reports whether the user has ordered the product.
	CanReview(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

// OrderService defines operations for order management.
type OrderService interface {
	// Create places a cash-on-delivery order for the user.
	Create(ctx context.Context, userID uuid.UUID, req *model.OrderRequest) (*model.Order, error)

	// GetByID retrieves an order. Users may only see their own orders; admins see all.
	GetByID(ctx context.Context, id uuid.UUID, viewer *model.User) (*model.Order, error)

	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)

	// UpdateStatus moves the order forward in its lifecycle.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error)

	Delete(ctx context.Context, id uuid.UUID) error
}

// UserService defines authentication and account operations.
type UserService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error)

	// Authenticate resolves a session token to its user.
	Authenticate(ctx context.Context, token string) (*model.User, error)

	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req *model.UpdateProfileRequest) (*model.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, req *model.UpdatePasswordRequest) (*model.AuthResponse, error)
	UploadAvatar(ctx context.Context, id uuid.UUID, dataURI string) (*model.User, error)

	// ForgotPassword mails a reset link built on resetBaseURL to the account holder.
	ForgotPassword(ctx context.Context, email, resetBaseURL string) error
	ResetPassword(ctx context.Context, token string, req *model.ResetPasswordRequest) (*model.AuthResponse, error)

	List(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error)

	// DeleteUser removes the account and its avatar.
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// PaymentService bridges card checkout to orders.
type PaymentService interface {
	// CreateCheckoutSession returns the hosted checkout URL for the cart.
	CreateCheckoutSession(ctx context.Context, user *model.User, req *model.CheckoutRequest) (string, error)

	// HandleWebhook verifies and applies a provider event.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// SalesService defines admin reporting operations.
type SalesService interface {
	// GetSales returns the gap-filled daily sales between the UTC days of start and end.
	GetSales(ctx context.Context, start, end time.Time) (*model.SalesReport, error)
}
