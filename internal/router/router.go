package router

import (
	"net/http"

	"globomart/internal/handler"
	"globomart/internal/middleware"
	"globomart/internal/model"

	"github.com/rs/zerolog"
)

// MaxBodyBytes bounds request bodies; image uploads arrive as base64 JSON.
const MaxBodyBytes = 10 << 20

// UploadsPath is where locally stored images are served from.
const UploadsPath = "/uploads/"

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Product *handler.ProductHandler
	Order   *handler.OrderHandler
	User    *handler.UserHandler
	Payment *handler.PaymentHandler
	Sales   *handler.SalesHandler
}

// Options configures cross-cutting router behaviour.
type Options struct {
	AllowedOrigin string
	// UploadsDir is served under UploadsPath when set.
	UploadsDir string
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, auth *middleware.Auth, opts Options, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	if opts.UploadsDir != "" {
		mux.Handle("GET "+UploadsPath, http.StripPrefix(UploadsPath, http.FileServer(http.Dir(opts.UploadsDir))))
	}

	user := func(fn http.HandlerFunc) http.Handler {
		return auth.IsAuthenticated(fn)
	}
	admin := func(fn http.HandlerFunc) http.Handler {
		return auth.IsAuthenticated(auth.AuthorizeRoles(model.RoleAdmin)(fn))
	}

	// Catalogue
	mux.HandleFunc("GET /api/products", h.Product.List)
	mux.HandleFunc("GET /api/products/{id}", h.Product.GetByID)
	mux.Handle("GET /api/admin/products", admin(h.Product.ListAll))
	mux.Handle("POST /api/admin/products", admin(h.Product.Create))
	mux.Handle("PUT /api/admin/products/{id}", admin(h.Product.Update))
	mux.Handle("DELETE /api/admin/products/{id}", admin(h.Product.Delete))
	mux.Handle("PUT /api/admin/products/{id}/upload_images", admin(h.Product.UploadImages))
	mux.Handle("PUT /api/admin/products/{id}/delete_image", admin(h.Product.DeleteImage))

	// Reviews
	mux.Handle("PUT /api/reviews", user(h.Product.UpsertReview))
	mux.Handle("GET /api/reviews", user(h.Product.ListReviews))
	mux.Handle("DELETE /api/admin/reviews", admin(h.Product.DeleteReview))
	mux.Handle("GET /api/can_review", user(h.Product.CanReview))

	// Orders
	mux.Handle("POST /api/orders/new", user(h.Order.Create))
	mux.Handle("GET /api/orders/{id}", user(h.Order.GetByID))
	mux.Handle("GET /api/me/orders", user(h.Order.MyOrders))
	mux.Handle("GET /api/admin/orders", admin(h.Order.ListAll))
	mux.Handle("PUT /api/admin/orders/{id}", admin(h.Order.UpdateStatus))
	mux.Handle("DELETE /api/admin/orders/{id}", admin(h.Order.Delete))
	mux.Handle("GET /api/admin/get_sales", admin(h.Sales.GetSales))

	// Payments
	mux.Handle("POST /api/payment/checkout_session", user(h.Payment.CheckoutSession))
	mux.HandleFunc("POST /api/payment/webhook", h.Payment.Webhook)

	// Accounts
	mux.HandleFunc("POST /api/register", h.User.Register)
	mux.HandleFunc("POST /api/login", h.User.Login)
	mux.HandleFunc("GET /api/logout", h.User.Logout)
	mux.HandleFunc("POST /api/password/forgot", h.User.ForgotPassword)
	mux.HandleFunc("PUT /api/password/reset/{token}", h.User.ResetPassword)
	mux.Handle("GET /api/me", user(h.User.Me))
	mux.Handle("PUT /api/me/update", user(h.User.UpdateProfile))
	mux.Handle("PUT /api/password/update", user(h.User.UpdatePassword))
	mux.Handle("PUT /api/me/upload_avatar", user(h.User.UploadAvatar))
	mux.Handle("GET /api/admin/users", admin(h.User.List))
	mux.Handle("GET /api/admin/users/{id}", admin(h.User.GetUser))
	mux.Handle("PUT /api/admin/users/{id}", admin(h.User.UpdateUser))
	mux.Handle("DELETE /api/admin/users/{id}", admin(h.User.DeleteUser))

	// Apply middleware in order: Recovery -> Logging -> CORS -> MaxBytes
	var handler http.Handler = mux
	handler = middleware.MaxBytes(MaxBodyBytes)(handler)
	handler = middleware.CORS(opts.AllowedOrigin)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
