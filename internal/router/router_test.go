package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"globomart/internal/handler"
	"globomart/internal/middleware"
	"globomart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticAuthenticator resolves a fixed set of tokens.
type staticAuthenticator map[string]*model.User

func (a staticAuthenticator) Authenticate(_ context.Context, token string) (*model.User, error) {
	if user, ok := a[token]; ok {
		return user, nil
	}
	return nil, model.ErrInvalidToken
}

func newTestRouter(t *testing.T, uploadsDir string) http.Handler {
	t.Helper()

	logger := zerolog.Nop()
	authenticator := staticAuthenticator{
		"user-token":  {ID: uuid.New(), Name: "Ada", Role: model.RoleUser},
		"admin-token": {ID: uuid.New(), Name: "Root", Role: model.RoleAdmin},
	}

	handlers := Handlers{
		Product: handler.NewProductHandler(nil, false, logger),
		Order:   handler.NewOrderHandler(nil, false, logger),
		User:    handler.NewUserHandler(nil, 0, "", false, logger),
		Payment: handler.NewPaymentHandler(nil, false, logger),
		Sales:   handler.NewSalesHandler(nil, false, logger),
	}

	return New(handlers, middleware.NewAuth(authenticator, false, logger), Options{
		AllowedOrigin: "https://shop.example.com",
		UploadsDir:    uploadsDir,
	}, logger)
}

func TestRouter_Health(t *testing.T) {
	r := newTestRouter(t, "")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "healthy"}`, w.Body.String())
}

func TestRouter_AccessControl(t *testing.T) {
	r := newTestRouter(t, "")

	tests := []struct {
		name           string
		method         string
		path           string
		token          string
		expectedStatus int
	}{
		{
			name:           "Profile requires login",
			method:         http.MethodGet,
			path:           "/api/me",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Invalid token",
			method:         http.MethodPost,
			path:           "/api/orders/new",
			token:          "forged",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Admin route rejects users",
			method:         http.MethodGet,
			path:           "/api/admin/users",
			token:          "user-token",
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "Sales report rejects users",
			method:         http.MethodGet,
			path:           "/api/admin/get_sales?startDate=2024-01-01&endDate=2024-01-02",
			token:          "user-token",
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "Admin reaches handler",
			method:         http.MethodDelete,
			path:           "/api/admin/orders/not-a-uuid",
			token:          "admin-token",
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Wrong method",
			method:         http.MethodDelete,
			path:           "/api/products",
			expectedStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.AddCookie(&http.Cookie{Name: middleware.TokenCookie, Value: tt.token})
			}
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestRouter_Preflight(t *testing.T) {
	r := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodOptions, "/api/orders/new", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_ServesUploads(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "products"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "products", "a.txt"), []byte("image-bytes"), 0o644))

	r := newTestRouter(t, dir)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/products/a.txt", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image-bytes", w.Body.String())
}
