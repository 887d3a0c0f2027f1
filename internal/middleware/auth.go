package middleware

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"globomart/internal/model"

	"github.com/rs/zerolog"
)

// TokenCookie is the name of the session cookie.
const TokenCookie = "token"

type contextKey struct{}

// Authenticator resolves a session token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// Auth guards routes that need a signed-in user.
type Auth struct {
	authenticator Authenticator
	development   bool
	logger        zerolog.Logger
}

// NewAuth creates the authentication middleware.
func NewAuth(authenticator Authenticator, development bool, logger zerolog.Logger) *Auth {
	return &Auth{
		authenticator: authenticator,
		development:   development,
		logger:        logger.With().Str("middleware", "auth").Logger(),
	}
}

// IsAuthenticated reads the session token from the cookie or a Bearer header
// and stores the user in the request context.
func (a *Auth) IsAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			WriteError(w, model.ErrLoginRequired, a.development)
			return
		}

		user, err := a.authenticator.Authenticate(r.Context(), token)
		if err != nil {
			a.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("authentication failed")
			WriteError(w, err, a.development)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// AuthorizeRoles rejects users whose role is not listed. It must run after IsAuthenticated.
func (a *Auth) AuthorizeRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				WriteError(w, model.ErrLoginRequired, a.development)
				return
			}

			if !slices.Contains(roles, user.Role) {
				a.logger.Warn().
					Str("user_id", user.ID.String()).
					Str("role", user.Role).
					Str("path", r.URL.Path).
					Msg("role not allowed")
				WriteError(w, model.ErrForbidden.WithMessage(
					fmt.Sprintf("Role (%s) is not allowed to access this resource", user.Role),
				), a.development)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(contextKey{}).(*model.User)
	return user
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(TokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
