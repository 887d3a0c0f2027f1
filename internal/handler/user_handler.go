package handler

import (
	"net/http"
	"time"

	"globomart/internal/middleware"
	"globomart/internal/model"
	"globomart/internal/service"

	"github.com/rs/zerolog"
)

// UserHandler handles authentication, profile and admin user requests.
type UserHandler struct {
	service      service.UserService
	cookieExpiry time.Duration
	frontendURL  string
	development  bool
	now          func() time.Time
	logger       zerolog.Logger
}

// NewUserHandler creates a new user handler. Session cookies live for cookieExpiry
// and password reset links point at frontendURL.
func NewUserHandler(
	service service.UserService,
	cookieExpiry time.Duration,
	frontendURL string,
	development bool,
	logger zerolog.Logger,
) *UserHandler {
	return &UserHandler{
		service:      service,
		cookieExpiry: cookieExpiry,
		frontendURL:  frontendURL,
		development:  development,
		now:          time.Now,
		logger:       logger.With().Str("handler", "user").Logger(),
	}
}

type userResponse struct {
	User *model.User `json:"user"`
}

type usersResponse struct {
	Users []model.User `json:"users"`
}

type avatarRequest struct {
	Avatar string `json:"avatar"`
}

// Register handles POST /api/register.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	resp, err := h.service.Register(r.Context(), &req)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	h.sendToken(w, http.StatusCreated, resp)
}

// Login handles POST /api/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	h.sendToken(w, http.StatusOK, resp)
}

// Logout handles GET /api/logout by expiring the session cookie.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !h.development,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged Out Successfully.."})
}

// ForgotPassword handles POST /api/password/forgot.
func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ForgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email, h.frontendURL); err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Email sent to: " + req.Email})
}

// ResetPassword handles PUT /api/password/reset/{token}.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	resp, err := h.service.ResetPassword(r.Context(), r.PathValue("token"), &req)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	h.sendToken(w, http.StatusOK, resp)
}

// Me handles GET /api/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{User: user})
}

// UpdateProfile handles PUT /api/me/update.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	var req model.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), user.ID, &req)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{User: updated})
}

// UpdatePassword handles PUT /api/password/update.
func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	var req model.UpdatePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	resp, err := h.service.UpdatePassword(r.Context(), user.ID, &req)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	h.sendToken(w, http.StatusOK, resp)
}

// UploadAvatar handles PUT /api/me/upload_avatar.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	var req avatarRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	updated, err := h.service.UploadAvatar(r.Context(), user.ID, req.Avatar)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{User: updated})
}

// List handles GET /api/admin/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, usersResponse{Users: users})
}

// GetUser handles GET /api/admin/users/{id}.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	user, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{User: user})
}

// UpdateUser handles PUT /api/admin/users/{id}.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	var req model.UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	user, err := h.service.UpdateUser(r.Context(), id, &req)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{User: user})
}

// DeleteUser handles DELETE /api/admin/users/{id}.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// sendToken sets the session cookie and writes the auth response.
func (h *UserHandler) sendToken(w http.ResponseWriter, status int, resp *model.AuthResponse) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    resp.Token,
		Path:     "/",
		Expires:  h.now().Add(h.cookieExpiry),
		HttpOnly: true,
		Secure:   !h.development,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, status, resp)
}
