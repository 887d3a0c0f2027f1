package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"globomart/internal/middleware"
	"globomart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SuccessResponse acknowledges an update or delete.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError logs err and writes the error envelope.
func writeError(w http.ResponseWriter, r *http.Request, err error, development bool, logger zerolog.Logger) {
	status := model.StatusOf(err)
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Msg("handler error")

	middleware.WriteError(w, err, development)
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return bodyError(err)
	}
	return nil
}

// bodyError maps a failure reading the request body to 413 when the body
// exceeded the size limit and to 400 otherwise.
func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return model.NewDomainError(model.ErrCodeValidationFailed, "Request body too large", http.StatusRequestEntityTooLarge).Wrap(err)
	}
	return model.ErrValidation.WithMessage("Invalid request body").Wrap(err)
}

// parseID parses a resource id. A malformed id is reported as a missing resource.
func parseID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, model.ErrNotFound.WithMessage(fmt.Sprintf("Resource not found. Invalid: %s", field)).Wrap(err)
	}
	return id, nil
}

// pathID parses the {id} path parameter.
func pathID(r *http.Request) (uuid.UUID, error) {
	return parseID(r.PathValue("id"), "_id")
}

// currentUser returns the authenticated user placed in the context by the auth middleware.
func currentUser(r *http.Request) (*model.User, error) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		return nil, model.ErrLoginRequired
	}
	return user, nil
}
