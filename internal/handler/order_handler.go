package handler

import (
	"net/http"

	"globomart/internal/model"
	"globomart/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service     service.OrderService
	development bool
	logger      zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, development bool, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service:     service,
		development: development,
		logger:      logger.With().Str("handler", "order").Logger(),
	}
}

type orderResponse struct {
	Order *model.Order `json:"order"`
}

type ordersResponse struct {
	Orders []model.Order `json:"orders"`
}

// Create handles POST /api/orders/new.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	var req model.OrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	order, err := h.service.Create(r.Context(), user.ID, &req)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orderResponse{Order: order})
}

// GetByID handles GET /api/orders/{id}.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	order, err := h.service.GetByID(r.Context(), id, user)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orderResponse{Order: order})
}

// MyOrders handles GET /api/me/orders.
func (h *OrderHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	orders, err := h.service.ListByUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, ordersResponse{Orders: orders})
}

// ListAll handles GET /api/admin/orders.
func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListAll(r.Context())
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, ordersResponse{Orders: orders})
}

// UpdateStatus handles PUT /api/admin/orders/{id}.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	var req model.UpdateOrderStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	if _, err := h.service.UpdateStatus(r.Context(), id, req.Status); err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// Delete handles DELETE /api/admin/orders/{id}.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
