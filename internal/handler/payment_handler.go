package handler

import (
	"io"
	"net/http"

	"globomart/internal/model"
	"globomart/internal/service"

	"github.com/rs/zerolog"
)

// SignatureHeader carries the payment provider's webhook signature.
const SignatureHeader = "Stripe-Signature"

// PaymentHandler handles card checkout and provider webhooks.
type PaymentHandler struct {
	service     service.PaymentService
	development bool
	logger      zerolog.Logger
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(service service.PaymentService, development bool, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service:     service,
		development: development,
		logger:      logger.With().Str("handler", "payment").Logger(),
	}
}

type checkoutResponse struct {
	URL string `json:"url"`
}

// CheckoutSession handles POST /api/payment/checkout_session.
func (h *PaymentHandler) CheckoutSession(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	var req model.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	url, err := h.service.CreateCheckoutSession(r.Context(), user, &req)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, checkoutResponse{URL: url})
}

// Webhook handles POST /api/payment/webhook. The signature covers the raw
// body, so it is read as-is rather than decoded.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, bodyError(err), h.development, h.logger)
		return
	}

	if err := h.service.HandleWebhook(r.Context(), payload, r.Header.Get(SignatureHeader)); err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
