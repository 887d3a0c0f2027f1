package handler

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"globomart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPaymentHandler_CheckoutSession(t *testing.T) {
	mockService := new(MockPaymentService)
	h := NewPaymentHandler(mockService, false, zerolog.Nop())
	user := &model.User{ID: uuid.New(), Email: "ada@example.com", Role: model.RoleUser}

	mockService.On("CreateCheckoutSession", mock.Anything, user, mock.AnythingOfType("*model.CheckoutRequest")).
		Return("https://checkout.stripe.com/c/pay/cs_test_123", nil)

	body := model.CheckoutRequest{
		Items:      []model.OrderItem{{ProductID: uuid.New(), Name: "Wireless Mouse", Quantity: 1, Price: 24.99}},
		ItemsPrice: 24.99,
	}
	req := withUser(newJSONRequest(t, http.MethodPost, "/api/payment/checkout_session", body), user)
	w := httptest.NewRecorder()

	h.CheckoutSession(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"url":"https://checkout.stripe.com/c/pay/cs_test_123"}`, w.Body.String())
	mockService.AssertExpectations(t)
}

func TestPaymentHandler_Webhook(t *testing.T) {
	logger := zerolog.Nop()
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)

	tests := []struct {
		name           string
		mockError      error
		expectedStatus int
	}{
		{
			name:           "Success",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Bad signature",
			mockError:      model.ErrInvalidSignature,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Processing failure asks for a retry",
			mockError:      model.ErrExternalServiceFailure.WithMessage("Failed to process payment event").Wrap(errors.New("db down")),
			expectedStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockPaymentService)
			h := NewPaymentHandler(mockService, false, logger)

			sig := "t=1710063000,v1=5257a869e7ecebeda32affa62cdca3fa51cad7e77a0e56ff536d0ce8e108d8bd"
			mockService.On("HandleWebhook", mock.Anything, payload, sig).Return(tt.mockError)

			req := httptest.NewRequest(http.MethodPost, "/api/payment/webhook", bytes.NewReader(payload))
			req.Header.Set(SignatureHeader, sig)
			w := httptest.NewRecorder()

			h.Webhook(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.mockError == nil {
				assert.JSONEq(t, `{"success":true}`, w.Body.String())
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestPaymentHandler_Webhook_BodyTooLarge(t *testing.T) {
	mockService := new(MockPaymentService)
	h := NewPaymentHandler(mockService, false, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/payment/webhook", bytes.NewReader(bytes.Repeat([]byte("x"), 64)))
	req.Header.Set(SignatureHeader, "t=1,v1=abc")
	w := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(w, req.Body, 16)

	h.Webhook(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "Request body too large")
	mockService.AssertNotCalled(t, "HandleWebhook", mock.Anything, mock.Anything, mock.Anything)
}
