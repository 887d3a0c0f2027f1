package handler

import (
	"net/http"

	"globomart/internal/model"
	"globomart/internal/sales"
	"globomart/internal/service"

	"github.com/rs/zerolog"
)

// SalesHandler serves the admin sales dashboard.
type SalesHandler struct {
	service     service.SalesService
	development bool
	logger      zerolog.Logger
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(service service.SalesService, development bool, logger zerolog.Logger) *SalesHandler {
	return &SalesHandler{
		service:     service,
		development: development,
		logger:      logger.With().Str("handler", "sales").Logger(),
	}
}

// GetSales handles GET /api/admin/get_sales?startDate=&endDate=.
func (h *SalesHandler) GetSales(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	rawStart, rawEnd := query.Get("startDate"), query.Get("endDate")
	if rawStart == "" || rawEnd == "" {
		writeError(w, r, model.ErrValidation.WithMessage("Please provide startDate and endDate"), h.development, h.logger)
		return
	}

	start, err := sales.ParseDate(rawStart)
	if err != nil {
		writeError(w, r, model.ErrValidation.WithMessage("Invalid startDate").Wrap(err), h.development, h.logger)
		return
	}
	end, err := sales.ParseDate(rawEnd)
	if err != nil {
		writeError(w, r, model.ErrValidation.WithMessage("Invalid endDate").Wrap(err), h.development, h.logger)
		return
	}

	report, err := h.service.GetSales(r.Context(), start, end)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
