package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"globomart/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSalesHandler_GetSales(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		query          string
		expectService  bool
		expectedStatus int
	}{
		{
			name:           "Plain dates",
			query:          "startDate=2024-01-01&endDate=2024-01-02",
			expectService:  true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Missing end date",
			query:          "startDate=2024-01-01",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Invalid date",
			query:          "startDate=yesterday&endDate=2024-01-02",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockSalesService)
			h := NewSalesHandler(mockService, false, logger)

			if tt.expectService {
				mockService.On("GetSales", mock.Anything,
					time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
					time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
				).Return(&model.SalesReport{
					TotalSales:     12.5,
					TotalNumOrders: 1,
					Sales: []model.DailySales{
						{Date: "2024-01-01", Sales: 12.5, NumOrders: 1},
						{Date: "2024-01-02", Sales: 0, NumOrders: 0},
					},
				}, nil)
			}

			req := httptest.NewRequest(http.MethodGet, "/api/admin/get_sales?"+tt.query, nil)
			w := httptest.NewRecorder()

			h.GetSales(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectService {
				assert.JSONEq(t, `{
					"totalSales": 12.5,
					"totalNumOrders": 1,
					"sales": [
						{"date": "2024-01-01", "sales": 12.5, "numOrders": 1},
						{"date": "2024-01-02", "sales": 0, "numOrders": 0}
					]
				}`, w.Body.String())
				mockService.AssertExpectations(t)
			} else {
				mockService.AssertNotCalled(t, "GetSales")
			}
		})
	}
}
