package service

import (
	"context"
	"fmt"
	"time"

	"globomart/internal/model"
	"globomart/internal/repository"
	"globomart/internal/sales"

	"github.com/rs/zerolog"
)

// salesService implements SalesService.
type salesService struct {
	orderRepo repository.OrderRepository
	logger    zerolog.Logger
}

// NewSalesService creates a new sales service.
func NewSalesService(orderRepo repository.OrderRepository, logger zerolog.Logger) SalesService {
	return &salesService{
		orderRepo: orderRepo,
		logger:    logger.With().Str("service", "sales").Logger(),
	}
}

// GetSales reports daily totals for at most sales.MaxDays days.
func (s *salesService) GetSales(ctx context.Context, start, end time.Time) (*model.SalesReport, error) {
	if days := sales.DayCount(start, end); days > sales.MaxDays {
		s.logger.Warn().Time("start", start).Time("end", end).Int("days", days).Msg("sales range too long")
		return nil, model.ErrValidation.WithMessage(fmt.Sprintf("Date range cannot exceed %d days", sales.MaxDays))
	}

	start, end = sales.NormalizeRange(start, end)

	if end.Before(start) {
		s.logger.Debug().Time("start", start).Time("end", end).Msg("empty sales range")
		report := sales.Build(start, end, nil)
		return &report, nil
	}

	groups, err := s.orderRepo.SalesByDay(ctx, start, end)
	if err != nil {
		s.logger.Error().Err(err).Time("start", start).Time("end", end).Msg("failed to aggregate sales")
		return nil, fmt.Errorf("failed to get sales: %w", err)
	}

	report := sales.Build(start, end, groups)
	s.logger.Debug().
		Int("days", len(report.Sales)).
		Int("orders", report.TotalNumOrders).
		Msg("built sales report")

	return &report, nil
}
