package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"globomart/internal/events"
	"globomart/internal/model"
	"globomart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	publisher   events.Publisher
	logger      zerolog.Logger
	now         func() time.Time
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	publisher events.Publisher,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		publisher:   publisher,
		logger:      logger.With().Str("service", "order").Logger(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create places a cash-on-delivery order. Line prices and the items total
// come from the catalogue; the total adds the requested tax and shipping.
func (s *orderService) Create(ctx context.Context, userID uuid.UUID, req *model.OrderRequest) (*model.Order, error) {
	if err := validateOrderRequest(req); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("invalid order request")
		return nil, err
	}

	items, itemsPrice, err := priceItems(ctx, s.productRepo, req.Items)
	if err != nil {
		s.logger.Warn().
			Int("product_count", len(req.Items)).
			Err(err).
			Msg("product validation failed")
		return nil, err
	}

	order := &model.Order{
		ID:             uuid.New(),
		UserID:         userID,
		Items:          items,
		ShippingInfo:   req.ShippingInfo,
		ItemsPrice:     itemsPrice,
		TaxAmount:      req.TaxAmount,
		ShippingAmount: req.ShippingAmount,
		TotalAmount:    sumAmounts(itemsPrice, req.TaxAmount, req.ShippingAmount),
		PaymentMethod:  model.PaymentMethodCOD,
		PaymentInfo:    model.PaymentInfo{Status: model.PaymentStatusUnpaid},
		OrderStatus:    model.OrderStatusProcessing,
		CreatedAt:      s.now(),
	}

	if err := s.insert(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Int("item_count", len(order.Items)).
		Msg("order created successfully")

	s.publish(ctx, events.TypeOrderCreated, order)
	return order, nil
}

// insert writes the order and its items in one transaction.
func (s *orderService) insert(ctx context.Context, order *model.Order) (err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, order.ID, order.Items); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("item_count", len(order.Items)).
			Msg("failed to create order items")
		return fmt.Errorf("failed to create order items: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// GetByID retrieves an order the viewer is allowed to see.
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID, viewer *model.User) (*model.Order, error) {
	order, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if viewer != nil && viewer.Role != model.RoleAdmin && order.UserID != viewer.ID {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("user_id", viewer.ID.String()).
			Msg("order requested by non-owner")
		return nil, model.ErrForbidden.WithMessage("You are not allowed to view this order")
	}

	return order, nil
}

func (s *orderService) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list user orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) ListAll(ctx context.Context) ([]model.Order, error) {
	orders, err := s.orderRepo.ListAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus moves an order forward and decrements stock by each line's
// quantity on every successful transition. Product existence is checked before
// the transaction; inside it the current status is re-read under a row lock so
// two concurrent requests for the same transition cannot both apply it.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	order, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := checkTransition(order.OrderStatus, status); err != nil {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("from", string(order.OrderStatus)).
			Str("to", string(status)).
			Err(err).
			Msg("rejected status transition")
		return nil, err
	}

	if err := s.productRepo.ValidateProductsExist(ctx, order.ProductIDs()); err != nil {
		s.logger.Warn().Str("order_id", id.String()).Err(err).Msg("order references missing products")
		return nil, err
	}

	if err := s.applyTransition(ctx, order, status); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("status", string(status)).
		Msg("order status updated")

	s.publish(ctx, events.TypeOrderStatusChanged, order)
	return order, nil
}

func (s *orderService) applyTransition(ctx context.Context, order *model.Order, status model.OrderStatus) (err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to update order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	current, err := s.orderRepo.LockStatus(ctx, tx, order.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to lock order")
		return fmt.Errorf("failed to update order: %w", err)
	}
	if err = checkTransition(current, status); err != nil {
		s.logger.Warn().
			Str("order_id", order.ID.String()).
			Str("from", string(current)).
			Str("to", string(status)).
			Msg("order changed concurrently")
		return err
	}

	if err = s.productRepo.DecrementStock(ctx, tx, order.Items); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to decrement stock")
		return fmt.Errorf("failed to update stock: %w", err)
	}

	order.OrderStatus = status
	if status == model.OrderStatusDelivered {
		if order.DeliveredAt == nil {
			deliveredAt := s.now()
			order.DeliveredAt = &deliveredAt
		}
		order.PaymentInfo.Status = model.PaymentStatusPaid
	}

	if err = s.orderRepo.UpdateStatus(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to update order status")
		return fmt.Errorf("failed to update order: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return fmt.Errorf("failed to update order: %w", err)
	}

	return nil
}

func (s *orderService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.orderRepo.Delete(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to delete order")
		return fmt.Errorf("failed to delete order: %w", err)
	}
	s.logger.Info().Str("order_id", id.String()).Msg("order deleted")
	return nil
}

func (s *orderService) get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

// publish logs delivery failures; the order change is already committed.
func (s *orderService) publish(ctx context.Context, eventType string, order *model.Order) {
	if err := s.publisher.PublishOrderEvent(ctx, events.NewOrderEvent(eventType, order)); err != nil {
		s.logger.Error().Err(err).
			Str("order_id", order.ID.String()).
			Str("event_type", eventType).
			Msg("failed to publish order event")
	}
}

// checkTransition enforces the forward-only lifecycle.
func checkTransition(from, to model.OrderStatus) error {
	switch {
	case from.Terminal():
		return model.ErrAlreadyDelivered
	case !to.Valid():
		return model.ErrUnknownStatus
	case !from.Before(to):
		return model.ErrBackwardStatus
	}
	return nil
}

func validateOrderRequest(req *model.OrderRequest) error {
	if req == nil {
		return model.ErrValidation.WithMessage("Please enter order details")
	}
	if req.PaymentMethod != "" && req.PaymentMethod != model.PaymentMethodCOD {
		return model.ErrValidation.WithMessage("Card orders are created by the payment webhook")
	}
	if len(req.Items) == 0 {
		return model.ErrValidation.WithMessage("Order must contain at least one item")
	}
	for i, item := range req.Items {
		if item.ProductID == uuid.Nil {
			return model.ErrValidation.WithMessage(fmt.Sprintf("Item %d: product id is required", i))
		}
		if item.Quantity <= 0 {
			return model.ErrValidation.WithMessage(fmt.Sprintf("Item %d: quantity must be positive", i))
		}
	}

	info := req.ShippingInfo
	for _, field := range []string{info.Address, info.City, info.PhoneNo, info.ZipCode, info.Country} {
		if strings.TrimSpace(field) == "" {
			return model.ErrValidation.WithMessage("Please enter complete shipping info")
		}
	}

	if req.TaxAmount < 0 || req.ShippingAmount < 0 {
		return model.ErrValidation.WithMessage("Amounts cannot be negative")
	}
	return nil
}
