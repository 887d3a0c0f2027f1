package service

import (
	"context"
	"fmt"
	"time"

	"globomart/internal/events"
	"globomart/internal/model"
	"globomart/internal/payment"
	"globomart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// paymentService implements PaymentService.
type paymentService struct {
	gateway     payment.Gateway
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	eventRepo   repository.ProcessedEventRepository
	publisher   events.Publisher
	logger      zerolog.Logger
	now         func() time.Time
}

// NewPaymentService creates a new payment service.
func NewPaymentService(
	gateway payment.Gateway,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	eventRepo repository.ProcessedEventRepository,
	publisher events.Publisher,
	logger zerolog.Logger,
) PaymentService {
	return &paymentService{
		gateway:     gateway,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		eventRepo:   eventRepo,
		publisher:   publisher,
		logger:      logger.With().Str("service", "payment").Logger(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateCheckoutSession validates the cart and opens a hosted checkout. Line
// names, unit prices and the items total are taken from the catalogue.
func (s *paymentService) CreateCheckoutSession(ctx context.Context, user *model.User, req *model.CheckoutRequest) (string, error) {
	if req == nil || len(req.Items) == 0 {
		return "", model.ErrValidation.WithMessage("Order must contain at least one item")
	}
	for i, item := range req.Items {
		if item.ProductID == uuid.Nil || item.Quantity <= 0 {
			return "", model.ErrValidation.WithMessage(fmt.Sprintf("Item %d: invalid product or quantity", i))
		}
	}

	items, itemsPrice, err := priceItems(ctx, s.productRepo, req.Items)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("checkout references missing products")
		return "", err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		UserID:       user.ID,
		Email:        user.Email,
		Items:        items,
		ShippingInfo: req.ShippingInfo,
		ItemsPrice:   itemsPrice,
	})
	if err != nil {
		return "", err
	}

	s.logger.Info().
		Str("session_id", session.ID).
		Str("user_id", user.ID.String()).
		Int("item_count", len(req.Items)).
		Msg("checkout session created")

	return session.URL, nil
}

// HandleWebhook applies a verified provider event. A completed checkout
// produces one Card order; the event id is recorded in the same transaction
// so replays are acknowledged without creating another order.
func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ConstructEvent(payload, signature)
	if err != nil {
		return err
	}

	log := s.logger.With().Str("event_id", event.ID).Str("event_type", event.Type).Logger()

	if event.Type != payment.EventCheckoutSessionCompleted || event.Session == nil {
		log.Debug().Msg("ignoring webhook event")
		return nil
	}

	seen, err := s.eventRepo.IsProcessed(ctx, event.ID)
	if err != nil {
		return model.ErrExternalServiceFailure.WithMessage("Failed to process payment event").Wrap(err)
	}
	if seen {
		log.Info().Msg("webhook event already processed")
		return nil
	}

	order, err := s.buildOrder(ctx, event.Session)
	if err != nil {
		log.Error().Err(err).Str("session_id", event.Session.ID).Msg("failed to build order from session")
		return model.ErrExternalServiceFailure.WithMessage("Failed to process payment event").Wrap(err)
	}

	created, err := s.record(ctx, event, order)
	if err != nil {
		log.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to record paid order")
		return model.ErrExternalServiceFailure.WithMessage("Failed to process payment event").Wrap(err)
	}
	if !created {
		return nil
	}

	log.Info().
		Str("order_id", order.ID.String()).
		Str("user_id", order.UserID.String()).
		Float64("total", order.TotalAmount).
		Msg("card order created")

	if err := s.publisher.PublishOrderEvent(ctx, events.NewOrderEvent(events.TypeOrderCreated, order)); err != nil {
		log.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to publish order event")
	}
	return nil
}

// buildOrder turns a completed session and its line items into an order.
func (s *paymentService) buildOrder(ctx context.Context, session *payment.Session) (*model.Order, error) {
	userID, err := uuid.Parse(session.ClientReferenceID)
	if err != nil {
		return nil, fmt.Errorf("invalid client reference id %q: %w", session.ClientReferenceID, err)
	}

	lines, err := s.gateway.ListLineItems(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("session %s has no line items", session.ID)
	}

	items := make([]model.OrderItem, len(lines))
	for i, line := range lines {
		items[i] = model.OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  int(line.Quantity),
			Price:     payment.ToMajor(line.UnitAmount),
			Image:     line.Image,
		}
	}

	itemsPrice, err := session.ItemsPrice()
	if err != nil {
		s.logger.Warn().Str("session_id", session.ID).Msg("session has no items price, using subtotal")
		itemsPrice = payment.ToMajor(session.AmountSubtotal)
	}

	return &model.Order{
		ID:             uuid.New(),
		UserID:         userID,
		Items:          items,
		ShippingInfo:   session.ShippingInfo(),
		ItemsPrice:     itemsPrice,
		TaxAmount:      payment.ToMajor(session.AmountTax),
		ShippingAmount: payment.ToMajor(session.AmountShipping),
		TotalAmount:    payment.ToMajor(session.AmountTotal),
		PaymentMethod:  model.PaymentMethodCard,
		PaymentInfo: model.PaymentInfo{
			ID:     session.PaymentIntentID,
			Status: session.PaymentStatus,
		},
		OrderStatus: model.OrderStatusProcessing,
		CreatedAt:   s.now(),
	}, nil
}

// record writes the processed event and the order atomically. It returns
// false when another delivery of the same event won the race.
func (s *paymentService) record(ctx context.Context, event *payment.Event, order *model.Order) (created bool, err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil || !created {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	inserted, err := s.eventRepo.MarkProcessed(ctx, tx, event.ID, event.Type, order.ID)
	if err != nil {
		return false, err
	}
	if !inserted {
		return false, nil
	}

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return false, err
	}
	if err = s.orderRepo.CreateOrderItems(ctx, tx, order.ID, order.Items); err != nil {
		return false, err
	}
	if err = tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}
