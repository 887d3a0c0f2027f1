package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"globomart/internal/config"
	"globomart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// stripeGateway implements Gateway with Stripe Checkout.
type stripeGateway struct {
	api         *client.API
	cfg         config.StripeConfig
	frontendURL string
	logger      zerolog.Logger
}

// NewStripeGateway creates a Stripe-backed gateway.
func NewStripeGateway(cfg config.StripeConfig, frontendURL string, logger zerolog.Logger) Gateway {
	return &stripeGateway{
		api:         client.New(cfg.SecretKey, nil),
		cfg:         cfg,
		frontendURL: frontendURL,
		logger:      logger.With().Str("component", "stripe").Logger(),
	}
}

// CreateCheckoutSession opens a hosted checkout session for the cart.
func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error) {
	params := buildSessionParams(g.cfg, g.frontendURL, req)
	params.Context = ctx

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		g.logger.Error().Err(err).Str("user_id", req.UserID.String()).Msg("failed to create checkout session")
		return nil, model.ErrExternalServiceFailure.WithMessage("Failed to create checkout session").Wrap(err)
	}

	g.logger.Info().Str("session_id", s.ID).Str("user_id", req.UserID.String()).Msg("checkout session created")

	return toSession(s), nil
}

func buildSessionParams(cfg config.StripeConfig, frontendURL string, req CheckoutRequest) *stripe.CheckoutSessionParams {
	shippingRate := cfg.ShippingRateID
	if req.ItemsPrice >= cfg.FreeShippingThreshold && cfg.FreeShippingRateID != "" {
		shippingRate = cfg.FreeShippingRateID
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name:     stripe.String(item.Name),
			Metadata: map[string]string{MetaProductID: item.ProductID.String()},
		}
		if item.Image != "" {
			product.Images = stripe.StringSlice([]string{item.Image})
		}

		li := &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(cfg.Currency),
				ProductData: product,
				UnitAmount:  stripe.Int64(ToMinor(item.Price)),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		}
		if cfg.TaxRateID != "" {
			li.TaxRates = stripe.StringSlice([]string{cfg.TaxRateID})
		}
		lineItems = append(lineItems, li)
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(frontendURL + "/me/orders?order_success=true"),
		CancelURL:          stripe.String(frontendURL),
		ClientReferenceID:  stripe.String(req.UserID.String()),
		LineItems:          lineItems,
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	if shippingRate != "" {
		params.ShippingOptions = []*stripe.CheckoutSessionShippingOptionParams{
			{ShippingRate: stripe.String(shippingRate)},
		}
	}

	params.AddMetadata(MetaAddress, req.ShippingInfo.Address)
	params.AddMetadata(MetaCity, req.ShippingInfo.City)
	params.AddMetadata(MetaPhoneNo, req.ShippingInfo.PhoneNo)
	params.AddMetadata(MetaZipCode, req.ShippingInfo.ZipCode)
	params.AddMetadata(MetaCountry, req.ShippingInfo.Country)
	params.AddMetadata(MetaItemsPrice, strconv.FormatFloat(req.ItemsPrice, 'f', -1, 64))

	return params
}

// ConstructEvent verifies and decodes a webhook delivery.
func (g *stripeGateway) ConstructEvent(payload []byte, signature string) (*Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		g.logger.Warn().Err(err).Msg("webhook signature verification failed")
		return nil, model.ErrInvalidSignature.Wrap(err)
	}

	event := &Event{ID: ev.ID, Type: string(ev.Type)}
	if event.Type != EventCheckoutSessionCompleted {
		return event, nil
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
		return nil, model.ErrValidation.WithMessage("Malformed checkout session event").Wrap(err)
	}
	event.Session = toSession(&s)

	return event, nil
}

// ListLineItems lists the session's lines with their products expanded and
// maps each to the store product recorded in its metadata.
func (g *stripeGateway) ListLineItems(ctx context.Context, sessionID string) ([]LineItem, error) {
	params := &stripe.CheckoutSessionListLineItemsParams{Session: stripe.String(sessionID)}
	params.Context = ctx
	params.AddExpand("data.price.product")

	var items []LineItem
	it := g.api.CheckoutSessions.ListLineItems(params)
	for it.Next() {
		li := it.LineItem()
		if li.Price == nil || li.Price.Product == nil {
			return nil, fmt.Errorf("line item %s has no product", li.ID)
		}

		product := li.Price.Product
		if product.Metadata == nil {
			p, err := g.api.Products.Get(product.ID, &stripe.ProductParams{Params: stripe.Params{Context: ctx}})
			if err != nil {
				return nil, fmt.Errorf("failed to retrieve product %s: %w", product.ID, err)
			}
			product = p
		}

		productID, err := uuid.Parse(product.Metadata[MetaProductID])
		if err != nil {
			return nil, fmt.Errorf("product %s has invalid %s metadata: %w", product.ID, MetaProductID, err)
		}

		item := LineItem{
			ProductID:  productID,
			Name:       product.Name,
			Quantity:   li.Quantity,
			UnitAmount: li.Price.UnitAmount,
		}
		if item.Name == "" {
			item.Name = li.Description
		}
		if len(product.Images) > 0 {
			item.Image = product.Images[0]
		}
		items = append(items, item)
	}
	if err := it.Err(); err != nil {
		g.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to list line items")
		return nil, fmt.Errorf("failed to list line items: %w", err)
	}

	return items, nil
}

func toSession(s *stripe.CheckoutSession) *Session {
	out := &Session{
		ID:                s.ID,
		URL:               s.URL,
		ClientReferenceID: s.ClientReferenceID,
		Metadata:          s.Metadata,
		AmountSubtotal:    s.AmountSubtotal,
		AmountTotal:       s.AmountTotal,
		PaymentStatus:     string(s.PaymentStatus),
	}
	if s.TotalDetails != nil {
		out.AmountTax = s.TotalDetails.AmountTax
		out.AmountShipping = s.TotalDetails.AmountShipping
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	if out.Metadata == nil {
		out.Metadata = map[string]string{}
	}
	return out
}
