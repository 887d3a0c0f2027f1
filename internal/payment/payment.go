// Package payment wraps the card payment provider's checkout sessions and webhooks.
package payment

import (
	"context"
	"strconv"

	"globomart/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventCheckoutSessionCompleted is the only provider event that creates orders.
const EventCheckoutSessionCompleted = "checkout.session.completed"

// Session metadata keys carrying the shipping snapshot and cart total.
const (
	MetaAddress    = "address"
	MetaCity       = "city"
	MetaPhoneNo    = "phoneNo"
	MetaZipCode    = "zipCode"
	MetaCountry    = "country"
	MetaItemsPrice = "itemsPrice"
	MetaProductID  = "productId"
)

// CheckoutRequest is a cart to be paid by card.
type CheckoutRequest struct {
	UserID       uuid.UUID
	Email        string
	Items        []model.OrderItem
	ShippingInfo model.ShippingInfo
	ItemsPrice   float64
}

// Session is the subset of a provider checkout session the store relies on.
// Amounts are in minor units.
type Session struct {
	ID                string
	URL               string
	ClientReferenceID string
	Metadata          map[string]string
	AmountSubtotal    int64
	AmountTotal       int64
	AmountTax         int64
	AmountShipping    int64
	PaymentIntentID   string
	PaymentStatus     string
}

// ShippingInfo reads the shipping snapshot from the session metadata.
func (s *Session) ShippingInfo() model.ShippingInfo {
	return model.ShippingInfo{
		Address: s.Metadata[MetaAddress],
		City:    s.Metadata[MetaCity],
		PhoneNo: s.Metadata[MetaPhoneNo],
		ZipCode: s.Metadata[MetaZipCode],
		Country: s.Metadata[MetaCountry],
	}
}

// ItemsPrice reads the cart total from the session metadata.
func (s *Session) ItemsPrice() (float64, error) {
	return strconv.ParseFloat(s.Metadata[MetaItemsPrice], 64)
}

// LineItem is a paid line with its store product resolved. Amounts are in minor units.
type LineItem struct {
	ProductID  uuid.UUID
	Name       string
	Quantity   int64
	UnitAmount int64
	Image      string
}

// Event is a verified provider event.
type Event struct {
	ID      string
	Type    string
	Session *Session
}

// Gateway is the card payment provider.
type Gateway interface {
	// CreateCheckoutSession opens a hosted checkout for the cart.
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error)

	// ConstructEvent verifies the signature header against the payload.
	// It returns model.ErrInvalidSignature when verification fails.
	ConstructEvent(payload []byte, signature string) (*Event, error)

	// ListLineItems returns the paid lines of a session with store product ids resolved.
	ListLineItems(ctx context.Context, sessionID string) ([]LineItem, error)
}

// ToMajor converts minor currency units (cents) to major units.
func ToMajor(minor int64) float64 {
	return decimal.New(minor, -2).InexactFloat64()
}

// ToMinor converts major currency units to minor units, rounding half away from zero.
func ToMinor(major float64) int64 {
	return decimal.NewFromFloat(major).Shift(2).Round(0).IntPart()
}
