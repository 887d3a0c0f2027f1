package model

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
)

// orderStatusRank orders the states of the forward-only lifecycle.
var orderStatusRank = map[OrderStatus]int{
	OrderStatusProcessing: 0,
	OrderStatusShipped:    1,
	OrderStatusDelivered:  2,
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	_, ok := orderStatusRank[s]
	return ok
}

// Terminal reports whether no further transition is allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered
}

// Before reports whether s comes strictly before other in the lifecycle.
func (s OrderStatus) Before(other OrderStatus) bool {
	return orderStatusRank[s] < orderStatusRank[other]
}

// Payment methods.
const (
	PaymentMethodCOD  = "COD"
	PaymentMethodCard = "Card"
)

// Payment statuses.
const (
	PaymentStatusPaid   = "paid"
	PaymentStatusUnpaid = "unpaid"
)

// ShippingInfo is the delivery address snapshot stored with an order.
type ShippingInfo struct {
	Address string `json:"address"`
	City    string `json:"city"`
	PhoneNo string `json:"phoneNo"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// PaymentInfo is the payment sub-record of an order.
type PaymentInfo struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// OrderItem is a line item snapshot; it does not follow later product edits.
type OrderItem struct {
	ProductID uuid.UUID `json:"product"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price"`
	Image     string    `json:"image"`
}

// Order represents a customer order.
type Order struct {
	ID             uuid.UUID    `json:"_id"`
	UserID         uuid.UUID    `json:"user"`
	User           *UserSummary `json:"userDetails,omitempty"`
	Items          []OrderItem  `json:"orderItems"`
	ShippingInfo   ShippingInfo `json:"shippingInfo"`
	ItemsPrice     float64      `json:"itemsPrice"`
	TaxAmount      float64      `json:"taxAmount"`
	ShippingAmount float64      `json:"shippingAmount"`
	TotalAmount    float64      `json:"totalAmount"`
	PaymentMethod  string       `json:"paymentMethod"`
	PaymentInfo    PaymentInfo  `json:"paymentInfo"`
	OrderStatus    OrderStatus  `json:"orderStatus"`
	CreatedAt      time.Time    `json:"createdAt"`
	DeliveredAt    *time.Time   `json:"deliveredAt,omitempty"`
}

// ProductIDs returns the product ids referenced by the order's line items, in item order.
func (o *Order) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(o.Items))
	for i, item := range o.Items {
		ids[i] = item.ProductID
	}
	return ids
}

// OrderRequest is the cash-on-delivery order payload.
type OrderRequest struct {
	Items          []OrderItem  `json:"orderItems"`
	ShippingInfo   ShippingInfo `json:"shippingInfo"`
	ItemsPrice     float64      `json:"itemsPrice"`
	TaxAmount      float64      `json:"taxAmount"`
	ShippingAmount float64      `json:"shippingAmount"`
	TotalAmount    float64      `json:"totalAmount"`
	PaymentMethod  string       `json:"paymentMethod"`
	PaymentInfo    PaymentInfo  `json:"paymentInfo"`
}

// UpdateOrderStatusRequest is the admin status transition payload.
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}

// CheckoutRequest is the cart sent to create a payment session.
type CheckoutRequest struct {
	Items        []OrderItem  `json:"orderItems"`
	ShippingInfo ShippingInfo `json:"shippingInfo"`
	ItemsPrice   float64      `json:"itemsPrice"`
}
