package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the client-side projection of a backend order.
type Order struct {
	ID              string           `json:"id"`
	Items           []Item           `json:"items"`
	Status          Status           `json:"status"`
	Subtotal        decimal.Decimal  `json:"subtotal"`
	Tax             decimal.Decimal  `json:"tax"`
	Total           decimal.Decimal  `json:"total"`
	ShippingAddress *ShippingAddress `json:"shippingAddress,omitempty"`
	PaymentMethod   PaymentMethod    `json:"paymentMethod,omitempty"`
	TrackingNumber  string           `json:"trackingNumber,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt,omitempty"`
}

type Item struct {
	ProductID       string          `json:"productId"`
	Name            string          `json:"name"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	Image           string          `json:"image,omitempty"`
}

type HistoryEntry struct {
	Status    Status    `json:"status"`
	Note      string    `json:"note,omitempty"`
	ChangedAt time.Time `json:"changedAt"`
}

type ShippingAddress struct {
	FullName   string `json:"fullName" validate:"required"`
	Phone      string `json:"phone" validate:"required,e164|numeric"`
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required,alphanum"`
	Notes      string `json:"notes,omitempty" validate:"max=500"`
}

type PaymentMethod string

const (
	PaymentCard PaymentMethod = "card"
	PaymentCash PaymentMethod = "cash"
)

// PaymentInfo card fields are only required when Method is card.
type PaymentInfo struct {
	Method         PaymentMethod `json:"method" validate:"required,oneof=card cash"`
	CardholderName string        `json:"cardholderName,omitempty" validate:"required_if=Method card"`
	CardNumber     string        `json:"cardNumber,omitempty" validate:"required_if=Method card,omitempty,credit_card"`
	Expiry         string        `json:"expiry,omitempty" validate:"required_if=Method card,omitempty,datetime=01/06"`
	CVC            string        `json:"cvc,omitempty" validate:"required_if=Method card,omitempty,numeric,min=3,max=4"`
}

// PlaceOrderRequest is what the storefront submits to POST /orders.
type PlaceOrderRequest struct {
	Items           []Item          `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	Payment         PaymentInfo     `json:"payment"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Tax             decimal.Decimal `json:"tax"`
	Total           decimal.Decimal `json:"total"`
}
