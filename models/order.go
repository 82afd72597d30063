package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a priced, validated checkout. Only Status changes after assembly.
type Order struct {
	ID                  string           `json:"order_id"`
	PlacedAt            time.Time        `json:"placed_at"`
	Items               []LineItem       `json:"items"`
	Subtotal            decimal.Decimal  `json:"subtotal"`
	DeliveryFee         decimal.Decimal  `json:"delivery_fee"`
	Total               decimal.Decimal  `json:"total"`
	DistanceKm          float64          `json:"distance_km,omitempty"`
	EstimatedHours      int              `json:"estimated_hours,omitempty"`
	Payment             PaymentSelection `json:"payment"`
	Customer            Customer         `json:"customer"`
	Address             Address          `json:"address"`
	DeliveryAddressText string           `json:"delivery_address_text"`
	Notes               string           `json:"notes,omitempty"`
	SessionID           string           `json:"session_id,omitempty"`
	Status              OrderStatus      `json:"status"`
}

// Customer is the identity record supplied by the auth collaborator.
type Customer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Mobile    string `json:"mobile"`
}

// Address holds the checkout form's delivery fields.
type Address struct {
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	Country string `json:"country"`
	Zip     string `json:"zip"`
}

// PaymentMethod is the boundary representation of a payment option.
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "Cash on Delivery"
	PaymentUPI            PaymentMethod = "UPI"
	PaymentPayPal         PaymentMethod = "Paypal"
	PaymentBankTransfer   PaymentMethod = "Direct Bank Transfer"
)

// Valid reports whether m is one of the supported payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCashOnDelivery, PaymentUPI, PaymentPayPal, PaymentBankTransfer:
		return true
	}
	return false
}

// PaymentSelection is the method picked at checkout. Detail carries the UPI id.
type PaymentSelection struct {
	Method PaymentMethod `json:"method"`
	Detail string        `json:"detail,omitempty"`
}

// OrderStatus is where an order sits in its cancellation lifecycle.
type OrderStatus string

const (
	OrderStatusPlaced                 OrderStatus = "PLACED"
	OrderStatusCancellationWindowOpen OrderStatus = "CANCELLATION_WINDOW_OPEN"
	OrderStatusCancelled              OrderStatus = "CANCELLED"
	OrderStatusFinalized              OrderStatus = "FINALIZED"
)

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusFinalized
}

func (s OrderStatus) String() string {
	return string(s)
}

// WorkflowState represents the current state of the order lifecycle workflow
type WorkflowState struct {
	OrderID         string      `json:"order_id"`
	Status          OrderStatus `json:"status"`
	PlacedAt        time.Time   `json:"placed_at"`
	WindowClosesAt  time.Time   `json:"window_closes_at"`
	CancelRejection string      `json:"cancel_rejection,omitempty"`
	LastUpdated     time.Time   `json:"last_updated"`
}
