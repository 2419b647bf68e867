package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a registered user's balance-bearing identity.
// The ID is the subject issued by the external identity provider; IsAdmin
// is a server-held flag and is never taken from client input.
type Account struct {
	ID        string          `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	IsAdmin   bool            `db:"is_admin" json:"is_admin"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// Car represents a purchasable catalog item
type Car struct {
	ID          string          `db:"id" json:"id"`
	Make        string          `db:"make" json:"make"`
	Model       string          `db:"model" json:"model"`
	Year        int             `db:"year" json:"year"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Image       string          `db:"image" json:"image"`
	Description string          `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// Purchase represents a settled car purchase. Make, model, year, price and
// image are copied from the car at purchase time; later catalog edits must
// not change them.
type Purchase struct {
	ID                string          `db:"id" json:"id"`
	AccountID         string          `db:"account_id" json:"account_id"`
	CarID             string          `db:"car_id" json:"car_id"`
	Make              string          `db:"make" json:"make"`
	Model             string          `db:"model" json:"model"`
	Year              int             `db:"year" json:"year"`
	PriceAtPurchase   decimal.Decimal `db:"price_at_purchase" json:"price_at_purchase"`
	Image             string          `db:"image" json:"image"`
	FulfillmentStatus string          `db:"fulfillment_status" json:"fulfillment_status"`
	PaymentStatus     string          `db:"payment_status" json:"payment_status"`
	IdempotencyKey    string          `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}

// TopUpRequest represents a user-submitted funding request awaiting
// admin review.
type TopUpRequest struct {
	ID        string          `db:"id" json:"id"`
	AccountID string          `db:"account_id" json:"account_id"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	Status    string          `db:"status" json:"status"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// Fulfillment statuses, in progression order
const (
	FulfillmentProcessing = "processing"
	FulfillmentShipped    = "shipped"
	FulfillmentDelivered  = "delivered"
)

// Payment statuses
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Top-up request statuses
const (
	TopUpPending  = "pending"
	TopUpApproved = "approved"
	TopUpRejected = "rejected"
)

// NextFulfillment returns the state after one forward step.
// Delivered is terminal and maps to itself.
func NextFulfillment(status string) string {
	switch status {
	case FulfillmentProcessing:
		return FulfillmentShipped
	case FulfillmentShipped:
		return FulfillmentDelivered
	default:
		return FulfillmentDelivered
	}
}

// ValidFulfillmentStatus reports whether s is one of the three fulfillment states.
func ValidFulfillmentStatus(s string) bool {
	return s == FulfillmentProcessing || s == FulfillmentShipped || s == FulfillmentDelivered
}

// ValidPaymentStatus reports whether s is one of the three payment states.
func ValidPaymentStatus(s string) bool {
	return s == PaymentPending || s == PaymentCompleted || s == PaymentFailed
}
