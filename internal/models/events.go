package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types published to the shop event topic
const (
	EventTypePurchaseCompleted  = "PURCHASE_COMPLETED"
	EventTypeTopUpRequested     = "TOPUP_REQUESTED"
	EventTypeTopUpReviewed      = "TOPUP_REVIEWED"
	EventTypeBalanceCredited    = "BALANCE_CREDITED"
	EventTypeFulfillmentUpdated = "FULFILLMENT_UPDATED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// PurchaseCompletedEvent published after a purchase transaction commits
type PurchaseCompletedEvent struct {
	BaseEvent
	PurchaseID string          `json:"purchase_id"`
	AccountID  string          `json:"account_id"`
	CarID      string          `json:"car_id"`
	Price      decimal.Decimal `json:"price"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// TopUpRequestedEvent published when a user submits a funding request.
// This is the notification artifact the admin review queue is built on.
type TopUpRequestedEvent struct {
	BaseEvent
	RequestID string          `json:"request_id"`
	AccountID string          `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// TopUpReviewedEvent published when an admin approves or rejects a request
type TopUpReviewedEvent struct {
	BaseEvent
	RequestID string `json:"request_id"`
	AccountID string `json:"account_id"`
	Status    string `json:"status"`
}

// BalanceCreditedEvent published after any ledger credit commits
type BalanceCreditedEvent struct {
	BaseEvent
	AccountID  string          `json:"account_id"`
	Amount     decimal.Decimal `json:"amount"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// FulfillmentUpdatedEvent published when a purchase's fulfillment state changes
type FulfillmentUpdatedEvent struct {
	BaseEvent
	PurchaseID string `json:"purchase_id"`
	AccountID  string `json:"account_id"`
	Status     string `json:"status"`
}
