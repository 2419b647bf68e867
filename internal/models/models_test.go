package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNextFulfillment(t *testing.T) {
	assert.Equal(t, FulfillmentShipped, NextFulfillment(FulfillmentProcessing))
	assert.Equal(t, FulfillmentDelivered, NextFulfillment(FulfillmentShipped))
	assert.Equal(t, FulfillmentDelivered, NextFulfillment(FulfillmentDelivered))
}

func TestStatusValidators(t *testing.T) {
	for _, s := range []string{FulfillmentProcessing, FulfillmentShipped, FulfillmentDelivered} {
		assert.True(t, ValidFulfillmentStatus(s))
	}
	assert.False(t, ValidFulfillmentStatus("pending"))

	for _, s := range []string{PaymentPending, PaymentCompleted, PaymentFailed} {
		assert.True(t, ValidPaymentStatus(s))
	}
	assert.False(t, ValidPaymentStatus("shipped"))
}

func TestInsufficientFundsErrorUnwraps(t *testing.T) {
	err := &InsufficientFundsError{
		AccountID: "acct-1",
		Balance:   decimal.NewFromInt(10),
		Requested: decimal.NewFromInt(25),
	}
	assert.True(t, errors.Is(err, ErrInsufficientFunds))
	assert.Contains(t, err.Error(), "balance 10")
	assert.Contains(t, err.Error(), "requested 25")

	var detail *InsufficientFundsError
	assert.True(t, errors.As(error(err), &detail))
}

func TestValidationErrorUnwraps(t *testing.T) {
	err := &ValidationError{Field: "price", Reason: "must be positive"}
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "price")
}

func TestErrorClassifiers(t *testing.T) {
	assert.True(t, IsRetryable(ErrConflict))
	assert.False(t, IsRetryable(ErrStoreUnavailable))
	assert.False(t, IsRetryable(ErrNotFound))

	assert.True(t, IsClientError(ErrValidation))
	assert.True(t, IsClientError(ErrInsufficientFunds))
	assert.False(t, IsClientError(ErrStoreUnavailable))
}
