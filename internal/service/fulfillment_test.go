package service

import (
	"context"
	"testing"

	"carshop/internal/models"
	"carshop/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPurchase(t *testing.T, mem *store.Memory, id, accountID string) *models.Purchase {
	t.Helper()
	purchase := &models.Purchase{
		ID:                id,
		AccountID:         accountID,
		CarID:             "car-1",
		Make:              "Honda",
		Model:             "Civic",
		Year:              2019,
		PriceAtPurchase:   decimal.NewFromInt(200),
		FulfillmentStatus: models.FulfillmentProcessing,
		PaymentStatus:     models.PaymentCompleted,
		IdempotencyKey:    "seed-" + id,
	}
	_, err := mem.CreatePurchaseTx(context.Background(), purchase)
	require.NoError(t, err)
	return purchase
}

func TestAdvanceWalksProcessingShippedDelivered(t *testing.T) {
	mem := newAccountStore(t, "acct-1", 1000)
	purchase := seedPurchase(t, mem, "p-1", "acct-1")
	svc := NewFulfillmentService(mem, nil)
	ctx := context.Background()

	got, err := svc.Advance(ctx, purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FulfillmentShipped, got.FulfillmentStatus)

	got, err = svc.Advance(ctx, purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FulfillmentDelivered, got.FulfillmentStatus)
}

func TestAdvanceAtDeliveredIsNoOp(t *testing.T) {
	mem := newAccountStore(t, "acct-1", 1000)
	purchase := seedPurchase(t, mem, "p-1", "acct-1")
	svc := NewFulfillmentService(mem, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		got, err := svc.Advance(ctx, purchase.ID)
		require.NoError(t, err)
		if i >= 1 {
			assert.Equal(t, models.FulfillmentDelivered, got.FulfillmentStatus,
				"advance past delivered must stay at delivered")
		}
	}
}

func TestAdvanceUnknownPurchase(t *testing.T) {
	svc := NewFulfillmentService(store.NewMemory(), nil)
	_, err := svc.Advance(context.Background(), "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSetFulfillmentAllowsRegression(t *testing.T) {
	mem := newAccountStore(t, "acct-1", 1000)
	purchase := seedPurchase(t, mem, "p-1", "acct-1")
	svc := NewFulfillmentService(mem, nil)
	ctx := context.Background()

	_, err := svc.SetFulfillment(ctx, purchase.ID, models.FulfillmentDelivered)
	require.NoError(t, err)

	got, err := svc.SetFulfillment(ctx, purchase.ID, models.FulfillmentProcessing)
	require.NoError(t, err)
	assert.Equal(t, models.FulfillmentProcessing, got.FulfillmentStatus)
}

func TestSetFulfillmentRejectsUnknownStatus(t *testing.T) {
	mem := newAccountStore(t, "acct-1", 1000)
	purchase := seedPurchase(t, mem, "p-1", "acct-1")
	svc := NewFulfillmentService(mem, nil)

	_, err := svc.SetFulfillment(context.Background(), purchase.ID, "teleported")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestSetPayment(t *testing.T) {
	mem := newAccountStore(t, "acct-1", 1000)
	purchase := seedPurchase(t, mem, "p-1", "acct-1")
	svc := NewFulfillmentService(mem, nil)
	ctx := context.Background()

	got, err := svc.SetPayment(ctx, purchase.ID, models.PaymentFailed)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, got.PaymentStatus)

	_, err = svc.SetPayment(ctx, purchase.ID, "maybe")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestDeleteDoesNotReverseDebit(t *testing.T) {
	mem := newAccountStore(t, "acct-1", 1000)
	purchase := seedPurchase(t, mem, "p-1", "acct-1")
	svc := NewFulfillmentService(mem, nil)
	ctx := context.Background()

	balanceBefore, err := mem.GetAccount(ctx, "acct-1")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, purchase.ID))

	_, err = mem.GetPurchase(ctx, purchase.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	balanceAfter, err := mem.GetAccount(ctx, "acct-1")
	require.NoError(t, err)
	assert.True(t, balanceAfter.Balance.Equal(balanceBefore.Balance))

	assert.ErrorIs(t, svc.Delete(ctx, purchase.ID), models.ErrNotFound)
}
