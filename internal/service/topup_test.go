package service

import (
	"context"
	"testing"

	"carshop/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopUpRequestCreatesPendingRecord(t *testing.T) {
	mem := newAccountStore(t, "acct-1", 0)
	svc := NewTopUpService(mem, nil, 3)

	req, err := svc.Request(context.Background(), "acct-1", decimal.NewFromInt(300))
	require.NoError(t, err)
	assert.Equal(t, models.TopUpPending, req.Status)
	assert.Equal(t, "acct-1", req.AccountID)
	assert.True(t, req.Amount.Equal(decimal.NewFromInt(300)))

	account, err := mem.GetAccount(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.True(t, account.Balance.IsZero(), "a request alone must not credit the balance")

	stored, err := mem.GetTopUpRequest(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TopUpPending, stored.Status)
}

func TestTopUpRequestValidation(t *testing.T) {
	mem := newAccountStore(t, "acct-1", 0)
	svc := NewTopUpService(mem, nil, 3)
	ctx := context.Background()

	_, err := svc.Request(ctx, "acct-1", decimal.Zero)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.Request(ctx, "acct-1", decimal.NewFromInt(-10))
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.Request(ctx, "ghost", decimal.NewFromInt(10))
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestApproveCreditsExactlyOnce(t *testing.T) {
	mem := newAccountStore(t, "acct-1", 50)
	svc := NewTopUpService(mem, nil, 3)
	ctx := context.Background()

	req, err := svc.Request(ctx, "acct-1", decimal.NewFromInt(200))
	require.NoError(t, err)

	approved, newBalance, err := svc.Approve(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TopUpApproved, approved.Status)
	assert.True(t, newBalance.Equal(decimal.NewFromInt(250)))

	_, _, err = svc.Approve(ctx, req.ID)
	assert.ErrorIs(t, err, models.ErrConflict, "second approval must fail")

	account, err := mem.GetAccount(ctx, "acct-1")
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(250)), "amount credited exactly once, got %s", account.Balance)
}

func TestRejectLeavesLedgerUntouched(t *testing.T) {
	mem := newAccountStore(t, "acct-1", 50)
	svc := NewTopUpService(mem, nil, 3)
	ctx := context.Background()

	req, err := svc.Request(ctx, "acct-1", decimal.NewFromInt(200))
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TopUpRejected, rejected.Status)

	account, err := mem.GetAccount(ctx, "acct-1")
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(50)))

	_, _, err = svc.Approve(ctx, req.ID)
	assert.ErrorIs(t, err, models.ErrConflict, "a rejected request cannot be approved later")
}

func TestReviewUnknownRequest(t *testing.T) {
	mem := newAccountStore(t, "acct-1", 0)
	svc := NewTopUpService(mem, nil, 3)
	ctx := context.Background()

	_, _, err := svc.Approve(ctx, "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = svc.Reject(ctx, "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListPutsPendingFirst(t *testing.T) {
	mem := newAccountStore(t, "acct-1", 0)
	svc := NewTopUpService(mem, nil, 3)
	ctx := context.Background()

	first, err := svc.Request(ctx, "acct-1", decimal.NewFromInt(10))
	require.NoError(t, err)
	second, err := svc.Request(ctx, "acct-1", decimal.NewFromInt(20))
	require.NoError(t, err)

	_, _, err = svc.Approve(ctx, first.ID)
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "pending requests come before reviewed ones")
	assert.Equal(t, models.TopUpPending, list[0].Status)
}
