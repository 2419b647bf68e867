package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"carshop/internal/models"
	"carshop/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccountStore(t *testing.T, id string, balance int64) *store.Memory {
	t.Helper()
	mem := store.NewMemory()
	mem.SeedAccount(models.Account{
		ID:      id,
		Name:    "Test User",
		Balance: decimal.NewFromInt(balance),
	})
	return mem
}

func TestCreditIncreasesBalance(t *testing.T) {
	mem := newAccountStore(t, "acct-1", 100)
	ledger := NewLedgerService(mem, nil, 3)

	newBalance, err := ledger.Credit(context.Background(), "acct-1", decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.True(t, newBalance.Equal(decimal.NewFromInt(150)), "got %s", newBalance)
}

func TestCreditRejectsNonPositiveAmount(t *testing.T) {
	mem := newAccountStore(t, "acct-1", 100)
	ledger := NewLedgerService(mem, nil, 3)

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		_, err := ledger.Credit(context.Background(), "acct-1", amount)
		assert.ErrorIs(t, err, models.ErrValidation)
	}

	account, err := mem.GetAccount(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(100)))
}

func TestDebitDecreasesBalance(t *testing.T) {
	mem := newAccountStore(t, "acct-1", 100)
	ledger := NewLedgerService(mem, nil, 3)

	newBalance, err := ledger.Debit(context.Background(), "acct-1", decimal.NewFromInt(40))
	require.NoError(t, err)
	assert.True(t, newBalance.Equal(decimal.NewFromInt(60)))
}

func TestDebitExceedingBalanceRejectedWholesale(t *testing.T) {
	mem := newAccountStore(t, "acct-1", 100)
	ledger := NewLedgerService(mem, nil, 3)

	_, err := ledger.Debit(context.Background(), "acct-1", decimal.NewFromInt(101))
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)

	var detail *models.InsufficientFundsError
	require.ErrorAs(t, err, &detail)
	assert.True(t, detail.Balance.Equal(decimal.NewFromInt(100)))
	assert.True(t, detail.Requested.Equal(decimal.NewFromInt(101)))

	account, err := mem.GetAccount(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(100)), "rejected debit must not touch the balance")
}

func TestBalanceEqualsCreditsMinusDebits(t *testing.T) {
	mem := newAccountStore(t, "acct-1", 0)
	ledger := NewLedgerService(mem, nil, 3)
	ctx := context.Background()

	credits := []int64{200, 75, 25}
	debits := []int64{50, 100}

	for _, amount := range credits {
		_, err := ledger.Credit(ctx, "acct-1", decimal.NewFromInt(amount))
		require.NoError(t, err)
	}
	for _, amount := range debits {
		_, err := ledger.Debit(ctx, "acct-1", decimal.NewFromInt(amount))
		require.NoError(t, err)
	}

	account, err := mem.GetAccount(ctx, "acct-1")
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(150)), "balance must equal credits minus debits, got %s", account.Balance)
	assert.False(t, account.Balance.IsNegative())
}

func TestLedgerUnknownAccount(t *testing.T) {
	mem := store.NewMemory()
	ledger := NewLedgerService(mem, nil, 3)

	_, err := ledger.Credit(context.Background(), "ghost", decimal.NewFromInt(10))
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = ledger.Debit(context.Background(), "ghost", decimal.NewFromInt(10))
	assert.ErrorIs(t, err, models.ErrNotFound)
}

// conflictStore fails Credit with a retryable conflict a fixed number of
// times before delegating to the wrapped store.
type conflictStore struct {
	store.Store
	remaining int
}

func (c *conflictStore) Credit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if c.remaining > 0 {
		c.remaining--
		return decimal.Zero, fmt.Errorf("simulated: %w", models.ErrConflict)
	}
	return c.Store.Credit(ctx, accountID, amount)
}

func TestCreditRetriesConflicts(t *testing.T) {
	mem := newAccountStore(t, "acct-1", 0)
	ledger := NewLedgerService(&conflictStore{Store: mem, remaining: 2}, nil, 3)

	newBalance, err := ledger.Credit(context.Background(), "acct-1", decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.True(t, newBalance.Equal(decimal.NewFromInt(10)))
}

func TestCreditSurfacesConflictAfterRetriesExhausted(t *testing.T) {
	mem := newAccountStore(t, "acct-1", 0)
	ledger := NewLedgerService(&conflictStore{Store: mem, remaining: 10}, nil, 2)

	_, err := ledger.Credit(context.Background(), "acct-1", decimal.NewFromInt(10))
	assert.True(t, errors.Is(err, models.ErrConflict))
}
