package service

import (
	"context"
	"time"

	"carshop/internal/models"
	"carshop/internal/store"
	"carshop/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerService owns balance mutations. Balances only decrease through a
// purchase debit and only increase through an admin credit or an approved
// top-up request.
type LedgerService struct {
	store      store.Store
	publisher  Publisher
	logger     *zap.Logger
	maxRetries int
}

// NewLedgerService creates a new ledger service
func NewLedgerService(s store.Store, publisher Publisher, maxRetries int) *LedgerService {
	return &LedgerService{
		store:      s,
		publisher:  publisher,
		logger:     util.GetLogger(),
		maxRetries: maxRetries,
	}
}

// GetAccount returns the account view for the caller
func (s *LedgerService) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	return s.store.GetAccount(ctx, accountID)
}

// ListAccounts returns all non-admin accounts for the admin review panel
func (s *LedgerService) ListAccounts(ctx context.Context) ([]models.Account, error) {
	return s.store.ListAccounts(ctx)
}

// Credit atomically increases an account's balance. This is the direct
// admin top-up action; it does not touch any top-up request record.
func (s *LedgerService) Credit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	ctx, span := util.StartSpan(ctx, "LedgerService.Credit")
	defer span.End()

	if !amount.IsPositive() {
		return decimal.Zero, &models.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	var newBalance decimal.Decimal
	err := retryConflicts(s.maxRetries, func() error {
		var err error
		newBalance, err = s.store.Credit(ctx, accountID, amount)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}

	util.LedgerCreditsTotal.Inc()
	s.logger.Info("Balance credited",
		zap.String("account_id", accountID),
		zap.String("amount", amount.String()),
		zap.String("new_balance", newBalance.String()))

	s.publishCredited(ctx, accountID, amount, newBalance)
	return newBalance, nil
}

// Debit atomically decreases an account's balance. A debit exceeding the
// balance is rejected wholesale with ErrInsufficientFunds.
func (s *LedgerService) Debit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	ctx, span := util.StartSpan(ctx, "LedgerService.Debit")
	defer span.End()

	if !amount.IsPositive() {
		return decimal.Zero, &models.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	var newBalance decimal.Decimal
	err := retryConflicts(s.maxRetries, func() error {
		var err error
		newBalance, err = s.store.Debit(ctx, accountID, amount)
		return err
	})
	return newBalance, err
}

func (s *LedgerService) publishCredited(ctx context.Context, accountID string, amount, newBalance decimal.Decimal) {
	if s.publisher == nil {
		return
	}
	event := &models.BalanceCreditedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeBalanceCredited,
			Timestamp: time.Now(),
		},
		AccountID:  accountID,
		Amount:     amount,
		NewBalance: newBalance,
	}
	if err := s.publisher.PublishBalanceCredited(ctx, event); err != nil {
		s.logger.Error("Failed to publish BalanceCredited event", zap.Error(err))
	}
}
