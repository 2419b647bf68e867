package store

import (
	"context"
	"database/sql"
	"fmt"

	"carshop/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// withTx runs fn inside a transaction. Rollback on error, commit on nil.
func (s *SQLStore) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return mapError(err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapError(err)
	}
	return nil
}

// lockBalance reads the account balance under a row lock so no concurrent
// ledger operation can commit against a stale read.
func lockBalance(ctx context.Context, tx *sqlx.Tx, accountID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := tx.GetContext(ctx, &balance,
		"SELECT balance FROM accounts WHERE id = $1 FOR UPDATE", accountID)
	if err == sql.ErrNoRows {
		return decimal.Zero, fmt.Errorf("account %s: %w", accountID, models.ErrNotFound)
	}
	if err != nil {
		return decimal.Zero, mapError(err)
	}
	return balance, nil
}

func setBalance(ctx context.Context, tx *sqlx.Tx, accountID string, balance decimal.Decimal) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE accounts SET balance = $1 WHERE id = $2", balance, accountID)
	return mapError(err)
}

// Debit atomically decreases the account balance by amount. A debit that
// would cross zero is rejected wholesale.
func (s *SQLStore) Debit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	var newBalance decimal.Decimal
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		balance, err := lockBalance(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if balance.LessThan(amount) {
			return &models.InsufficientFundsError{
				AccountID: accountID,
				Balance:   balance,
				Requested: amount,
			}
		}
		newBalance = balance.Sub(amount)
		return setBalance(ctx, tx, accountID, newBalance)
	})
	return newBalance, err
}

// Credit atomically increases the account balance by amount.
func (s *SQLStore) Credit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	var newBalance decimal.Decimal
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		balance, err := lockBalance(ctx, tx, accountID)
		if err != nil {
			return err
		}
		newBalance = balance.Add(amount)
		return setBalance(ctx, tx, accountID, newBalance)
	})
	return newBalance, err
}

// CreatePurchaseTx debits the account by the purchase's price-at-purchase
// and inserts the purchase record as one all-or-nothing unit. A debit
// without its purchase record is never observable.
func (s *SQLStore) CreatePurchaseTx(ctx context.Context, purchase *models.Purchase) (decimal.Decimal, error) {
	var newBalance decimal.Decimal
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		balance, err := lockBalance(ctx, tx, purchase.AccountID)
		if err != nil {
			return err
		}
		if balance.LessThan(purchase.PriceAtPurchase) {
			return &models.InsufficientFundsError{
				AccountID: purchase.AccountID,
				Balance:   balance,
				Requested: purchase.PriceAtPurchase,
			}
		}
		newBalance = balance.Sub(purchase.PriceAtPurchase)
		if err := setBalance(ctx, tx, purchase.AccountID, newBalance); err != nil {
			return err
		}

		query := `
			INSERT INTO purchases (id, account_id, car_id, make, model, year,
				price_at_purchase, image, fulfillment_status, payment_status, idempotency_key)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING created_at`
		err = tx.GetContext(ctx, &purchase.CreatedAt, query,
			purchase.ID, purchase.AccountID, purchase.CarID, purchase.Make,
			purchase.Model, purchase.Year, purchase.PriceAtPurchase, purchase.Image,
			purchase.FulfillmentStatus, purchase.PaymentStatus, purchase.IdempotencyKey)
		return mapError(err)
	})
	return newBalance, err
}

// ApproveTopUpTx flips a pending request to approved and credits its
// amount in the same transaction. The conditional UPDATE guarantees a
// request is credited at most once.
func (s *SQLStore) ApproveTopUpTx(ctx context.Context, requestID string) (*models.TopUpRequest, decimal.Decimal, error) {
	var req models.TopUpRequest
	var newBalance decimal.Decimal
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &req, `
			UPDATE topup_requests SET status = $1
			WHERE id = $2 AND status = $3
			RETURNING *`,
			models.TopUpApproved, requestID, models.TopUpPending)
		if err == sql.ErrNoRows {
			// Either the request does not exist or it was already reviewed.
			var exists bool
			if err := tx.GetContext(ctx, &exists,
				"SELECT EXISTS(SELECT 1 FROM topup_requests WHERE id = $1)", requestID); err != nil {
				return mapError(err)
			}
			if !exists {
				return fmt.Errorf("top-up request %s: %w", requestID, models.ErrNotFound)
			}
			return fmt.Errorf("top-up request %s already reviewed: %w", requestID, models.ErrConflict)
		}
		if err != nil {
			return mapError(err)
		}

		balance, err := lockBalance(ctx, tx, req.AccountID)
		if err != nil {
			return err
		}
		newBalance = balance.Add(req.Amount)
		return setBalance(ctx, tx, req.AccountID, newBalance)
	})
	if err != nil {
		return nil, decimal.Zero, err
	}
	return &req, newBalance, nil
}
