package store

import (
	"context"
	"database/sql"
	"fmt"

	"carshop/internal/models"
)

// GetPurchase retrieves a purchase by ID
func (s *SQLStore) GetPurchase(ctx context.Context, id string) (*models.Purchase, error) {
	var purchase models.Purchase
	err := s.db.GetContext(ctx, &purchase, "SELECT * FROM purchases WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("purchase %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return &purchase, nil
}

// GetPurchaseByIdempotencyKey returns the purchase created under key, or
// nil if the key has not been used.
func (s *SQLStore) GetPurchaseByIdempotencyKey(ctx context.Context, key string) (*models.Purchase, error) {
	var purchase models.Purchase
	err := s.db.GetContext(ctx, &purchase,
		"SELECT * FROM purchases WHERE idempotency_key = $1", key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return &purchase, nil
}

// ListPurchases returns all purchases, newest first
func (s *SQLStore) ListPurchases(ctx context.Context) ([]models.Purchase, error) {
	var purchases []models.Purchase
	err := s.db.SelectContext(ctx, &purchases,
		"SELECT * FROM purchases ORDER BY created_at DESC, id")
	if err != nil {
		return nil, mapError(err)
	}
	return purchases, nil
}

// ListPurchasesByAccount returns an account's purchases, newest first
func (s *SQLStore) ListPurchasesByAccount(ctx context.Context, accountID string) ([]models.Purchase, error) {
	var purchases []models.Purchase
	err := s.db.SelectContext(ctx, &purchases,
		"SELECT * FROM purchases WHERE account_id = $1 ORDER BY created_at DESC, id", accountID)
	if err != nil {
		return nil, mapError(err)
	}
	return purchases, nil
}

// UpdateFulfillmentStatus sets the fulfillment status of a purchase
func (s *SQLStore) UpdateFulfillmentStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE purchases SET fulfillment_status = $1 WHERE id = $2", status, id)
	return rowUpdated(res, err, "purchase", id)
}

// UpdatePaymentStatus sets the payment status of a purchase
func (s *SQLStore) UpdatePaymentStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE purchases SET payment_status = $1 WHERE id = $2", status, id)
	return rowUpdated(res, err, "purchase", id)
}

// DeletePurchase hard-deletes a purchase. The original ledger debit is
// not reversed; reconciliation is an admin responsibility.
func (s *SQLStore) DeletePurchase(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM purchases WHERE id = $1", id)
	return rowUpdated(res, err, "purchase", id)
}

func rowUpdated(res sql.Result, err error, kind, id string) error {
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, models.ErrNotFound)
	}
	return nil
}
