package store

import (
	"context"
	"database/sql"
	"fmt"

	"carshop/internal/models"
)

// CreateTopUpRequest inserts a new pending top-up request
func (s *SQLStore) CreateTopUpRequest(ctx context.Context, req *models.TopUpRequest) error {
	query := `
		INSERT INTO topup_requests (id, account_id, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`
	err := s.db.GetContext(ctx, &req.CreatedAt, query,
		req.ID, req.AccountID, req.Amount, req.Status)
	return mapError(err)
}

// GetTopUpRequest retrieves a top-up request by ID
func (s *SQLStore) GetTopUpRequest(ctx context.Context, id string) (*models.TopUpRequest, error) {
	var req models.TopUpRequest
	err := s.db.GetContext(ctx, &req, "SELECT * FROM topup_requests WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("top-up request %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return &req, nil
}

// ListTopUpRequests returns all requests, pending first, then newest first.
func (s *SQLStore) ListTopUpRequests(ctx context.Context) ([]models.TopUpRequest, error) {
	var reqs []models.TopUpRequest
	err := s.db.SelectContext(ctx, &reqs, `
		SELECT * FROM topup_requests
		ORDER BY (status = $1) DESC, created_at DESC, id`, models.TopUpPending)
	if err != nil {
		return nil, mapError(err)
	}
	return reqs, nil
}

// RejectTopUpRequest transitions a pending request to rejected. A request
// that was already reviewed returns ErrConflict.
func (s *SQLStore) RejectTopUpRequest(ctx context.Context, id string) (*models.TopUpRequest, error) {
	var req models.TopUpRequest
	err := s.db.GetContext(ctx, &req, `
		UPDATE topup_requests SET status = $1
		WHERE id = $2 AND status = $3
		RETURNING *`,
		models.TopUpRejected, id, models.TopUpPending)
	if err == sql.ErrNoRows {
		var exists bool
		if err := s.db.GetContext(ctx, &exists,
			"SELECT EXISTS(SELECT 1 FROM topup_requests WHERE id = $1)", id); err != nil {
			return nil, mapError(err)
		}
		if !exists {
			return nil, fmt.Errorf("top-up request %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("top-up request %s already reviewed: %w", id, models.ErrConflict)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return &req, nil
}
