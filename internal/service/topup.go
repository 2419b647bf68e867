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

// TopUpService manages the funding request queue. Approval credits the
// ledger in the same store transaction that marks the request approved,
// so a request can never be credited twice.
type TopUpService struct {
	store      store.Store
	publisher  Publisher
	logger     *zap.Logger
	maxRetries int
}

// NewTopUpService creates a new top-up service
func NewTopUpService(s store.Store, publisher Publisher, maxRetries int) *TopUpService {
	return &TopUpService{
		store:      s,
		publisher:  publisher,
		logger:     util.GetLogger(),
		maxRetries: maxRetries,
	}
}

// Request submits a pending top-up request for the account
func (s *TopUpService) Request(ctx context.Context, accountID string, amount decimal.Decimal) (*models.TopUpRequest, error) {
	ctx, span := util.StartSpan(ctx, "TopUpService.Request")
	defer span.End()

	if !amount.IsPositive() {
		return nil, &models.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}

	req := &models.TopUpRequest{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Amount:    amount,
		Status:    models.TopUpPending,
	}
	if err := s.store.CreateTopUpRequest(ctx, req); err != nil {
		return nil, err
	}

	util.TopUpRequestsTotal.Inc()
	s.logger.Info("Top-up requested",
		zap.String("request_id", req.ID),
		zap.String("account_id", accountID),
		zap.String("amount", amount.String()))

	if s.publisher != nil {
		event := &models.TopUpRequestedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeTopUpRequested,
				Timestamp: time.Now(),
			},
			RequestID: req.ID,
			AccountID: accountID,
			Amount:    amount,
		}
		if err := s.publisher.PublishTopUpRequested(ctx, event); err != nil {
			s.logger.Error("Failed to publish TopUpRequested event", zap.Error(err))
		}
	}
	return req, nil
}

// List returns all top-up requests, pending first
func (s *TopUpService) List(ctx context.Context) ([]models.TopUpRequest, error) {
	return s.store.ListTopUpRequests(ctx)
}

// Approve marks the request approved and credits its amount in one store
// transaction. A request that was already reviewed fails with ErrConflict.
func (s *TopUpService) Approve(ctx context.Context, requestID string) (*models.TopUpRequest, decimal.Decimal, error) {
	ctx, span := util.StartSpan(ctx, "TopUpService.Approve")
	defer span.End()

	var req *models.TopUpRequest
	var newBalance decimal.Decimal
	err := retryConflicts(s.maxRetries, func() error {
		var err error
		req, newBalance, err = s.store.ApproveTopUpTx(ctx, requestID)
		return err
	})
	if err != nil {
		return nil, decimal.Zero, err
	}

	util.TopUpReviewsTotal.WithLabelValues(models.TopUpApproved).Inc()
	util.LedgerCreditsTotal.Inc()
	s.logger.Info("Top-up approved",
		zap.String("request_id", req.ID),
		zap.String("account_id", req.AccountID),
		zap.String("amount", req.Amount.String()),
		zap.String("new_balance", newBalance.String()))

	s.publishReviewed(ctx, req)
	if s.publisher != nil {
		event := &models.BalanceCreditedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeBalanceCredited,
				Timestamp: time.Now(),
			},
			AccountID:  req.AccountID,
			Amount:     req.Amount,
			NewBalance: newBalance,
		}
		if err := s.publisher.PublishBalanceCredited(ctx, event); err != nil {
			s.logger.Error("Failed to publish BalanceCredited event", zap.Error(err))
		}
	}
	return req, newBalance, nil
}

// Reject marks a pending request rejected without touching the ledger
func (s *TopUpService) Reject(ctx context.Context, requestID string) (*models.TopUpRequest, error) {
	ctx, span := util.StartSpan(ctx, "TopUpService.Reject")
	defer span.End()

	req, err := s.store.RejectTopUpRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	util.TopUpReviewsTotal.WithLabelValues(models.TopUpRejected).Inc()
	s.logger.Info("Top-up rejected",
		zap.String("request_id", req.ID),
		zap.String("account_id", req.AccountID))

	s.publishReviewed(ctx, req)
	return req, nil
}

func (s *TopUpService) publishReviewed(ctx context.Context, req *models.TopUpRequest) {
	if s.publisher == nil {
		return
	}
	event := &models.TopUpReviewedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeTopUpReviewed,
			Timestamp: time.Now(),
		},
		RequestID: req.ID,
		AccountID: req.AccountID,
		Status:    req.Status,
	}
	if err := s.publisher.PublishTopUpReviewed(ctx, event); err != nil {
		s.logger.Error("Failed to publish TopUpReviewed event", zap.Error(err))
	}
}
