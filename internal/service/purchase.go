package service

import (
	"context"
	"errors"
	"time"

	"carshop/internal/models"
	"carshop/internal/store"
	"carshop/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PurchaseService runs the purchase transaction: validate, debit the
// balance and record the purchase as one atomic unit.
type PurchaseService struct {
	store      store.Store
	publisher  Publisher
	logger     *zap.Logger
	maxRetries int
}

// NewPurchaseService creates a new purchase service
func NewPurchaseService(s store.Store, publisher Publisher, maxRetries int) *PurchaseService {
	return &PurchaseService{
		store:      s,
		publisher:  publisher,
		logger:     util.GetLogger(),
		maxRetries: maxRetries,
	}
}

// Purchase buys a car for the account. The debited amount is the price
// read inside the transaction, captured onto the purchase record along
// with the car's descriptive snapshot. The ledger debit is authoritative
// settlement, so the purchase is created with payment status completed.
func (s *PurchaseService) Purchase(ctx context.Context, accountID, carID, idempotencyKey string) (*models.Purchase, error) {
	ctx, span := util.StartSpan(ctx, "PurchaseService.Purchase")
	defer span.End()

	start := time.Now()
	defer func() {
		util.PurchaseLatency.Observe(time.Since(start).Seconds())
	}()

	if idempotencyKey == "" {
		idempotencyKey = uuid.New().String()
	}

	existing, err := s.store.GetPurchaseByIdempotencyKey(ctx, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logger.Info("Duplicate purchase request detected",
			zap.String("idempotency_key", idempotencyKey),
			zap.String("purchase_id", existing.ID))
		return existing, nil
	}

	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		util.PurchasesFailedTotal.WithLabelValues("account_not_found").Inc()
		return nil, err
	}
	car, err := s.store.GetCar(ctx, carID)
	if err != nil {
		util.PurchasesFailedTotal.WithLabelValues("car_not_found").Inc()
		return nil, err
	}

	purchase := &models.Purchase{
		ID:                uuid.New().String(),
		AccountID:         accountID,
		CarID:             car.ID,
		Make:              car.Make,
		Model:             car.Model,
		Year:              car.Year,
		PriceAtPurchase:   car.Price,
		Image:             car.Image,
		FulfillmentStatus: models.FulfillmentProcessing,
		PaymentStatus:     models.PaymentCompleted,
		IdempotencyKey:    idempotencyKey,
	}

	var newBalance decimal.Decimal
	err = retryConflicts(s.maxRetries, func() error {
		var err error
		newBalance, err = s.store.CreatePurchaseTx(ctx, purchase)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInsufficientFunds):
			util.PurchasesFailedTotal.WithLabelValues("insufficient_funds").Inc()
		case errors.Is(err, models.ErrConflict):
			util.PurchasesFailedTotal.WithLabelValues("conflict").Inc()
		default:
			util.PurchasesFailedTotal.WithLabelValues("store_error").Inc()
		}
		return nil, err
	}

	util.PurchasesCompletedTotal.Inc()
	s.logger.Info("Purchase completed",
		zap.String("purchase_id", purchase.ID),
		zap.String("account_id", accountID),
		zap.String("car_id", car.ID),
		zap.String("price", purchase.PriceAtPurchase.String()),
		zap.String("new_balance", newBalance.String()))

	s.publishCompleted(ctx, purchase, newBalance)
	return purchase, nil
}

// ListByAccount returns the account's purchases with their car snapshots
func (s *PurchaseService) ListByAccount(ctx context.Context, accountID string) ([]models.Purchase, error) {
	return s.store.ListPurchasesByAccount(ctx, accountID)
}

func (s *PurchaseService) publishCompleted(ctx context.Context, purchase *models.Purchase, newBalance decimal.Decimal) {
	if s.publisher == nil {
		return
	}
	event := &models.PurchaseCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePurchaseCompleted,
			Timestamp: time.Now(),
		},
		PurchaseID: purchase.ID,
		AccountID:  purchase.AccountID,
		CarID:      purchase.CarID,
		Price:      purchase.PriceAtPurchase,
		NewBalance: newBalance,
	}
	if err := s.publisher.PublishPurchaseCompleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish PurchaseCompleted event", zap.Error(err))
	}
}
