package service

import (
	"context"
	"time"

	"carshop/internal/models"
	"carshop/internal/store"
	"carshop/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FulfillmentService advances purchases through shipment states and
// records administrative payment-status reviews. All operations here are
// admin-only; the API layer enforces the claim before calls arrive.
type FulfillmentService struct {
	store     store.Store
	publisher Publisher
	logger    *zap.Logger
}

// NewFulfillmentService creates a new fulfillment service
func NewFulfillmentService(s store.Store, publisher Publisher) *FulfillmentService {
	return &FulfillmentService{
		store:     s,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// List returns all purchases for the admin panel
func (s *FulfillmentService) List(ctx context.Context) ([]models.Purchase, error) {
	return s.store.ListPurchases(ctx)
}

// Advance moves a purchase one step forward:
// processing -> shipped -> delivered. Advancing a delivered purchase is a
// no-op returning the unchanged record.
func (s *FulfillmentService) Advance(ctx context.Context, purchaseID string) (*models.Purchase, error) {
	ctx, span := util.StartSpan(ctx, "FulfillmentService.Advance")
	defer span.End()

	purchase, err := s.store.GetPurchase(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if purchase.FulfillmentStatus == models.FulfillmentDelivered {
		return purchase, nil
	}

	next := models.NextFulfillment(purchase.FulfillmentStatus)
	if err := s.store.UpdateFulfillmentStatus(ctx, purchaseID, next); err != nil {
		return nil, err
	}
	purchase.FulfillmentStatus = next

	util.FulfillmentUpdatesTotal.WithLabelValues(next).Inc()
	s.logger.Info("Fulfillment advanced",
		zap.String("purchase_id", purchaseID),
		zap.String("status", next))

	s.publishFulfillment(ctx, purchase)
	return purchase, nil
}

// SetFulfillment sets any of the three fulfillment states directly,
// including regressions. Administrative escape hatch; the monotonic
// progression applies to Advance only.
func (s *FulfillmentService) SetFulfillment(ctx context.Context, purchaseID, status string) (*models.Purchase, error) {
	ctx, span := util.StartSpan(ctx, "FulfillmentService.SetFulfillment")
	defer span.End()

	if !models.ValidFulfillmentStatus(status) {
		return nil, &models.ValidationError{Field: "fulfillment_status", Reason: "unknown status " + status}
	}

	purchase, err := s.store.GetPurchase(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateFulfillmentStatus(ctx, purchaseID, status); err != nil {
		return nil, err
	}
	purchase.FulfillmentStatus = status

	util.FulfillmentUpdatesTotal.WithLabelValues(status).Inc()
	s.publishFulfillment(ctx, purchase)
	return purchase, nil
}

// SetPayment records the admin's settlement review. Independent of
// fulfillment status; no ordering constraint.
func (s *FulfillmentService) SetPayment(ctx context.Context, purchaseID, status string) (*models.Purchase, error) {
	ctx, span := util.StartSpan(ctx, "FulfillmentService.SetPayment")
	defer span.End()

	if !models.ValidPaymentStatus(status) {
		return nil, &models.ValidationError{Field: "payment_status", Reason: "unknown status " + status}
	}

	purchase, err := s.store.GetPurchase(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdatePaymentStatus(ctx, purchaseID, status); err != nil {
		return nil, err
	}
	purchase.PaymentStatus = status
	return purchase, nil
}

// Delete hard-deletes a purchase. The original ledger debit is not
// reversed; reconciliation is the admin's manual responsibility.
func (s *FulfillmentService) Delete(ctx context.Context, purchaseID string) error {
	ctx, span := util.StartSpan(ctx, "FulfillmentService.Delete")
	defer span.End()

	if err := s.store.DeletePurchase(ctx, purchaseID); err != nil {
		return err
	}
	s.logger.Warn("Purchase deleted, ledger debit not reversed",
		zap.String("purchase_id", purchaseID))
	return nil
}

func (s *FulfillmentService) publishFulfillment(ctx context.Context, purchase *models.Purchase) {
	if s.publisher == nil {
		return
	}
	event := &models.FulfillmentUpdatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeFulfillmentUpdated,
			Timestamp: time.Now(),
		},
		PurchaseID: purchase.ID,
		AccountID:  purchase.AccountID,
		Status:     purchase.FulfillmentStatus,
	}
	if err := s.publisher.PublishFulfillmentUpdated(ctx, event); err != nil {
		s.logger.Error("Failed to publish FulfillmentUpdated event", zap.Error(err))
	}
}
