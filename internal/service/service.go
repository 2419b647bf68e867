package service

import (
	"context"

	"carshop/internal/models"
	"carshop/internal/util"
)

// Publisher is the slice of the event publisher the services use.
// Satisfied by *broker.EventPublisher; nil disables publishing.
type Publisher interface {
	PublishPurchaseCompleted(ctx context.Context, event *models.PurchaseCompletedEvent) error
	PublishTopUpRequested(ctx context.Context, event *models.TopUpRequestedEvent) error
	PublishTopUpReviewed(ctx context.Context, event *models.TopUpReviewedEvent) error
	PublishBalanceCredited(ctx context.Context, event *models.BalanceCreditedEvent) error
	PublishFulfillmentUpdated(ctx context.Context, event *models.FulfillmentUpdatedEvent) error
}

// retryConflicts reruns fn while it fails with a retryable write conflict,
// up to maxRetries extra attempts. Validation and authorization failures
// pass through on the first occurrence.
func retryConflicts(maxRetries int, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !models.IsRetryable(err) || attempt >= maxRetries {
			return err
		}
		util.LedgerConflictsTotal.Inc()
	}
}
