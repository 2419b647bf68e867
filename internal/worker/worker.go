package worker

import (
	"context"

	"carshop/internal/broker"
	"carshop/internal/models"
	"carshop/internal/util"

	"go.uber.org/zap"
)

// NotificationWorker consumes shop events and surfaces the ones the admin
// review queue is built on. Top-up requests are reconciled manually, so
// the notification is the artifact the admin acts on.
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer) *NotificationWorker {
	logger := util.GetLogger()
	eventHandler := broker.NewEventHandler()

	eventHandler.OnTopUpRequested(func(_ context.Context, event *models.TopUpRequestedEvent) error {
		logger.Info("Top-up awaiting admin review",
			zap.String("request_id", event.RequestID),
			zap.String("account_id", event.AccountID),
			zap.String("amount", event.Amount.String()))
		return nil
	})
	eventHandler.OnPurchaseCompleted(func(_ context.Context, event *models.PurchaseCompletedEvent) error {
		logger.Info("Purchase awaiting fulfillment",
			zap.String("purchase_id", event.PurchaseID),
			zap.String("account_id", event.AccountID),
			zap.String("price", event.Price.String()))
		return nil
	})

	return &NotificationWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       logger,
	}
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting notification worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	w.logger.Info("Stopping notification worker")
	return w.consumer.Close()
}
