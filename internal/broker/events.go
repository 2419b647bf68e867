package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"carshop/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing shop domain events. Events are
// published after the owning database transaction commits; a publish
// failure is logged and never fails the operation.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishPurchaseCompleted publishes a PurchaseCompleted event
func (ep *EventPublisher) PublishPurchaseCompleted(ctx context.Context, event *models.PurchaseCompletedEvent) error {
	return ep.producer.PublishEvent(ctx, "purchase-"+event.PurchaseID, event)
}

// PublishTopUpRequested publishes a TopUpRequested event
func (ep *EventPublisher) PublishTopUpRequested(ctx context.Context, event *models.TopUpRequestedEvent) error {
	return ep.producer.PublishEvent(ctx, "topup-"+event.RequestID, event)
}

// PublishTopUpReviewed publishes a TopUpReviewed event
func (ep *EventPublisher) PublishTopUpReviewed(ctx context.Context, event *models.TopUpReviewedEvent) error {
	return ep.producer.PublishEvent(ctx, "topup-"+event.RequestID, event)
}

// PublishBalanceCredited publishes a BalanceCredited event
func (ep *EventPublisher) PublishBalanceCredited(ctx context.Context, event *models.BalanceCreditedEvent) error {
	return ep.producer.PublishEvent(ctx, "account-"+event.AccountID, event)
}

// PublishFulfillmentUpdated publishes a FulfillmentUpdated event
func (ep *EventPublisher) PublishFulfillmentUpdated(ctx context.Context, event *models.FulfillmentUpdatedEvent) error {
	return ep.producer.PublishEvent(ctx, "purchase-"+event.PurchaseID, event)
}

// EventHandler routes incoming shop events to registered handlers
type EventHandler struct {
	onTopUpRequested    func(context.Context, *models.TopUpRequestedEvent) error
	onPurchaseCompleted func(context.Context, *models.PurchaseCompletedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnTopUpRequested registers a handler for TopUpRequested events
func (eh *EventHandler) OnTopUpRequested(handler func(context.Context, *models.TopUpRequestedEvent) error) {
	eh.onTopUpRequested = handler
}

// OnPurchaseCompleted registers a handler for PurchaseCompleted events
func (eh *EventHandler) OnPurchaseCompleted(handler func(context.Context, *models.PurchaseCompletedEvent) error) {
	eh.onPurchaseCompleted = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeTopUpRequested:
		if eh.onTopUpRequested != nil {
			var event models.TopUpRequestedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal TopUpRequested event: %w", err)
			}
			return eh.onTopUpRequested(ctx, &event)
		}

	case models.EventTypePurchaseCompleted:
		if eh.onPurchaseCompleted != nil {
			var event models.PurchaseCompletedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PurchaseCompleted event: %w", err)
			}
			return eh.onPurchaseCompleted(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
