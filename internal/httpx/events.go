package httpx

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	kafkax "github.com/ariefcatur/go-food-storefront/internal/kafka"
	"github.com/ariefcatur/go-food-storefront/internal/logging"
	"github.com/ariefcatur/go-food-storefront/internal/orders"
)

// Events publishes order lifecycle events for the tracker.
type Events struct {
	Placed    kafkax.Publisher
	Cancelled kafkax.Publisher
	Service   string
}

// OrderPlaced matches the session registry's placement hook.
func (e *Events) OrderPlaced(ctx context.Context, sessionID string, o orders.Order) {
	e.publish(ctx, e.Placed, orders.EventOrderPlaced, o.ID, orders.OrderPlacedPayload{Order: o, SessionID: sessionID})
}

func (e *Events) OrderCancelled(ctx context.Context, sessionID string, o orders.Order) {
	e.publish(ctx, e.Cancelled, orders.EventOrderCancelled, o.ID, orders.OrderCancelledPayload{
		OrderID:   o.ID,
		Total:     o.Total,
		SessionID: sessionID,
	})
}

func (e *Events) publish(ctx context.Context, p kafkax.Publisher, eventType, orderID string, payload any) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      e.Service,
		TraceID:       middleware.GetReqID(ctx),
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev), kafkax.EventHeaders(eventType, ev.EventVersion)...)
	logging.From(ctx).WithField("order_id", orderID).WithField("event_type", eventType).Info("order event published")
}
