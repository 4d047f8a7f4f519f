// Package tracker keeps the order status cache in redis up to date from the
// storefront's order events.
package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	kafkax "github.com/ariefcatur/go-food-storefront/internal/kafka"
	"github.com/ariefcatur/go-food-storefront/internal/orders"
	"github.com/ariefcatur/go-food-storefront/internal/redisx"
)

// errMalformed marks events that can never be applied. They are acknowledged
// so the partition moves on; everything else is retried by the consumer.
var errMalformed = errors.New("malformed event")

type Service struct {
	Redis redis.Cmdable
	Name  string
	Log   logrus.FieldLogger
}

// HandleEvent is installed as the consumer handler. Unknown and malformed
// events are acknowledged and skipped; a returned error means redis failed and
// the event must be retried.
func (s *Service) HandleEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// poison message, nothing to retry
		s.Log.WithError(err).WithField("offset", m.Offset).Warn("undecodable event skipped")
		return nil
	}
	log := s.Log.WithFields(logrus.Fields{"event_id": env.EventID, "event_type": env.EventType, "order_id": env.CorrelationID})

	dkey := fmt.Sprintf(redisx.KeyDedup, s.Name, env.EventID)
	if seen, _ := redisx.Exists(ctx, s.Redis, dkey); seen {
		log.Debug("duplicate event")
		return nil
	}

	var err error
	switch env.EventType {
	case orders.EventOrderPlaced:
		err = s.placed(ctx, env.Payload)
	case orders.EventOrderCancelled:
		err = s.cancelled(ctx, env.Payload, env.OccurredAt)
	default:
		return nil
	}
	if errors.Is(err, errMalformed) {
		log.WithError(err).Warn("malformed event skipped")
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "handle %s", env.EventType)
	}

	if _, err := redisx.MarkOnce(ctx, s.Redis, dkey, redisx.TTLDedup); err != nil {
		log.WithError(err).Warn("dedup mark failed")
	}
	log.Info("order status cached")
	return nil
}

func (s *Service) placed(ctx context.Context, raw json.RawMessage) error {
	p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](raw)
	if err != nil {
		return errors.Wrap(errMalformed, err.Error())
	}
	o := p.Order
	if o.ID == "" {
		return errors.Wrap(errMalformed, "placed event without order id")
	}
	// events of one order travel on two topics, so a cancel may arrive first
	if cur, ok, err := s.cached(ctx, o.ID); err != nil {
		return err
	} else if ok && cur.Status == orders.StatusCancelled {
		return nil
	}
	if o.Status == "" {
		o.Status = orders.StatusPending
	}
	return s.store(ctx, o)
}

func (s *Service) cancelled(ctx context.Context, raw json.RawMessage, at time.Time) error {
	p, err := kafkax.UnwrapPayload[orders.OrderCancelledPayload](raw)
	if err != nil {
		return errors.Wrap(errMalformed, err.Error())
	}
	if p.OrderID == "" {
		return errors.Wrap(errMalformed, "cancelled event without order id")
	}
	o, ok, err := s.cached(ctx, p.OrderID)
	if err != nil {
		return err
	}
	if !ok {
		o = orders.Order{ID: p.OrderID, Total: p.Total}
	}
	o.Status = orders.StatusCancelled
	o.UpdatedAt = at
	return s.store(ctx, o)
}

func (s *Service) cached(ctx context.Context, id string) (orders.Order, bool, error) {
	var o orders.Order
	b, err := s.Redis.Get(ctx, fmt.Sprintf(redisx.KeyOrderStatus, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return o, false, nil
	}
	if err != nil {
		return o, false, err
	}
	if err := json.Unmarshal(b, &o); err != nil {
		// overwrite a corrupt entry
		return o, false, nil
	}
	return o, true, nil
}

func (s *Service) store(ctx context.Context, o orders.Order) error {
	b, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return s.Redis.Set(ctx, fmt.Sprintf(redisx.KeyOrderStatus, o.ID), b, redisx.TTLStatusCache).Err()
}
