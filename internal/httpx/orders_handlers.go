package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-food-storefront/internal/logging"
	"github.com/ariefcatur/go-food-storefront/internal/orders"
	"github.com/ariefcatur/go-food-storefront/internal/redisx"
	"github.com/ariefcatur/go-food-storefront/internal/session"
)

func (h *Storefront) listOrders(ctx context.Context, s *session.Session, _ *http.Request) (int, any) {
	return fromResult(s.API.Orders().List(ctx), http.StatusOK)
}

// getOrder serves the tracking view. The API authorizes the read; the status
// cache only contributes a status the API has not caught up with yet.
func (h *Storefront) getOrder(ctx context.Context, s *session.Session, r *http.Request) (int, any) {
	o, code, body := h.trackedOrder(ctx, s, chi.URLParam(r, "id"))
	if body != nil {
		return code, body
	}
	return http.StatusOK, o
}

func (h *Storefront) cancelOrder(ctx context.Context, s *session.Session, r *http.Request) (int, any) {
	o, code, body := h.trackedOrder(ctx, s, chi.URLParam(r, "id"))
	if body != nil {
		return code, body
	}
	if !orders.Cancellable(o.Status) {
		return http.StatusConflict, errorBody{Error: fmt.Sprintf("order is %s and can no longer be cancelled", o.Status)}
	}
	res := s.API.Orders().Cancel(ctx, o.ID, o.Status)
	if !res.Success {
		return failure(res.Status, res.Error)
	}
	h.cacheOrder(ctx, res.Data)
	if h.Events != nil {
		h.Events.OrderCancelled(ctx, s.ID, res.Data)
	}
	return http.StatusOK, res.Data
}

func (h *Storefront) trackedOrder(ctx context.Context, s *session.Session, id string) (orders.Order, int, any) {
	res := s.API.Orders().Get(ctx, id)
	if !res.Success {
		code, body := failure(res.Status, res.Error)
		return orders.Order{}, code, body
	}
	o := res.Data
	if o.ID == "" {
		o.ID = id
	}
	if c, ok := h.cachedOrder(ctx, id); ok && orders.Ahead(o.Status, c.Status) {
		o.Status = c.Status
		if c.UpdatedAt.After(o.UpdatedAt) {
			o.UpdatedAt = c.UpdatedAt
		}
	}
	h.cacheOrder(ctx, o)
	return o, http.StatusOK, nil
}

func (h *Storefront) orderHistory(ctx context.Context, s *session.Session, r *http.Request) (int, any) {
	return fromResult(s.API.Orders().History(ctx, chi.URLParam(r, "id")), http.StatusOK)
}

func (h *Storefront) cachedOrder(ctx context.Context, id string) (orders.Order, bool) {
	var o orders.Order
	if h.Redis == nil {
		return o, false
	}
	b, err := h.Redis.Get(ctx, fmt.Sprintf(redisx.KeyOrderStatus, id)).Bytes()
	if err != nil || len(b) == 0 {
		return o, false
	}
	if err := json.Unmarshal(b, &o); err != nil || o.ID == "" {
		return o, false
	}
	return o, true
}

func (h *Storefront) cacheOrder(ctx context.Context, o orders.Order) {
	if h.Redis == nil {
		return
	}
	b, _ := json.Marshal(o)
	if err := h.Redis.Set(ctx, fmt.Sprintf(redisx.KeyOrderStatus, o.ID), b, redisx.TTLStatusCache).Err(); err != nil {
		logging.From(ctx).WithError(err).Warn("order status cache write failed")
	}
}
