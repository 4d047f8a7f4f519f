package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ariefcatur/go-food-storefront/internal/orders"
)

type OrderService struct{ c *Client }

func (c *Client) Orders() *OrderService { return &OrderService{c: c} }

func (s *OrderService) Create(ctx context.Context, req orders.PlaceOrderRequest) Result[orders.Order] {
	if len(req.Items) == 0 {
		return failMsg[orders.Order]("order has no items")
	}
	return s.order(ctx, http.MethodPost, "/orders", req)
}

// PlaceOrder makes OrderService usable as the checkout order placer.
func (s *OrderService) PlaceOrder(ctx context.Context, req orders.PlaceOrderRequest) Result[orders.Order] {
	return s.Create(ctx, req)
}

func (s *OrderService) List(ctx context.Context) Result[[]orders.Order] {
	var raw rawList[orders.Order]
	if err := s.c.do(ctx, http.MethodGet, "/orders", nil, &raw); err != nil {
		return fail[[]orders.Order](err)
	}
	for i := range raw.items {
		normalize(&raw.items[i])
	}
	return ok(raw.items)
}

func (s *OrderService) Get(ctx context.Context, id string) Result[orders.Order] {
	if id == "" {
		return failMsg[orders.Order]("order id is required")
	}
	return s.order(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil)
}

// Cancel checks the known status first when one is given; the API has the final word.
func (s *OrderService) Cancel(ctx context.Context, id string, known orders.Status) Result[orders.Order] {
	if id == "" {
		return failMsg[orders.Order]("order id is required")
	}
	if known != "" && !orders.Cancellable(known) {
		return failMsg[orders.Order]("order can no longer be cancelled")
	}
	return s.order(ctx, http.MethodPut, "/orders/"+url.PathEscape(id)+"/cancel", nil)
}

func (s *OrderService) UpdateStatus(ctx context.Context, id string, status orders.Status) Result[orders.Order] {
	if id == "" {
		return failMsg[orders.Order]("order id is required")
	}
	if !status.Valid() {
		return failMsg[orders.Order]("unknown order status " + string(status))
	}
	return s.order(ctx, http.MethodPut, "/orders/"+url.PathEscape(id)+"/status", map[string]orders.Status{"status": status})
}

func (s *OrderService) History(ctx context.Context, id string) Result[[]orders.HistoryEntry] {
	if id == "" {
		return failMsg[[]orders.HistoryEntry]("order id is required")
	}
	var raw rawList[orders.HistoryEntry]
	if err := s.c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id)+"/history", nil, &raw); err != nil {
		return fail[[]orders.HistoryEntry](err)
	}
	return ok(raw.items)
}

func (s *OrderService) order(ctx context.Context, method, path string, in any) Result[orders.Order] {
	var o struct {
		orders.Order
		Nested *orders.Order `json:"order"`
	}
	if err := s.c.do(ctx, method, path, in, &o); err != nil {
		return fail[orders.Order](err)
	}
	got := o.Order
	if o.Nested != nil {
		got = *o.Nested
	}
	if got.ID == "" {
		return failMsg[orders.Order]("malformed response: order without id")
	}
	normalize(&got)
	return ok(got)
}

// normalize fills what older API versions leave out.
func normalize(o *orders.Order) {
	if o.Status == "" {
		o.Status = orders.StatusPending
	}
	if o.Items == nil {
		o.Items = []orders.Item{}
	}
}
