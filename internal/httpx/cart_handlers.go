package httpx

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/ariefcatur/go-food-storefront/internal/cart"
	"github.com/ariefcatur/go-food-storefront/internal/logging"
	"github.com/ariefcatur/go-food-storefront/internal/session"
)

func (h *Storefront) getCart(_ context.Context, s *session.Session, _ *http.Request) (int, any) {
	return http.StatusOK, s.Cart.Snapshot()
}

type addItemReq struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// addToCart prices the line from the catalog, never from the browser.
func (h *Storefront) addToCart(ctx context.Context, s *session.Session, r *http.Request) (int, any) {
	var req addItemReq
	if err := decode(r, &req); err != nil {
		return badRequest(err)
	}
	if req.ProductID == "" {
		return http.StatusBadRequest, errorBody{Error: "productId is required"}
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		return cartError(ctx, cart.ErrInvalidQuantity)
	}

	res := s.API.Catalog().Product(ctx, req.ProductID)
	if !res.Success {
		return failure(res.Status, res.Error)
	}
	p := res.Data
	if !p.IsAvailable() {
		return http.StatusConflict, errorBody{Error: p.Name + " is not available"}
	}
	if err := s.Cart.AddItem(ctx, cart.Product{
		ID:              p.ID,
		Name:            p.Name,
		Price:           p.Price,
		DiscountPercent: p.DiscountPercent,
		Image:           p.Image,
	}); err != nil {
		return cartError(ctx, err)
	}
	if req.Quantity > 1 {
		for _, l := range s.Cart.Lines() {
			if l.ID == p.ID {
				if err := s.Cart.SetQuantity(ctx, p.ID, l.Quantity+req.Quantity-1); err != nil {
					return cartError(ctx, err)
				}
				break
			}
		}
	}
	return http.StatusOK, s.Cart.Snapshot()
}

func (h *Storefront) setQuantity(ctx context.Context, s *session.Session, r *http.Request) (int, any) {
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := decode(r, &body); err != nil {
		return badRequest(err)
	}
	if err := s.Cart.SetQuantity(ctx, chi.URLParam(r, "id"), body.Quantity); err != nil {
		return cartError(ctx, err)
	}
	return http.StatusOK, s.Cart.Snapshot()
}

func (h *Storefront) decrement(ctx context.Context, s *session.Session, r *http.Request) (int, any) {
	if err := s.Cart.Decrement(ctx, chi.URLParam(r, "id")); err != nil {
		return cartError(ctx, err)
	}
	return http.StatusOK, s.Cart.Snapshot()
}

func (h *Storefront) removeFromCart(ctx context.Context, s *session.Session, r *http.Request) (int, any) {
	if err := s.Cart.RemoveItem(ctx, chi.URLParam(r, "id")); err != nil {
		return cartError(ctx, err)
	}
	return http.StatusOK, s.Cart.Snapshot()
}

func (h *Storefront) clearCart(ctx context.Context, s *session.Session, _ *http.Request) (int, any) {
	if err := s.Cart.Clear(ctx); err != nil {
		return cartError(ctx, err)
	}
	return http.StatusOK, s.Cart.Snapshot()
}

func cartError(ctx context.Context, err error) (int, any) {
	if errors.Is(err, cart.ErrInvalidQuantity) || errors.Is(err, cart.ErrInvalidProduct) {
		return http.StatusBadRequest, errorBody{Error: err.Error()}
	}
	logging.From(ctx).WithError(err).Error("cart update failed")
	return http.StatusInternalServerError, errorBody{Error: "could not save cart"}
}
