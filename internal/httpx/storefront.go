package httpx

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-food-storefront/internal/apiclient"
	"github.com/ariefcatur/go-food-storefront/internal/logging"
	"github.com/ariefcatur/go-food-storefront/internal/session"
)

// ViewHeader lets the browser tell which view issued the call, so auth pages
// are not redirected to themselves.
const ViewHeader = "X-View-Path"

// Storefront serves the JSON views backing the web shop.
type Storefront struct {
	Sessions *session.Registry
	Redis    redis.Cmdable // order status cache, may be nil
	Events   *Events       // may be nil
}

func (h *Storefront) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(Sessions)

		r.Post("/login", h.view(h.login))
		r.Post("/register", h.view(h.register))
		r.Post("/auth/google", h.view(h.googleLogin))
		r.Post("/logout", h.view(h.logout))
		r.Get("/me", h.view(h.me))
		r.Put("/profile", h.view(h.updateProfile))
		r.Post("/change-password", h.view(h.changePassword))

		r.Get("/products", h.view(h.listProducts))
		r.Get("/products/{id}", h.view(h.getProduct))
		r.Get("/categories", h.view(h.listCategories))

		r.Get("/cart", h.view(h.getCart))
		r.Post("/cart/items", h.view(h.addToCart))
		r.Put("/cart/items/{id}", h.view(h.setQuantity))
		r.Post("/cart/items/{id}/decrement", h.view(h.decrement))
		r.Delete("/cart/items/{id}", h.view(h.removeFromCart))
		r.Delete("/cart", h.view(h.clearCart))

		r.Get("/checkout", h.view(h.getCheckout))
		r.Put("/checkout/shipping", h.view(h.setShipping))
		r.Put("/checkout/payment", h.view(h.setPayment))
		r.Post("/checkout/next", h.view(h.checkoutNext))
		r.Post("/checkout/back", h.view(h.checkoutBack))
		r.Post("/checkout/place", h.view(h.placeOrder))
		r.Post("/checkout/reset", h.view(h.resetCheckout))

		r.Get("/orders", h.view(h.listOrders))
		r.Get("/orders/{id}", h.view(h.getOrder))
		r.Post("/orders/{id}/cancel", h.view(h.cancelOrder))
		r.Get("/orders/{id}/history", h.view(h.orderHistory))
	})
}

// viewFunc runs with the session locked and returns the JSON response.
type viewFunc func(ctx context.Context, s *session.Session, r *http.Request) (int, any)

func (h *Storefront) view(fn viewFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := h.Sessions.Acquire(r.Context(), SessionID(r.Context()))
		if err != nil {
			logging.From(r.Context()).WithError(err).Error("session unavailable")
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "session unavailable"})
			return
		}
		defer h.Sessions.Release(s)

		path := r.Header.Get(ViewHeader)
		if path == "" {
			path = r.URL.Path
		}
		nav := apiclient.NewViewNavigator(path)
		code, body := fn(apiclient.WithNavigator(r.Context(), nav), s, r)
		if to, redirected := nav.Redirected(); redirected {
			http.Redirect(w, r, to, http.StatusFound)
			return
		}
		writeJSON(w, code, body)
	}
}

type errorBody struct {
	Error  string `json:"error"`
	Detail any    `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	if code == http.StatusNoContent {
		w.WriteHeader(code)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(err, "invalid json")
	}
	return nil
}

func badRequest(err error) (int, any) {
	return http.StatusBadRequest, errorBody{Error: err.Error()}
}

// fromResult maps a backend outcome to a response. Failures without a status
// never reached the backend.
func fromResult[T any](res apiclient.Result[T], okCode int) (int, any) {
	if res.Success {
		return okCode, res.Data
	}
	return failure(res.Status, res.Error)
}

func failure(status int, msg string) (int, any) {
	if status == 0 {
		status = http.StatusBadGateway
	}
	return status, errorBody{Error: msg}
}
