package httpx

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/ariefcatur/go-food-storefront/internal/apiclient"
	"github.com/ariefcatur/go-food-storefront/internal/checkout"
	"github.com/ariefcatur/go-food-storefront/internal/orders"
	"github.com/ariefcatur/go-food-storefront/internal/session"
)

func (h *Storefront) getCheckout(_ context.Context, s *session.Session, _ *http.Request) (int, any) {
	return http.StatusOK, s.Wizard.State()
}

func (h *Storefront) setShipping(_ context.Context, s *session.Session, r *http.Request) (int, any) {
	var a orders.ShippingAddress
	if err := decode(r, &a); err != nil {
		return badRequest(err)
	}
	return checkoutState(s, s.Wizard.SetShipping(a))
}

func (h *Storefront) setPayment(_ context.Context, s *session.Session, r *http.Request) (int, any) {
	var p orders.PaymentInfo
	if err := decode(r, &p); err != nil {
		return badRequest(err)
	}
	return checkoutState(s, s.Wizard.SetPayment(p))
}

func (h *Storefront) checkoutNext(_ context.Context, s *session.Session, _ *http.Request) (int, any) {
	return checkoutState(s, s.Wizard.Next())
}

func (h *Storefront) checkoutBack(_ context.Context, s *session.Session, r *http.Request) (int, any) {
	var body struct {
		Step string `json:"step"`
	}
	if err := decode(r, &body); err != nil {
		return badRequest(err)
	}
	step, ok := checkout.ParseStep(body.Step)
	if !ok {
		return http.StatusBadRequest, errorBody{Error: "unknown step " + body.Step}
	}
	return checkoutState(s, s.Wizard.Back(step))
}

func (h *Storefront) placeOrder(ctx context.Context, s *session.Session, _ *http.Request) (int, any) {
	o, err := s.Wizard.PlaceOrder(ctx)
	if err == nil {
		return http.StatusCreated, o
	}
	if code := apiclient.StatusCode(err); code != 0 {
		st := s.Wizard.State()
		return code, errorBody{Error: st.SubmitError, Detail: st}
	}
	return checkoutState(s, err)
}

func (h *Storefront) resetCheckout(_ context.Context, s *session.Session, _ *http.Request) (int, any) {
	s.Wizard.Reset()
	return http.StatusOK, s.Wizard.State()
}

// checkoutState answers with the wizard state, or the state as error detail.
func checkoutState(s *session.Session, err error) (int, any) {
	st := s.Wizard.State()
	switch {
	case err == nil:
		return http.StatusOK, st
	case errors.Is(err, checkout.ErrInvalid):
		return http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Detail: st}
	case errors.Is(err, checkout.ErrWrongStep), errors.Is(err, checkout.ErrForwardJump):
		return http.StatusConflict, errorBody{Error: err.Error(), Detail: st}
	default:
		msg := st.SubmitError
		if msg == "" {
			msg = err.Error()
		}
		return http.StatusBadGateway, errorBody{Error: msg, Detail: st}
	}
}
