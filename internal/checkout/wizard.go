// Package checkout drives the multi-step checkout: shipping, review, payment,
// then order placement against the current cart.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-food-storefront/internal/apiclient"
	"github.com/ariefcatur/go-food-storefront/internal/cart"
	"github.com/ariefcatur/go-food-storefront/internal/logging"
	"github.com/ariefcatur/go-food-storefront/internal/orders"
)

type Step int

const (
	StepShipping Step = iota
	StepReview
	StepPayment
	StepSubmitted
)

var stepNames = map[Step]string{
	StepShipping:  "shipping",
	StepReview:    "review",
	StepPayment:   "payment",
	StepSubmitted: "submitted",
}

func (s Step) String() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return fmt.Sprintf("step(%d)", int(s))
}

func (s Step) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func ParseStep(name string) (Step, bool) {
	for s, n := range stepNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

var (
	ErrWrongStep   = errors.New("checkout: action not allowed on this step")
	ErrForwardJump = errors.New("checkout: can only go back to an earlier step")
	ErrInvalid     = errors.New("checkout: step has invalid fields")
)

// OrderPlacer submits the collected order. apiclient.OrderService satisfies it.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req orders.PlaceOrderRequest) apiclient.Result[orders.Order]
}

// PlacedFunc runs after a confirmed placement, once the cart is cleared.
type PlacedFunc func(ctx context.Context, o orders.Order)

type Wizard struct {
	mu        sync.Mutex
	step      Step
	shipping  orders.ShippingAddress
	payment   orders.PaymentInfo
	errs      FieldErrors
	submitErr string
	confirmed *orders.Order

	cart     *cart.Store
	placer   OrderPlacer
	onPlaced PlacedFunc
	log      logrus.FieldLogger
}

type Option func(*Wizard)

func OnPlaced(f PlacedFunc) Option { return func(w *Wizard) { w.onPlaced = f } }

func WithLogger(log logrus.FieldLogger) Option { return func(w *Wizard) { w.log = log } }

func New(c *cart.Store, placer OrderPlacer, opts ...Option) *Wizard {
	w := &Wizard{cart: c, placer: placer, log: logging.Discard()}
	for _, o := range opts {
		o(w)
	}
	return w
}

// State is a read-only view of the wizard for rendering. Card number and CVC
// never leave the wizard in full.
type State struct {
	Step        Step                   `json:"step"`
	Shipping    orders.ShippingAddress `json:"shipping"`
	Payment     orders.PaymentInfo     `json:"payment"`
	Errors      FieldErrors            `json:"errors,omitempty"`
	SubmitError string                 `json:"submitError,omitempty"`
	Order       *orders.Order          `json:"order,omitempty"`
	Cart        cart.Snapshot          `json:"cart"`
}

func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State{
		Step:        w.step,
		Shipping:    w.shipping,
		Payment:     masked(w.payment),
		Errors:      w.errs.clone(),
		SubmitError: w.submitErr,
		Order:       w.confirmed,
		Cart:        w.cart.Snapshot(),
	}
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// SetShipping records the address. Only the shipping step accepts it, so a
// changed address always passes through Next again.
func (w *Wizard) SetShipping(a orders.ShippingAddress) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepShipping {
		return ErrWrongStep
	}
	w.shipping = a
	return nil
}

// SetPayment records payment details with the card number normalised; the
// stored value is the one validated and sent.
func (w *Wizard) SetPayment(p orders.PaymentInfo) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step == StepSubmitted {
		return ErrWrongStep
	}
	p.CardNumber = normalizeCard(p.CardNumber)
	w.payment = p
	return nil
}

// Next validates the current step and advances. On failure the step stays
// and Errors describes the offending fields.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs FieldErrors
	switch w.step {
	case StepShipping:
		errs = validateShipping(w.shipping)
	case StepReview:
		if w.cart.Count() == 0 {
			errs = FieldErrors{"cart": "your cart is empty"}
		}
	default:
		// Payment leaves only through PlaceOrder.
		return ErrWrongStep
	}
	w.errs = errs
	if len(errs) > 0 {
		return ErrInvalid
	}
	w.step++
	return nil
}

// Back moves to an earlier step, keeping everything entered so far.
func (w *Wizard) Back(to Step) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step == StepSubmitted {
		return ErrWrongStep
	}
	if to < StepShipping || to >= w.step {
		return ErrForwardJump
	}
	w.step = to
	w.errs = nil
	w.submitErr = ""
	return nil
}

// PlaceOrder submits shipping, payment and the cart snapshot. Only valid on
// the payment step; failures keep the wizard there with its data intact.
func (w *Wizard) PlaceOrder(ctx context.Context) (orders.Order, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepPayment {
		return orders.Order{}, ErrWrongStep
	}
	w.submitErr = ""
	if errs := validatePayment(w.payment); len(errs) > 0 {
		w.errs = errs
		return orders.Order{}, ErrInvalid
	}
	w.errs = nil

	snap := w.cart.Snapshot()
	if len(snap.Lines) == 0 {
		w.submitErr = "your cart is empty"
		return orders.Order{}, errors.New(w.submitErr)
	}
	req := orders.PlaceOrderRequest{
		Items:           toItems(snap.Lines),
		ShippingAddress: w.shipping,
		Payment:         w.payment,
		Subtotal:        snap.Totals.Subtotal,
		Tax:             snap.Totals.Tax,
		Total:           snap.Totals.Total,
	}

	res := w.placer.PlaceOrder(ctx, req)
	if !res.Success {
		w.submitErr = res.Error
		if w.submitErr == "" {
			w.submitErr = "could not place order"
		}
		w.log.WithField("error", w.submitErr).Warn("order placement failed")
		return orders.Order{}, res.Err()
	}

	placed := res.Data
	if err := w.cart.Clear(ctx); err != nil {
		// The order exists; a stale cart is the lesser problem.
		w.log.WithField("error", err).WithField("order_id", placed.ID).Error("could not clear cart after order")
	}
	w.confirmed = &placed
	w.step = StepSubmitted
	if w.onPlaced != nil {
		w.onPlaced(ctx, placed)
	}
	return placed, nil
}

// Reset starts a fresh checkout, e.g. after the confirmation was shown.
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.step = StepShipping
	w.payment = orders.PaymentInfo{}
	w.errs = nil
	w.submitErr = ""
	w.confirmed = nil
}

func toItems(lines []cart.Line) []orders.Item {
	items := make([]orders.Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, orders.Item{
			ProductID:       l.ID,
			Name:            l.Name,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			DiscountPercent: l.DiscountPercent,
			Image:           l.Image,
		})
	}
	return items
}
