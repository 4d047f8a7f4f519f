package checkout

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-food-storefront/internal/apiclient"
	"github.com/ariefcatur/go-food-storefront/internal/cart"
	"github.com/ariefcatur/go-food-storefront/internal/orders"
)

type placerFunc func(ctx context.Context, req orders.PlaceOrderRequest) apiclient.Result[orders.Order]

func (f placerFunc) PlaceOrder(ctx context.Context, req orders.PlaceOrderRequest) apiclient.Result[orders.Order] {
	return f(ctx, req)
}

var address = orders.ShippingAddress{
	FullName:   "Ana Lima",
	Phone:      "+15551234567",
	Street:     "1 Main St",
	City:       "Springfield",
	PostalCode: "12345",
}

var card = orders.PaymentInfo{
	Method:         orders.PaymentCard,
	CardholderName: "Ana Lima",
	CardNumber:     "4242424242424242",
	Expiry:         "12/29",
	CVC:            "123",
}

func filledCart(t *testing.T) *cart.Store {
	t.Helper()
	c := cart.New()
	ctx := context.Background()
	require.NoError(t, c.AddItem(ctx, cart.Product{ID: "pizza", Name: "Pizza", Price: decimal.NewFromInt(10)}))
	require.NoError(t, c.AddItem(ctx, cart.Product{ID: "soda", Name: "Soda", Price: decimal.NewFromInt(20)}))
	return c
}

func atPayment(t *testing.T, w *Wizard) {
	t.Helper()
	require.NoError(t, w.SetShipping(address))
	require.NoError(t, w.Next())
	require.NoError(t, w.Next())
	require.Equal(t, StepPayment, w.Step())
}

func TestEmptyRequiredFieldBlocksNext(t *testing.T) {
	w := New(filledCart(t), nil)
	a := address
	a.City = "   "
	require.NoError(t, w.SetShipping(a))

	err := w.Next()
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, StepShipping, w.Step())
	assert.Contains(t, w.State().Errors, "city")
	assert.Len(t, w.State().Errors, 1)

	a.City = "Springfield"
	require.NoError(t, w.SetShipping(a))
	require.NoError(t, w.Next())
	assert.Equal(t, StepReview, w.Step())
	assert.Empty(t, w.State().Errors)
}

func TestReviewRequiresItems(t *testing.T) {
	w := New(cart.New(), nil)
	require.NoError(t, w.SetShipping(address))
	require.NoError(t, w.Next())

	assert.ErrorIs(t, w.Next(), ErrInvalid)
	assert.Equal(t, StepReview, w.Step())
	assert.Contains(t, w.State().Errors, "cart")
}

func TestBackOnlyToEarlierSteps(t *testing.T) {
	w := New(filledCart(t), nil)
	atPayment(t, w)

	assert.ErrorIs(t, w.Back(StepPayment), ErrForwardJump)
	assert.ErrorIs(t, w.Back(StepSubmitted), ErrForwardJump)

	require.NoError(t, w.Back(StepShipping))
	assert.Equal(t, StepShipping, w.Step())
	assert.Equal(t, address, w.State().Shipping, "data survives back navigation")

	assert.ErrorIs(t, w.Back(StepReview), ErrForwardJump)
}

func TestPlaceOrderOnlyFromPayment(t *testing.T) {
	called := false
	w := New(filledCart(t), placerFunc(func(context.Context, orders.PlaceOrderRequest) apiclient.Result[orders.Order] {
		called = true
		return apiclient.Result[orders.Order]{Success: true, Data: orders.Order{ID: "o1"}}
	}))
	_, err := w.PlaceOrder(context.Background())
	assert.ErrorIs(t, err, ErrWrongStep)
	assert.False(t, called)
	assert.ErrorIs(t, w.Next(), ErrInvalid, "shipping is still empty")
}

func TestPlaceOrderSuccessClearsCart(t *testing.T) {
	c := filledCart(t)
	var got orders.PlaceOrderRequest
	var notified orders.Order
	w := New(c, placerFunc(func(_ context.Context, req orders.PlaceOrderRequest) apiclient.Result[orders.Order] {
		got = req
		return apiclient.Result[orders.Order]{Success: true, Data: orders.Order{ID: "o1", Status: orders.StatusPending, Total: req.Total}}
	}), OnPlaced(func(_ context.Context, o orders.Order) { notified = o }))
	atPayment(t, w)
	require.NoError(t, w.SetPayment(card))

	o, err := w.PlaceOrder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "o1", o.ID)
	assert.Equal(t, StepSubmitted, w.Step())
	assert.Empty(t, c.Lines())
	assert.Equal(t, "o1", notified.ID)

	require.Len(t, got.Items, 2)
	assert.Equal(t, address, got.ShippingAddress)
	assert.Equal(t, "30.00", got.Subtotal.StringFixed(2))
	assert.Equal(t, "3.00", got.Tax.StringFixed(2))
	assert.Equal(t, "33.00", got.Total.StringFixed(2))

	st := w.State()
	require.NotNil(t, st.Order)
	assert.Equal(t, "o1", st.Order.ID)

	assert.ErrorIs(t, w.SetShipping(address), ErrWrongStep)
	w.Reset()
	assert.Equal(t, StepShipping, w.Step())
	assert.Nil(t, w.State().Order)
}

func TestPlaceOrderFailureKeepsData(t *testing.T) {
	c := filledCart(t)
	w := New(c, placerFunc(func(context.Context, orders.PlaceOrderRequest) apiclient.Result[orders.Order] {
		return apiclient.Result[orders.Order]{Error: "restaurant closed", Status: http.StatusUnprocessableEntity}
	}))
	atPayment(t, w)
	require.NoError(t, w.SetPayment(card))

	_, err := w.PlaceOrder(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, apiclient.StatusCode(err))

	st := w.State()
	assert.Equal(t, StepPayment, st.Step)
	assert.Equal(t, "restaurant closed", st.SubmitError)
	assert.Equal(t, address, st.Shipping)
	assert.Equal(t, card.Expiry, st.Payment.Expiry)
	assert.Equal(t, card.CardholderName, st.Payment.CardholderName)
	assert.Len(t, c.Lines(), 2)
}

func TestShippingIsLockedAfterItsStep(t *testing.T) {
	var got orders.PlaceOrderRequest
	w := New(filledCart(t), placerFunc(func(_ context.Context, req orders.PlaceOrderRequest) apiclient.Result[orders.Order] {
		got = req
		return apiclient.Result[orders.Order]{Success: true, Data: orders.Order{ID: "o1"}}
	}))
	atPayment(t, w)

	assert.ErrorIs(t, w.SetShipping(orders.ShippingAddress{}), ErrWrongStep)
	assert.Equal(t, address, w.State().Shipping)

	require.NoError(t, w.Back(StepReview))
	assert.ErrorIs(t, w.SetShipping(orders.ShippingAddress{}), ErrWrongStep)

	require.NoError(t, w.Back(StepShipping))
	require.NoError(t, w.SetShipping(orders.ShippingAddress{}))
	assert.ErrorIs(t, w.Next(), ErrInvalid, "an edited address is validated again")
	require.NoError(t, w.SetShipping(address))
	require.NoError(t, w.Next())
	require.NoError(t, w.Next())

	require.NoError(t, w.SetPayment(card))
	_, err := w.PlaceOrder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, address, got.ShippingAddress)
}

func TestCardNumberIsNormalisedAndMasked(t *testing.T) {
	var got orders.PlaceOrderRequest
	w := New(filledCart(t), placerFunc(func(_ context.Context, req orders.PlaceOrderRequest) apiclient.Result[orders.Order] {
		got = req
		return apiclient.Result[orders.Order]{Success: true, Data: orders.Order{ID: "o1"}}
	}))
	atPayment(t, w)

	typed := card
	typed.CardNumber = " 4242 4242-4242 4242 "
	require.NoError(t, w.SetPayment(typed))

	shown := w.State().Payment
	assert.Equal(t, "************4242", shown.CardNumber)
	assert.Empty(t, shown.CVC)

	_, err := w.PlaceOrder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "4242424242424242", got.Payment.CardNumber)
	assert.Equal(t, "123", got.Payment.CVC)
}

func TestPaymentValidation(t *testing.T) {
	placed := false
	w := New(filledCart(t), placerFunc(func(context.Context, orders.PlaceOrderRequest) apiclient.Result[orders.Order] {
		placed = true
		return apiclient.Result[orders.Order]{Success: true, Data: orders.Order{ID: "o"}}
	}))
	atPayment(t, w)

	bad := card
	bad.CardNumber = "4242424242424241"
	bad.Expiry = "2029-12"
	require.NoError(t, w.SetPayment(bad))
	_, err := w.PlaceOrder(context.Background())
	assert.ErrorIs(t, err, ErrInvalid)
	errs := w.State().Errors
	assert.Contains(t, errs, "cardNumber")
	assert.Contains(t, errs, "expiry")
	assert.False(t, placed)

	require.NoError(t, w.SetPayment(orders.PaymentInfo{Method: orders.PaymentCash}))
	_, err = w.PlaceOrder(context.Background())
	require.NoError(t, err)
	assert.True(t, placed)
}

func TestStepNames(t *testing.T) {
	for _, s := range []Step{StepShipping, StepReview, StepPayment, StepSubmitted} {
		got, ok := ParseStep(s.String())
		assert.True(t, ok)
		assert.Equal(t, s, got)
	}
	_, ok := ParseStep("teleport")
	assert.False(t, ok)
}
