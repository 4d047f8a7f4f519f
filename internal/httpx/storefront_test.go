package httpx

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-food-storefront/internal/cart"
	kafkax "github.com/ariefcatur/go-food-storefront/internal/kafka"
	"github.com/ariefcatur/go-food-storefront/internal/logging"
	"github.com/ariefcatur/go-food-storefront/internal/orders"
	"github.com/ariefcatur/go-food-storefront/internal/session"
)

type recorder struct {
	mu   sync.Mutex
	msgs []kafkago.Message
}

func (r *recorder) Publish(key, value []byte, headers ...kafkago.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, kafkago.Message{Key: key, Value: value, Headers: headers})
}

func (r *recorder) all() []kafkago.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]kafkago.Message(nil), r.msgs...)
}

func validJWT() string {
	enc := func(v any) string {
		b, _ := json.Marshal(v)
		return base64.RawURLEncoding.EncodeToString(b)
	}
	return enc(map[string]string{"alg": "HS256"}) + "." +
		enc(map[string]any{"id": 1, "email": "ana@example.com", "exp": time.Now().Add(time.Hour).Unix()}) + ".sig"
}

// fakeAPI is a small stand-in for the food delivery REST API.
func fakeAPI(t *testing.T, token string) *httptest.Server {
	authed := func(r *http.Request) bool { return r.Header.Get("Authorization") == "Bearer "+token }
	reply := func(w http.ResponseWriter, code int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(v)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/auth/login":
			reply(w, http.StatusOK, map[string]any{"token": token, "user": map[string]any{"id": 1, "email": "ana@example.com", "name": "Ana"}})
		case r.URL.Path == "/auth/me":
			if !authed(r) {
				reply(w, http.StatusUnauthorized, map[string]string{"message": "not logged in"})
				return
			}
			reply(w, http.StatusOK, map[string]any{"user": map[string]any{"id": 1, "email": "ana@example.com"}})
		case r.URL.Path == "/products/p1":
			reply(w, http.StatusOK, map[string]any{"id": "p1", "name": "Pizza", "price": 10})
		case r.URL.Path == "/products/p2":
			reply(w, http.StatusOK, map[string]any{"data": map[string]any{"id": "p2", "name": "Pasta", "price": "20.00"}})
		case r.URL.Path == "/products/gone":
			reply(w, http.StatusOK, map[string]any{"id": "gone", "name": "Soup", "price": 4, "available": false})
		case !authed(r):
			reply(w, http.StatusUnauthorized, map[string]string{"message": "jwt expired"})
		case r.Method == http.MethodPost && r.URL.Path == "/orders":
			var req orders.PlaceOrderRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			reply(w, http.StatusCreated, map[string]any{"order": map[string]any{"id": "o1", "status": "pending", "total": req.Total, "items": req.Items}})
		case r.Method == http.MethodGet && r.URL.Path == "/orders/o2":
			reply(w, http.StatusOK, map[string]any{"id": "o2", "status": "processing"})
		case r.Method == http.MethodPut && r.URL.Path == "/orders/o2/cancel":
			reply(w, http.StatusOK, map[string]any{"id": "o2", "status": "cancelled", "total": "12.50"})
		default:
			reply(w, http.StatusNotFound, map[string]string{"message": "not found"})
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

type env struct {
	t         *testing.T
	srv       *httptest.Server
	client    *http.Client
	mr        *miniredis.Miniredis
	rdb       *redis.Client
	placed    *recorder
	cancelled *recorder
}

func newEnv(t *testing.T) *env {
	t.Helper()
	api := fakeAPI(t, validJWT())
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	e := &env{t: t, mr: mr, rdb: rdb, placed: &recorder{}, cancelled: &recorder{}}
	events := &Events{Placed: e.placed, Cancelled: e.cancelled, Service: "storefront"}
	reg := session.NewRegistry(session.Config{
		APIBaseURL:    api.URL,
		Redis:         rdb,
		OnOrderPlaced: events.OrderPlaced,
	})
	r := NewRouter(logging.Discard())
	(&Storefront{Sessions: reg, Redis: rdb, Events: events}).Register(r)
	e.srv = httptest.NewServer(r)
	t.Cleanup(e.srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	e.client = &http.Client{
		Jar:           jar,
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
	return e
}

func (e *env) do(method, path string, body any, headers ...string) (*http.Response, []byte) {
	e.t.Helper()
	var rd *bytes.Reader
	if body == nil {
		rd = bytes.NewReader(nil)
	} else {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(e.t, err)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := e.client.Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(e.t, err)
	return resp, buf.Bytes()
}

func (e *env) login() {
	e.t.Helper()
	resp, body := e.do(http.MethodPost, "/login", map[string]string{"email": "ana@example.com", "password": "pw"}, ViewHeader, "/login")
	require.Equal(e.t, http.StatusOK, resp.StatusCode, string(body))
}

func TestSessionCookieIsIssuedOnce(t *testing.T) {
	e := newEnv(t)
	resp, _ := e.do(http.MethodGet, "/cart", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, resp.Cookies(), 1)
	assert.Equal(t, SessionCookie, resp.Cookies()[0].Name)

	resp, _ = e.do(http.MethodGet, "/cart", nil)
	assert.Empty(t, resp.Cookies(), "known session keeps its cookie")
}

func TestLoginKeepsCredentialServerSide(t *testing.T) {
	e := newEnv(t)
	e.login()

	keys := e.mr.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "session:"))

	resp, body := e.do(http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.NotContains(t, string(body), "token")
	assert.Contains(t, string(body), "ana@example.com")
}

func TestUnauthorizedRedirectsUnlessOnAuthView(t *testing.T) {
	e := newEnv(t)

	resp, _ := e.do(http.MethodGet, "/orders", nil, ViewHeader, "/orders")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp, body := e.do(http.MethodGet, "/me", nil, ViewHeader, "/login")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "not logged in")
}

func TestCartIsPricedFromCatalog(t *testing.T) {
	e := newEnv(t)

	resp, body := e.do(http.MethodPost, "/cart/items", map[string]any{"productId": "p1"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	resp, body = e.do(http.MethodPost, "/cart/items", map[string]any{"productId": "p2", "quantity": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var snap cart.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, 3, snap.Count)
	assert.Equal(t, "50.00", snap.Totals.Subtotal.StringFixed(2))
	assert.Equal(t, "5.00", snap.Totals.Tax.StringFixed(2))
	assert.Equal(t, "55.00", snap.Totals.Total.StringFixed(2))

	resp, _ = e.do(http.MethodPost, "/cart/items", map[string]any{"productId": "gone"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = e.do(http.MethodPut, "/cart/items/p2", map[string]any{"quantity": 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = e.do(http.MethodPost, "/cart/items/p1/decrement", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Len(t, snap.Lines, 1)

	resp, body = e.do(http.MethodDelete, "/cart", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Zero(t, snap.Count)
}

func TestCheckoutPlacesOrderAndPublishes(t *testing.T) {
	e := newEnv(t)
	e.login()
	e.do(http.MethodPost, "/cart/items", map[string]any{"productId": "p1"})
	e.do(http.MethodPost, "/cart/items", map[string]any{"productId": "p2"})

	resp, body := e.do(http.MethodPost, "/checkout/next", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, "empty shipping form")
	assert.Contains(t, string(body), "fullName")

	resp, _ = e.do(http.MethodPut, "/checkout/shipping", orders.ShippingAddress{
		FullName: "Ana Lima", Phone: "5551234567", Street: "1 Main St", City: "Springfield", PostalCode: "12345",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for i := 0; i < 2; i++ {
		resp, body = e.do(http.MethodPost, "/checkout/next", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	}
	assert.Contains(t, string(body), `"step":"payment"`)

	resp, _ = e.do(http.MethodPut, "/checkout/shipping", orders.ShippingAddress{})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "shipping is locked once validated")

	resp, _ = e.do(http.MethodPost, "/checkout/back", map[string]string{"step": "submitted"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = e.do(http.MethodPut, "/checkout/payment", orders.PaymentInfo{Method: orders.PaymentCash})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = e.do(http.MethodPost, "/checkout/place", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var o orders.Order
	require.NoError(t, json.Unmarshal(body, &o))
	assert.Equal(t, "o1", o.ID)
	assert.Equal(t, "33.00", o.Total.StringFixed(2))

	_, body = e.do(http.MethodGet, "/cart", nil)
	assert.Contains(t, string(body), `"count":0`)

	msgs := e.placed.all()
	require.Len(t, msgs, 1)
	assert.Equal(t, "o1", string(msgs[0].Key))
	assert.Equal(t, orders.EventOrderPlaced, kafkax.Header(msgs[0], kafkax.HeaderEventType))
	var env orders.Envelope
	require.NoError(t, json.Unmarshal(msgs[0].Value, &env))
	p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
	require.NoError(t, err)
	assert.Equal(t, "o1", p.Order.ID)
	assert.NotEmpty(t, p.SessionID)

	resp, body = e.do(http.MethodPost, "/checkout/reset", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"step":"shipping"`)
}

func (e *env) cacheStatus(o orders.Order) {
	e.t.Helper()
	b, err := json.Marshal(o)
	require.NoError(e.t, err)
	require.NoError(e.t, e.rdb.Set(context.Background(), "order_status:"+o.ID, b, time.Minute).Err())
}

func TestCachedOrderIsNotServedToAnonymousSession(t *testing.T) {
	e := newEnv(t)
	e.cacheStatus(orders.Order{
		ID:              "o7",
		Status:          orders.StatusShipped,
		ShippingAddress: &orders.ShippingAddress{FullName: "Ana Lima", Street: "1 Secret Rd"},
	})

	resp, body := e.do(http.MethodGet, "/orders/o7", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.NotContains(t, string(body), "Secret")

	resp, body = e.do(http.MethodPost, "/orders/o7/cancel", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.NotContains(t, string(body), "Secret")
	assert.Empty(t, e.cancelled.all())

	// a logged in user still only sees orders the API gives them
	e.login()
	resp, body = e.do(http.MethodGet, "/orders/o7", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotContains(t, string(body), "Secret")
}

func TestOrderTrackingOverlaysFresherCachedStatus(t *testing.T) {
	e := newEnv(t)
	e.login()

	// the tracker saw the order ship before the API did
	e.cacheStatus(orders.Order{ID: "o2", Status: orders.StatusShipped})
	resp, body := e.do(http.MethodGet, "/orders/o2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"status":"shipped"`)

	resp, _ = e.do(http.MethodPost, "/orders/o2/cancel", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Empty(t, e.cancelled.all())

	// a stale cache entry never rolls the API status back
	e.cacheStatus(orders.Order{ID: "o2", Status: orders.StatusPending})
	resp, body = e.do(http.MethodGet, "/orders/o2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"status":"processing"`)
	cached, err := e.mr.Get("order_status:o2")
	require.NoError(t, err)
	assert.Contains(t, cached, `"status":"processing"`)

	resp, body = e.do(http.MethodPost, "/orders/o2/cancel", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"status":"cancelled"`)
	require.Len(t, e.cancelled.all(), 1)
	assert.Equal(t, orders.EventOrderCancelled, kafkax.Header(e.cancelled.all()[0], kafkax.HeaderEventType))
	cached, err = e.mr.Get("order_status:o2")
	require.NoError(t, err)
	assert.Contains(t, cached, `"status":"cancelled"`)
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	resp, body := e.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}
