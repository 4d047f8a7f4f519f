// Package session keeps the per-browser state of the storefront: credential,
// cart and checkout wizard. Each session is used by one request at a time.
package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/ariefcatur/go-food-storefront/internal/apiclient"
	"github.com/ariefcatur/go-food-storefront/internal/auth"
	"github.com/ariefcatur/go-food-storefront/internal/cart"
	"github.com/ariefcatur/go-food-storefront/internal/checkout"
	"github.com/ariefcatur/go-food-storefront/internal/logging"
	"github.com/ariefcatur/go-food-storefront/internal/orders"
)

type Session struct {
	ID     string
	Tokens *auth.Manager
	API    *apiclient.Client
	Cart   *cart.Store
	Wizard *checkout.Wizard

	mu sync.Mutex // held by the request using the session

	// guarded by Registry.mu
	lastSeen time.Time
	waiters  int
}

// Config is everything needed to build a session's collaborators.
type Config struct {
	APIBaseURL    string
	HTTPClient    *http.Client
	LoginPath     string
	// TokenBuffer nil means auth.DefaultExpiryBuffer; zero is a valid buffer.
	TokenBuffer   *time.Duration
	// TaxRate unset means cart.DefaultTaxRate.
	TaxRate       decimal.NullDecimal
	Redis         redis.Cmdable  // nil keeps credentials in memory
	Carts         cart.Persister // nil keeps carts in memory
	OnOrderPlaced func(ctx context.Context, sessionID string, o orders.Order)
	Log           logrus.FieldLogger
}

// buildTimeout bounds loading a new session's cart.
const buildTimeout = 10 * time.Second

type Registry struct {
	cfg      Config
	mu       sync.Mutex
	sessions map[string]*Session
	builds   singleflight.Group
	now      func() time.Time
}

func NewRegistry(cfg Config) *Registry {
	if cfg.Log == nil {
		cfg.Log = logging.Discard()
	}
	if !cfg.TaxRate.Valid {
		cfg.TaxRate = decimal.NewNullDecimal(cart.DefaultTaxRate)
	}
	if cfg.TokenBuffer == nil {
		d := auth.DefaultExpiryBuffer
		cfg.TokenBuffer = &d
	}
	return &Registry{cfg: cfg, sessions: map[string]*Session{}, now: time.Now}
}

// Acquire returns the session for id, creating it on first use, locked for
// the caller. Release must follow.
func (r *Registry) Acquire(ctx context.Context, id string) (*Session, error) {
	s, err := r.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	r.enter(s)
	return s, nil
}

func (r *Registry) Release(s *Session) {
	r.mu.Lock()
	s.lastSeen = r.now()
	r.mu.Unlock()
	s.mu.Unlock()
}

// lookup finds or builds the session and registers the caller as a waiter,
// which keeps Sweep away until enter.
func (r *Registry) lookup(ctx context.Context, id string) (*Session, error) {
	for {
		r.mu.Lock()
		if s, ok := r.sessions[id]; ok {
			s.waiters++
			r.mu.Unlock()
			return s, nil
		}
		r.mu.Unlock()

		// Building loads the cart from storage, so it runs outside r.mu and
		// concurrent first requests of one session share a single build.
		_, err, _ := r.builds.Do(id, func() (any, error) {
			r.mu.Lock()
			_, ok := r.sessions[id]
			r.mu.Unlock()
			if ok {
				return nil, nil
			}
			bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), buildTimeout)
			defer cancel()
			s, err := r.build(bctx, id)
			if err != nil {
				return nil, err
			}
			r.mu.Lock()
			s.lastSeen = r.now()
			r.sessions[id] = s
			r.mu.Unlock()
			return nil, nil
		})
		if err != nil {
			return nil, err
		}
		// loop to register as waiter; a sweep in between means another build
	}
}

func (r *Registry) enter(s *Session) {
	s.mu.Lock()
	r.mu.Lock()
	s.waiters--
	s.lastSeen = r.now()
	r.mu.Unlock()
}

// Sweep forgets sessions idle longer than maxIdle. Their credential and
// cart stay in redis/postgres and are reloaded on the next visit. Sessions in
// use or awaited by a request are kept.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.waiters > 0 || !s.lastSeen.Before(cutoff) {
			continue
		}
		if !s.mu.TryLock() {
			continue
		}
		delete(r.sessions, id)
		s.mu.Unlock()
		n++
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) build(ctx context.Context, id string) (*Session, error) {
	log := r.cfg.Log.WithField("session", id)

	var store auth.Store = &auth.MemoryStore{}
	if r.cfg.Redis != nil {
		store = auth.NewRedisStore(r.cfg.Redis, id)
	}
	tokens := auth.NewManager(store, auth.WithExpiryBuffer(*r.cfg.TokenBuffer), auth.WithLogger(log))

	opts := []apiclient.Option{apiclient.WithLogger(log)}
	if r.cfg.HTTPClient != nil {
		opts = append(opts, apiclient.WithHTTPClient(r.cfg.HTTPClient))
	}
	if r.cfg.LoginPath != "" {
		opts = append(opts, apiclient.WithLoginPath(r.cfg.LoginPath))
	}
	api := apiclient.New(r.cfg.APIBaseURL, tokens, opts...)

	cartOpts := []cart.Option{cart.WithTaxRate(r.cfg.TaxRate.Decimal)}
	if r.cfg.Carts != nil {
		cartOpts = append(cartOpts, cart.WithPersister(r.cfg.Carts, id))
	}
	c, err := cart.Open(ctx, cartOpts...)
	if err != nil {
		return nil, err
	}

	wizOpts := []checkout.Option{checkout.WithLogger(log)}
	if r.cfg.OnOrderPlaced != nil {
		hook := r.cfg.OnOrderPlaced
		wizOpts = append(wizOpts, checkout.OnPlaced(func(ctx context.Context, o orders.Order) { hook(ctx, id, o) }))
	}

	return &Session{
		ID:     id,
		Tokens: tokens,
		API:    api,
		Cart:   c,
		Wizard: checkout.New(c, api.Orders(), wizOpts...),
	}, nil
}
