// Package auth owns the bearer credential of a storefront session: where it
// is kept and whether it is still worth sending to the API.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-food-storefront/internal/logging"
)

const DefaultExpiryBuffer = 5 * time.Minute

// Claims is the decoded middle segment of a credential. Nothing here is verified.
type Claims struct {
	UserID UserID `json:"id,omitempty"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// UserID accepts both string and numeric ids; backends disagree.
type UserID string

func (id *UserID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = UserID(n.String())
	return nil
}

type Manager struct {
	store  Store
	buffer time.Duration
	now    func() time.Time
	log    logrus.FieldLogger
	parser *jwt.Parser
}

type Option func(*Manager)

func WithExpiryBuffer(d time.Duration) Option { return func(m *Manager) { m.buffer = d } }

func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

func WithLogger(log logrus.FieldLogger) Option { return func(m *Manager) { m.log = log } }

func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		buffer: DefaultExpiryBuffer,
		now:    time.Now,
		log:    logging.Discard(),
		parser: jwt.NewParser(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Get returns the stored credential. Store failures read as absence.
func (m *Manager) Get(ctx context.Context) (string, bool) {
	tok, err := m.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoToken) {
			m.log.WithField("error", err).Warn("token store read failed")
		}
		return "", false
	}
	return tok, tok != ""
}

// Set persists token, replacing any previous one. Empty tokens are ignored.
func (m *Manager) Set(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.store.Save(ctx, token)
}

func (m *Manager) Remove(ctx context.Context) error {
	return m.store.Delete(ctx)
}

// IsValid reports whether token is well formed and expires strictly after
// now plus the expiry buffer.
func (m *Manager) IsValid(token string) bool {
	_, ok := m.decode(token)
	return ok
}

// Payload returns the decoded claims of a valid token.
func (m *Manager) Payload(token string) (*Claims, bool) {
	return m.decode(token)
}

func (m *Manager) decode(token string) (*Claims, bool) {
	if token == "" {
		return nil, false
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, false
	}
	raw, err := m.parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, false
	}
	var c Claims
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, false
	}
	if c.ExpiresAt == nil {
		return nil, false
	}
	if !c.ExpiresAt.Time.After(m.now().Add(m.buffer)) {
		return nil, false
	}
	return &c, true
}
