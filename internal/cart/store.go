package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Persister saves cart snapshots between requests. Load of an unknown key
// returns an empty cart, not an error.
type Persister interface {
	Load(ctx context.Context, key string) ([]Line, error)
	Save(ctx context.Context, key string, lines []Line) error
}

// Snapshot is what listeners see after each applied action.
type Snapshot struct {
	Lines  []Line `json:"lines"`
	Count  int    `json:"count"`
	Totals Totals `json:"totals"`
}

type Listener func(Action, Snapshot)

type Store struct {
	mu        sync.Mutex
	lines     []Line
	key       string
	persist   Persister
	taxRate   decimal.Decimal
	now       func() time.Time
	listeners []Listener
}

type Option func(*Store)

func WithTaxRate(r decimal.Decimal) Option { return func(s *Store) { s.taxRate = r } }

func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithPersister saves every applied action under key.
func WithPersister(p Persister, key string) Option {
	return func(s *Store) { s.persist, s.key = p, key }
}

func New(opts ...Option) *Store {
	s := &Store{lines: []Line{}, taxRate: DefaultTaxRate, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Open builds a store and loads its lines from the configured persister.
func Open(ctx context.Context, opts ...Option) (*Store, error) {
	s := New(opts...)
	if s.persist == nil {
		return s, nil
	}
	lines, err := s.persist.Load(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", s.key, err)
	}
	if lines != nil {
		s.lines = lines
	}
	return s, nil
}

// Dispatch applies a. When persisting fails the store keeps its previous lines.
func (s *Store) Dispatch(ctx context.Context, a Action) error {
	s.mu.Lock()
	next, err := Reduce(s.lines, a, s.now())
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if s.persist != nil {
		if err := s.persist.Save(ctx, s.key, next); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("save cart %s: %w", s.key, err)
		}
	}
	s.lines = next
	snap := s.snapshotLocked()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l(a, snap)
	}
	return nil
}

func (s *Store) AddItem(ctx context.Context, p Product) error {
	return s.Dispatch(ctx, AddItem{Product: p})
}

func (s *Store) SetQuantity(ctx context.Context, id string, n int) error {
	return s.Dispatch(ctx, SetQuantity{ID: id, Quantity: n})
}

func (s *Store) Decrement(ctx context.Context, id string) error {
	return s.Dispatch(ctx, DecrementItem{ID: id})
}

func (s *Store) RemoveItem(ctx context.Context, id string) error {
	return s.Dispatch(ctx, RemoveItem{ID: id})
}

func (s *Store) Clear(ctx context.Context) error {
	return s.Dispatch(ctx, Clear{})
}

func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.lines)
}

// Count is the number of units across all lines.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return count(s.lines)
}

func (s *Store) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ComputeTotals(s.lines, s.taxRate)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Lines:  clone(s.lines),
		Count:  count(s.lines),
		Totals: ComputeTotals(s.lines, s.taxRate),
	}
}

func count(lines []Line) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}
