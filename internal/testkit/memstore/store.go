// Package memstore is an in-memory implementation of the user, slot and swap storage
// plus a Transactor, for service tests that need no database.
package memstore

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/nekogravitycat/slot-swap-backend/internal/slot"
	"github.com/nekogravitycat/slot-swap-backend/internal/swap"
	"github.com/nekogravitycat/slot-swap-backend/internal/user"
)

type txKey struct{}

// Store holds all rows behind one mutex. A unit of work holds the mutex from begin
// to end, which serializes units of work the way row locks do in Postgres.
type Store struct {
	mu       sync.Mutex
	users    map[string]user.User
	slots    map[string]slot.Slot
	requests map[string]swap.Request
	clock    time.Time

	failAt  int
	failErr error
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		users:    make(map[string]user.User),
		slots:    make(map[string]slot.Slot),
		requests: make(map[string]swap.Request),
		clock:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Slots returns the slot.Repository view of the store.
func (s *Store) Slots() *SlotRepository {
	return &SlotRepository{s: s}
}

// Requests returns the swap.Repository view of the store.
func (s *Store) Requests() *SwapRepository {
	return &SwapRepository{s: s}
}

// Users returns the user.Repository view of the store.
func (s *Store) Users() *UserRepository {
	return &UserRepository{s: s}
}

// AddUser registers an active user so listings can attach its summary.
func (s *Store) AddUser(u user.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := u.Name
	s.users[u.ID] = user.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: &name,
		CreatedAt:   s.now(),
		IsActive:    true,
	}
}

// WithinTx runs fn with the store locked. All changes made by fn are discarded
// when it returns an error.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	slots := maps.Clone(s.slots)
	requests := maps.Clone(s.requests)

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.slots = slots
		s.requests = requests
		return err
	}
	return nil
}

// Slot returns a copy of the stored slot.
func (s *Store) Slot(id string) (slot.Slot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[id]
	return sl, ok
}

// Request returns a copy of the stored request.
func (s *Store) Request(id string) (swap.Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	return r, ok
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// lock takes the store mutex unless ctx already runs inside a unit of work.
func (s *Store) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// now returns a strictly increasing timestamp so ordering by time is deterministic.
func (s *Store) now() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

// FailWrite makes the n-th write from now (1-based) return err.
func (s *Store) FailWrite(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAt = n
	s.failErr = err
}

func (s *Store) takeFailure() error {
	if s.failErr == nil {
		return nil
	}
	s.failAt--
	if s.failAt > 0 {
		return nil
	}
	err := s.failErr
	s.failErr = nil
	return err
}

func (s *Store) summary(id string) *user.Summary {
	if u, ok := s.users[id]; ok {
		sum := u.Summary()
		return &sum
	}
	return &user.Summary{ID: id}
}
