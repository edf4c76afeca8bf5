package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nekogravitycat/slot-swap-backend/internal/user"
)

// UserRepository is the in-memory user.Repository.
type UserRepository struct {
	s *Store
}

var _ user.Repository = (*UserRepository)(nil)

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	defer r.s.lock(ctx)()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	defer r.s.lock(ctx)()
	u, ok := r.s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	defer r.s.lock(ctx)()
	if err := r.s.takeFailure(); err != nil {
		return err
	}
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return user.ErrEmailAlreadyUsed
		}
	}

	u.ID = uuid.NewString()
	u.CreatedAt = r.s.now()
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, t time.Time) error {
	defer r.s.lock(ctx)()
	u, ok := r.s.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.LastLoginAt = &t
	r.s.users[id] = u
	return nil
}

// SetActive toggles the active flag of a stored user.
func (s *Store) SetActive(id string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.IsActive = active
		s.users[id] = u
	}
}
