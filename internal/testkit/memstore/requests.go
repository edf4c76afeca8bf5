package memstore

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/nekogravitycat/slot-swap-backend/internal/swap"
)

// SwapRepository is the in-memory swap.Repository.
type SwapRepository struct {
	s *Store
}

var _ swap.Repository = (*SwapRepository)(nil)

func (r *SwapRepository) Create(ctx context.Context, req *swap.Request) error {
	defer r.s.lock(ctx)()
	if err := r.s.takeFailure(); err != nil {
		return err
	}

	req.ID = uuid.NewString()
	req.CreatedAt = r.s.now()
	req.UpdatedAt = req.CreatedAt
	stored := *req
	stored.OfferedSlot, stored.RequestedSlot = nil, nil
	stored.Requester, stored.Responder = nil, nil
	r.s.requests[req.ID] = stored
	return nil
}

func (r *SwapRepository) GetForUpdate(ctx context.Context, id string) (*swap.Request, error) {
	defer r.s.lock(ctx)()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, swap.ErrNotFound
	}
	return &req, nil
}

func (r *SwapRepository) GetDetailed(ctx context.Context, id string) (*swap.Request, error) {
	defer r.s.lock(ctx)()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, swap.ErrNotFound
	}
	return r.s.detailed(req), nil
}

func (r *SwapRepository) HasPendingBetween(ctx context.Context, slotA, slotB string) (bool, error) {
	defer r.s.lock(ctx)()
	for _, req := range r.s.requests {
		if req.Status != swap.StatusPending {
			continue
		}
		if (req.OfferedSlotID == slotA && req.RequestedSlotID == slotB) ||
			(req.OfferedSlotID == slotB && req.RequestedSlotID == slotA) {
			return true, nil
		}
	}
	return false, nil
}

func (r *SwapRepository) UpdateStatus(ctx context.Context, id string, status swap.Status) error {
	defer r.s.lock(ctx)()
	if err := r.s.takeFailure(); err != nil {
		return err
	}

	req, ok := r.s.requests[id]
	if !ok {
		return swap.ErrNotFound
	}
	req.Status = status
	req.UpdatedAt = r.s.now()
	r.s.requests[id] = req
	return nil
}

func (r *SwapRepository) ListByResponder(ctx context.Context, userID string) ([]*swap.Request, error) {
	defer r.s.lock(ctx)()
	return r.s.filterRequests(func(req swap.Request) bool { return req.ResponderID == userID }), nil
}

func (r *SwapRepository) ListByRequester(ctx context.Context, userID string) ([]*swap.Request, error) {
	defer r.s.lock(ctx)()
	return r.s.filterRequests(func(req swap.Request) bool { return req.RequesterID == userID }), nil
}

func (s *Store) detailed(req swap.Request) *swap.Request {
	if sl, ok := s.slots[req.OfferedSlotID]; ok {
		req.OfferedSlot = &sl
	}
	if sl, ok := s.slots[req.RequestedSlotID]; ok {
		req.RequestedSlot = &sl
	}
	req.Requester = s.summary(req.RequesterID)
	req.Responder = s.summary(req.ResponderID)
	return &req
}

// filterRequests returns matching requests newest first.
func (s *Store) filterRequests(keep func(swap.Request) bool) []*swap.Request {
	out := make([]*swap.Request, 0)
	for _, req := range s.requests {
		if keep(req) {
			out = append(out, s.detailed(req))
		}
	}
	slices.SortFunc(out, func(a, b *swap.Request) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	return out
}
