package memstore

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/nekogravitycat/slot-swap-backend/internal/slot"
	"github.com/nekogravitycat/slot-swap-backend/internal/swap"
)

// SlotRepository is the in-memory slot.Repository.
type SlotRepository struct {
	s *Store
}

var _ slot.Repository = (*SlotRepository)(nil)

func (r *SlotRepository) Create(ctx context.Context, sl *slot.Slot) error {
	defer r.s.lock(ctx)()
	if err := r.s.takeFailure(); err != nil {
		return err
	}

	sl.ID = uuid.NewString()
	sl.CreatedAt = r.s.now()
	sl.UpdatedAt = sl.CreatedAt
	r.s.slots[sl.ID] = *sl
	return nil
}

func (r *SlotRepository) GetByID(ctx context.Context, id string) (*slot.Slot, error) {
	defer r.s.lock(ctx)()
	sl, ok := r.s.slots[id]
	if !ok {
		return nil, slot.ErrNotFound
	}
	return &sl, nil
}

func (r *SlotRepository) Update(ctx context.Context, sl *slot.Slot) error {
	defer r.s.lock(ctx)()
	if err := r.s.takeFailure(); err != nil {
		return err
	}

	stored, ok := r.s.slots[sl.ID]
	if !ok {
		return slot.ErrNotFound
	}
	stored.Title = sl.Title
	stored.StartTime = sl.StartTime
	stored.EndTime = sl.EndTime
	stored.Status = sl.Status
	stored.UpdatedAt = r.s.now()
	r.s.slots[sl.ID] = stored
	sl.UpdatedAt = stored.UpdatedAt
	return nil
}

// Delete removes the slot. Requests that referenced it keep an empty slot id.
func (r *SlotRepository) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	if err := r.s.takeFailure(); err != nil {
		return err
	}

	if _, ok := r.s.slots[id]; !ok {
		return slot.ErrNotFound
	}
	delete(r.s.slots, id)
	for rid, req := range r.s.requests {
		if req.OfferedSlotID == id {
			req.OfferedSlotID = ""
		}
		if req.RequestedSlotID == id {
			req.RequestedSlotID = ""
		}
		r.s.requests[rid] = req
	}
	return nil
}

func (r *SlotRepository) ListByOwner(ctx context.Context, ownerID string) ([]*slot.Slot, error) {
	defer r.s.lock(ctx)()
	return r.s.filterSlots(func(sl slot.Slot) bool { return sl.OwnerID == ownerID }, false), nil
}

func (r *SlotRepository) ListSwappable(ctx context.Context, excludeOwnerID string) ([]*slot.Slot, error) {
	defer r.s.lock(ctx)()
	return r.s.filterSlots(func(sl slot.Slot) bool {
		return sl.Status == slot.StatusSwappable && sl.OwnerID != excludeOwnerID
	}, true), nil
}

func (r *SlotRepository) HasPendingSwap(ctx context.Context, slotID string) (bool, error) {
	defer r.s.lock(ctx)()
	for _, req := range r.s.requests {
		if req.Status == swap.StatusPending && (req.OfferedSlotID == slotID || req.RequestedSlotID == slotID) {
			return true, nil
		}
	}
	return false, nil
}

func (r *SlotRepository) LockForUpdate(ctx context.Context, ids ...string) (map[string]*slot.Slot, error) {
	defer r.s.lock(ctx)()
	locked := make(map[string]*slot.Slot, len(ids))
	for _, id := range ids {
		if sl, ok := r.s.slots[id]; ok {
			locked[id] = &sl
		}
	}
	return locked, nil
}

func (r *SlotRepository) SetStatus(ctx context.Context, id string, status slot.Status) error {
	defer r.s.lock(ctx)()
	if err := r.s.takeFailure(); err != nil {
		return err
	}

	sl, ok := r.s.slots[id]
	if !ok {
		return slot.ErrNotFound
	}
	sl.Status = status
	sl.UpdatedAt = r.s.now()
	r.s.slots[id] = sl
	return nil
}

func (r *SlotRepository) TransferOwnership(ctx context.Context, id, newOwnerID string, status slot.Status) error {
	defer r.s.lock(ctx)()
	if err := r.s.takeFailure(); err != nil {
		return err
	}

	sl, ok := r.s.slots[id]
	if !ok {
		return slot.ErrNotFound
	}
	sl.OwnerID = newOwnerID
	sl.Status = status
	sl.UpdatedAt = r.s.now()
	r.s.slots[id] = sl
	return nil
}

// filterSlots returns matching slots ordered by start time, then id.
func (s *Store) filterSlots(keep func(slot.Slot) bool, withOwner bool) []*slot.Slot {
	out := make([]*slot.Slot, 0)
	for _, sl := range s.slots {
		if !keep(sl) {
			continue
		}
		if withOwner {
			sl.Owner = s.summary(sl.OwnerID)
		}
		out = append(out, &sl)
	}
	slices.SortFunc(out, func(a, b *slot.Slot) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}
