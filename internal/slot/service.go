package slot

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nekogravitycat/slot-swap-backend/internal/db"
)

type CreateRequest struct {
	OwnerID   string
	Title     string
	StartTime time.Time
	EndTime   time.Time
	Status    *Status // Defaults to BUSY
}

// UpdateRequest holds a partial update. Nil fields are left unchanged.
type UpdateRequest struct {
	Title     *string
	StartTime *time.Time
	EndTime   *time.Time
	Status    *Status
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Slot, error)
	GetByID(ctx context.Context, id string) (*Slot, error)
	Update(ctx context.Context, id, requesterID string, req UpdateRequest) (*Slot, error)
	Delete(ctx context.Context, id, requesterID string) error
	ListByOwner(ctx context.Context, ownerID string) ([]*Slot, error)
	ListSwappable(ctx context.Context, excludeOwnerID string) ([]*Slot, error)
}

type service struct {
	repo   Repository
	tx     db.Transactor
	logger *zap.Logger
}

func NewService(repo Repository, tx db.Transactor, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		tx:     tx,
		logger: logger,
	}
}

func validRange(start, end time.Time) bool {
	return end.After(start)
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Slot, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if !validRange(req.StartTime, req.EndTime) {
		return nil, ErrInvalidTimeRange
	}

	status := StatusBusy
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		if *req.Status == StatusSwapPending {
			return nil, ErrStatusReserved
		}
		status = *req.Status
	}

	sl := &Slot{
		Title:     title,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    status,
		OwnerID:   req.OwnerID,
	}
	if err := s.repo.Create(ctx, sl); err != nil {
		return nil, err
	}

	s.logger.Info("slot created",
		zap.String("slot_id", sl.ID),
		zap.String("owner_id", sl.OwnerID),
		zap.String("status", string(sl.Status)),
	)
	return sl, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Slot, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// lockOwned loads the slot under a row lock and checks that requesterID owns it.
func (s *service) lockOwned(ctx context.Context, id, requesterID string) (*Slot, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	locked, err := s.repo.LockForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	sl, ok := locked[id]
	if !ok {
		return nil, ErrNotFound
	}
	if sl.OwnerID != requesterID {
		return nil, ErrPermissionDenied
	}
	return sl, nil
}

func (s *service) Update(ctx context.Context, id, requesterID string, req UpdateRequest) (*Slot, error) {
	var updated *Slot
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		sl, err := s.lockOwned(ctx, id, requesterID)
		if err != nil {
			return err
		}

		if req.Status != nil && *req.Status != sl.Status {
			if !req.Status.Valid() {
				return ErrInvalidStatus
			}
			if *req.Status == StatusSwapPending {
				return ErrStatusReserved
			}
			if sl.Status == StatusSwapPending {
				// Only the negotiator may release a slot that is locked in a pending swap.
				pending, err := s.repo.HasPendingSwap(ctx, sl.ID)
				if err != nil {
					return err
				}
				if pending {
					return ErrSwapPending
				}
			}
			sl.Status = *req.Status
		}

		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			if title == "" {
				return ErrTitleRequired
			}
			sl.Title = title
		}
		if req.StartTime != nil {
			sl.StartTime = *req.StartTime
		}
		if req.EndTime != nil {
			sl.EndTime = *req.EndTime
		}
		if !validRange(sl.StartTime, sl.EndTime) {
			return ErrInvalidTimeRange
		}

		if err := s.repo.Update(ctx, sl); err != nil {
			return err
		}
		updated = sl
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("slot updated",
		zap.String("slot_id", updated.ID),
		zap.String("status", string(updated.Status)),
	)
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id, requesterID string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		sl, err := s.lockOwned(ctx, id, requesterID)
		if err != nil {
			return err
		}
		if sl.Status == StatusSwapPending {
			return ErrDeletePending
		}
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("slot deleted", zap.String("slot_id", id), zap.String("owner_id", requesterID))
	return nil
}

func (s *service) ListByOwner(ctx context.Context, ownerID string) ([]*Slot, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *service) ListSwappable(ctx context.Context, excludeOwnerID string) ([]*Slot, error) {
	return s.repo.ListSwappable(ctx, excludeOwnerID)
}
