package swap

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nekogravitycat/slot-swap-backend/internal/db"
	"github.com/nekogravitycat/slot-swap-backend/internal/slot"
)

// Service negotiates swaps between two users' slots.
// CreateRequest and Respond each run as a single unit of work with the involved rows
// locked, so concurrent callers cannot couple a slot twice or resolve a request twice.
type Service interface {
	CreateRequest(ctx context.Context, requesterID, offeredSlotID, requestedSlotID string) (*Request, error)
	Respond(ctx context.Context, responderID, requestID string, accept bool) (*Request, error)
	ListRequests(ctx context.Context, userID string) (*Requests, error)
	GetByID(ctx context.Context, userID, requestID string) (*Request, error)
}

type service struct {
	repo   Repository
	slots  slot.Repository
	tx     db.Transactor
	logger *zap.Logger
}

func NewService(repo Repository, slots slot.Repository, tx db.Transactor, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		slots:  slots,
		tx:     tx,
		logger: logger,
	}
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *service) CreateRequest(ctx context.Context, requesterID, offeredSlotID, requestedSlotID string) (*Request, error) {
	if offeredSlotID == requestedSlotID {
		return nil, ErrSameSlot
	}
	if !isUUID(offeredSlotID) {
		return nil, ErrOfferedSlotNotFound
	}
	if !isUUID(requestedSlotID) {
		return nil, ErrRequestedSlotNotFound
	}

	var created *Request
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		locked, err := s.slots.LockForUpdate(ctx, offeredSlotID, requestedSlotID)
		if err != nil {
			return err
		}

		mine, ok := locked[offeredSlotID]
		if !ok {
			return ErrOfferedSlotNotFound
		}
		theirs, ok := locked[requestedSlotID]
		if !ok {
			return ErrRequestedSlotNotFound
		}

		if mine.OwnerID != requesterID {
			return ErrNotSlotOwner
		}
		if theirs.OwnerID == requesterID {
			return ErrOwnSlot
		}
		if mine.Status != slot.StatusSwappable {
			return ErrOfferedNotSwappable
		}
		if theirs.Status != slot.StatusSwappable {
			return ErrRequestedNotSwappable
		}

		pending, err := s.repo.HasPendingBetween(ctx, offeredSlotID, requestedSlotID)
		if err != nil {
			return err
		}
		if pending {
			return ErrAlreadyPending
		}

		req := &Request{
			OfferedSlotID:   offeredSlotID,
			RequestedSlotID: requestedSlotID,
			RequesterID:     requesterID,
			ResponderID:     theirs.OwnerID,
			Status:          StatusPending,
		}
		if err := s.repo.Create(ctx, req); err != nil {
			return err
		}

		if err := s.slots.SetStatus(ctx, offeredSlotID, slot.StatusSwapPending); err != nil {
			return err
		}
		if err := s.slots.SetStatus(ctx, requestedSlotID, slot.StatusSwapPending); err != nil {
			return err
		}

		created, err = s.repo.GetDetailed(ctx, req.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("swap request created",
		zap.String("request_id", created.ID),
		zap.String("requester_id", created.RequesterID),
		zap.String("responder_id", created.ResponderID),
		zap.String("offered_slot_id", created.OfferedSlotID),
		zap.String("requested_slot_id", created.RequestedSlotID),
	)
	return created, nil
}

func (s *service) Respond(ctx context.Context, responderID, requestID string, accept bool) (*Request, error) {
	if !isUUID(requestID) {
		return nil, ErrNotFound
	}

	var resolved *Request
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		req, err := s.repo.GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.ResponderID != responderID {
			return ErrNotResponder
		}
		if req.Status.Terminal() {
			return ErrNotPending
		}

		if _, err := s.slots.LockForUpdate(ctx, req.OfferedSlotID, req.RequestedSlotID); err != nil {
			return err
		}

		next := StatusRejected
		if accept {
			// Ownership moves on both slots in the same unit of work.
			if err := s.slots.TransferOwnership(ctx, req.OfferedSlotID, req.ResponderID, slot.StatusBusy); err != nil {
				return err
			}
			if err := s.slots.TransferOwnership(ctx, req.RequestedSlotID, req.RequesterID, slot.StatusBusy); err != nil {
				return err
			}
			next = StatusAccepted
		} else {
			if err := s.slots.SetStatus(ctx, req.OfferedSlotID, slot.StatusSwappable); err != nil {
				return err
			}
			if err := s.slots.SetStatus(ctx, req.RequestedSlotID, slot.StatusSwappable); err != nil {
				return err
			}
		}

		if err := s.repo.UpdateStatus(ctx, req.ID, next); err != nil {
			return err
		}

		resolved, err = s.repo.GetDetailed(ctx, req.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	msg := "swap request rejected"
	if accept {
		msg = "swap request accepted"
	}
	s.logger.Info(msg,
		zap.String("request_id", resolved.ID),
		zap.String("requester_id", resolved.RequesterID),
		zap.String("responder_id", resolved.ResponderID),
	)
	return resolved, nil
}

func (s *service) ListRequests(ctx context.Context, userID string) (*Requests, error) {
	var result Requests

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		incoming, err := s.repo.ListByResponder(gctx, userID)
		result.Incoming = incoming
		return err
	})
	g.Go(func() error {
		outgoing, err := s.repo.ListByRequester(gctx, userID)
		result.Outgoing = outgoing
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) GetByID(ctx context.Context, userID, requestID string) (*Request, error) {
	if !isUUID(requestID) {
		return nil, ErrNotFound
	}
	req, err := s.repo.GetDetailed(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.Involves(userID) {
		return nil, ErrNotParticipant
	}
	return req, nil
}
