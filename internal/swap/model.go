package swap

import (
	"time"

	"github.com/nekogravitycat/slot-swap-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/slot-swap-backend/internal/slot"
	"github.com/nekogravitycat/slot-swap-backend/internal/user"
)

var (
	ErrNotFound              = apperror.NotFound("swap request not found")
	ErrSameSlot              = apperror.Validation("cannot swap slot with itself")
	ErrOfferedSlotNotFound   = apperror.NotFound("my slot not found")
	ErrRequestedSlotNotFound = apperror.NotFound("their slot not found")
	ErrNotSlotOwner          = apperror.Forbidden("not authorized to use this slot")
	ErrOwnSlot               = apperror.Validation("cannot request swap for your own slot")
	ErrOfferedNotSwappable   = apperror.Validation("my slot must be SWAPPABLE")
	ErrRequestedNotSwappable = apperror.Validation("their slot must be SWAPPABLE")
	ErrAlreadyPending        = apperror.Conflict("a pending swap request already exists for these slots")
	ErrNotResponder          = apperror.Forbidden("not authorized to respond to this request")
	ErrNotPending            = apperror.Conflict("swap request is no longer pending")
	ErrNotParticipant        = apperror.Forbidden("not authorized to view this request")
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Request is a proposal from the requester to trade the offered slot for the
// responder's requested slot.
type Request struct {
	ID              string
	OfferedSlotID   string // Empty once the slot has been deleted
	RequestedSlotID string // Empty once the slot has been deleted
	RequesterID     string
	ResponderID     string
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Relations, populated by detailed reads. A deleted slot stays nil.
	OfferedSlot   *slot.Slot
	RequestedSlot *slot.Slot
	Requester     *user.Summary
	Responder     *user.Summary
}

// Involves reports whether userID is the requester or the responder.
func (r *Request) Involves(userID string) bool {
	return r.RequesterID == userID || r.ResponderID == userID
}

// Requests groups a user's swap requests by direction, newest first.
type Requests struct {
	Incoming []*Request
	Outgoing []*Request
}
