package slot

import (
	"time"

	"github.com/nekogravitycat/slot-swap-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/slot-swap-backend/internal/user"
)

var (
	ErrNotFound         = apperror.NotFound("slot not found")
	ErrTitleRequired    = apperror.Validation("title is required")
	ErrInvalidTimeRange = apperror.Validation("endTime must be after startTime")
	ErrInvalidStatus    = apperror.Validation("invalid slot status")
	ErrStatusReserved   = apperror.Validation("status SWAP_PENDING can only be set by a swap request")
	ErrPermissionDenied = apperror.Forbidden("not authorized to modify this slot")
	ErrSwapPending      = apperror.Conflict("cannot change status while swap request is pending")
	ErrDeletePending    = apperror.Conflict("cannot delete a slot with a pending swap request")
)

type Status string

const (
	StatusBusy        Status = "BUSY"
	StatusSwappable   Status = "SWAPPABLE"
	StatusSwapPending Status = "SWAP_PENDING"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusBusy, StatusSwappable, StatusSwapPending:
		return true
	}
	return false
}

// Slot is a calendar time block owned by a user. It is the unit being swapped.
type Slot struct {
	ID        string
	Title     string
	StartTime time.Time
	EndTime   time.Time
	Status    Status
	OwnerID   string
	Owner     *user.Summary // Populated by listings that join the owner
	CreatedAt time.Time
	UpdatedAt time.Time
}
