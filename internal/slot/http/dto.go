package http

import (
	"time"

	"github.com/samber/lo"

	"github.com/nekogravitycat/slot-swap-backend/internal/slot"
	userHttp "github.com/nekogravitycat/slot-swap-backend/internal/user/http"
)

// SlotResponse is the API shape of a slot. Field names follow the event API consumed by the web client.
type SlotResponse struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	StartTime time.Time         `json:"startTime"`
	EndTime   time.Time         `json:"endTime"`
	Status    string            `json:"status"`
	OwnerID   string            `json:"ownerId"`
	Owner     *userHttp.UserTag `json:"owner,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func NewSlotResponse(s *slot.Slot) SlotResponse {
	resp := SlotResponse{
		ID:        s.ID,
		Title:     s.Title,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Status:    string(s.Status),
		OwnerID:   s.OwnerID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if s.Owner != nil {
		tag := userHttp.NewUserTag(*s.Owner)
		resp.Owner = &tag
	}
	return resp
}

func NewSlotListResponse(slots []*slot.Slot) []SlotResponse {
	return lo.Map(slots, func(s *slot.Slot, _ int) SlotResponse {
		return NewSlotResponse(s)
	})
}

type CreateSlotBody struct {
	Title     string    `json:"title" binding:"required"`
	StartTime time.Time `json:"startTime" binding:"required"`
	EndTime   time.Time `json:"endTime" binding:"required"`
	Status    *string   `json:"status" binding:"omitempty,slotstatus"`
}

// Validate performs custom validation for CreateSlotBody.
func (b *CreateSlotBody) Validate() error {
	if !b.EndTime.After(b.StartTime) {
		return slot.ErrInvalidTimeRange
	}
	return nil
}

// UpdateSlotBody uses pointers to distinguish between "field not sent" and "field sent as empty".
type UpdateSlotBody struct {
	Title     *string    `json:"title"`
	StartTime *time.Time `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	Status    *string    `json:"status" binding:"omitempty,slotstatus"`
}

// Validate performs custom validation for UpdateSlotBody.
func (b *UpdateSlotBody) Validate() error {
	if b.StartTime != nil && b.EndTime != nil && !b.EndTime.After(*b.StartTime) {
		return slot.ErrInvalidTimeRange
	}
	return nil
}

func toStatus(s *string) *slot.Status {
	if s == nil {
		return nil
	}
	st := slot.Status(*s)
	return &st
}
