package http

import (
	"time"

	"github.com/samber/lo"

	slotHttp "github.com/nekogravitycat/slot-swap-backend/internal/slot/http"
	"github.com/nekogravitycat/slot-swap-backend/internal/swap"
	userHttp "github.com/nekogravitycat/slot-swap-backend/internal/user/http"
)

type CreateSwapRequestBody struct {
	MySlotID    string `json:"mySlotId" binding:"required,uuid"`
	TheirSlotID string `json:"theirSlotId" binding:"required,uuid"`
}

// SwapResponseBody uses a pointer so that an explicit false is distinguishable from a missing field.
type SwapResponseBody struct {
	Accept *bool `json:"accept" binding:"required"`
}

type SwapRequestResponse struct {
	ID          string                 `json:"id"`
	MySlotID    string                 `json:"mySlotId,omitempty"`
	TheirSlotID string                 `json:"theirSlotId,omitempty"`
	FromUserID  string                 `json:"fromUserId"`
	ToUserID    string                 `json:"toUserId"`
	Status      string                 `json:"status"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
	MySlot      *slotHttp.SlotResponse `json:"mySlot,omitempty"`
	TheirSlot   *slotHttp.SlotResponse `json:"theirSlot,omitempty"`
	FromUser    *userHttp.UserTag      `json:"fromUser,omitempty"`
	ToUser      *userHttp.UserTag      `json:"toUser,omitempty"`
}

type RequestsResponse struct {
	Incoming []SwapRequestResponse `json:"incoming"`
	Outgoing []SwapRequestResponse `json:"outgoing"`
}

func NewSwapRequestResponse(r *swap.Request) SwapRequestResponse {
	resp := SwapRequestResponse{
		ID:          r.ID,
		MySlotID:    r.OfferedSlotID,
		TheirSlotID: r.RequestedSlotID,
		FromUserID:  r.RequesterID,
		ToUserID:    r.ResponderID,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.OfferedSlot != nil {
		s := slotHttp.NewSlotResponse(r.OfferedSlot)
		resp.MySlot = &s
	}
	if r.RequestedSlot != nil {
		s := slotHttp.NewSlotResponse(r.RequestedSlot)
		resp.TheirSlot = &s
	}
	if r.Requester != nil {
		u := userHttp.NewUserTag(*r.Requester)
		resp.FromUser = &u
	}
	if r.Responder != nil {
		u := userHttp.NewUserTag(*r.Responder)
		resp.ToUser = &u
	}
	return resp
}

func NewRequestsResponse(r *swap.Requests) RequestsResponse {
	convert := func(req *swap.Request, _ int) SwapRequestResponse {
		return NewSwapRequestResponse(req)
	}
	return RequestsResponse{
		Incoming: lo.Map(r.Incoming, convert),
		Outgoing: lo.Map(r.Outgoing, convert),
	}
}
