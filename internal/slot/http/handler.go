package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/slot-swap-backend/internal/auth"
	"github.com/nekogravitycat/slot-swap-backend/internal/pkg/request"
	"github.com/nekogravitycat/slot-swap-backend/internal/pkg/response"
	"github.com/nekogravitycat/slot-swap-backend/internal/slot"
)

type Handler struct {
	service slot.Service
}

func NewHandler(service slot.Service) *Handler {
	return &Handler{service: service}
}

// List returns the caller's slots ordered by start time.
func (h *Handler) List(c *gin.Context) {
	slots, err := h.service.ListByOwner(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSlotListResponse(slots))
}

// ListSwappable returns other users' swappable slots with owner info.
func (h *Handler) ListSwappable(c *gin.Context) {
	slots, err := h.service.ListSwappable(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSlotListResponse(slots))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, err)
		return
	}

	s, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if s.OwnerID != auth.GetUserID(c) && s.Status != slot.StatusSwappable {
		response.Error(c, slot.ErrPermissionDenied)
		return
	}
	c.JSON(http.StatusOK, NewSlotResponse(s))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateSlotBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err)
		return
	}
	if err := body.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	s, err := h.service.Create(c.Request.Context(), slot.CreateRequest{
		OwnerID:   auth.GetUserID(c),
		Title:     body.Title,
		StartTime: body.StartTime,
		EndTime:   body.EndTime,
		Status:    toStatus(body.Status),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewSlotResponse(s))
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, err)
		return
	}

	var body UpdateSlotBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err)
		return
	}
	if err := body.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	s, err := h.service.Update(c.Request.Context(), uri.ID, auth.GetUserID(c), slot.UpdateRequest{
		Title:     body.Title,
		StartTime: body.StartTime,
		EndTime:   body.EndTime,
		Status:    toStatus(body.Status),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSlotResponse(s))
}

func (h *Handler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), uri.ID, auth.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
