package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/slot-swap-backend/internal/auth"
	"github.com/nekogravitycat/slot-swap-backend/internal/pkg/request"
	"github.com/nekogravitycat/slot-swap-backend/internal/pkg/response"
	"github.com/nekogravitycat/slot-swap-backend/internal/swap"
)

type Handler struct {
	service swap.Service
}

func NewHandler(service swap.Service) *Handler {
	return &Handler{service: service}
}

// CreateRequest proposes trading the caller's slot for another user's slot.
func (h *Handler) CreateRequest(c *gin.Context) {
	var body CreateSwapRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err)
		return
	}

	r, err := h.service.CreateRequest(c.Request.Context(), auth.GetUserID(c), body.MySlotID, body.TheirSlotID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewSwapRequestResponse(r))
}

// Respond accepts or rejects an incoming request.
func (h *Handler) Respond(c *gin.Context) {
	var uri request.ByRequestIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, err)
		return
	}

	var body SwapResponseBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err)
		return
	}

	r, err := h.service.Respond(c.Request.Context(), auth.GetUserID(c), uri.RequestID, *body.Accept)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSwapRequestResponse(r))
}

func (h *Handler) List(c *gin.Context) {
	requests, err := h.service.ListRequests(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewRequestsResponse(requests))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, err)
		return
	}

	r, err := h.service.GetByID(c.Request.Context(), auth.GetUserID(c), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSwapRequestResponse(r))
}
