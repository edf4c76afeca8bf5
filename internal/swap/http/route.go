package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("")
	group.Use(authMiddleware)
	{
		group.POST("/swap-request", h.CreateRequest)
		group.POST("/swap-response/:requestId", h.Respond)
		group.GET("/requests", h.List)
		group.GET("/requests/:id", h.Get)
	}
}
