package sos

import (
	"github.com/gin-gonic/gin"

	"crisis-service/internal/middleware"
)

func RegisterRoutes(r *gin.Engine, handler *SOSHandler, secured, optional gin.HandlerFunc) {
	// Raising an SOS must work without credentials; a token, when present,
	// attaches the reporter.
	r.POST("api/v1/sos", optional, handler.CreateSOS)

	sosGroup := r.Group("api/v1/sos", secured)
	{
		sosGroup.GET("", handler.GetAllSOS)
		sosGroup.GET("/recent", handler.GetRecentSOS)
		sosGroup.GET("/statistics", handler.GetStatistics)
		sosGroup.GET("/nearby/:radius", handler.GetNearbySOS)
		sosGroup.GET("/:id", handler.GetSOSByID)

		dispatching := sosGroup.Group("", middleware.RequireRoles(middleware.RoleResponder, middleware.RoleAdmin))
		{
			dispatching.GET("/:id/candidates", handler.GetCandidates)
			dispatching.PATCH("/:id/status", handler.TransitionStatus)
			dispatching.PATCH("/:id/assign", handler.AssignSOS)
		}
	}
}
