package team

import (
	"github.com/gin-gonic/gin"

	"crisis-service/internal/middleware"
)

func RegisterRoutes(r *gin.Engine, handler *TeamHandler, secured gin.HandlerFunc) {
	teamGroup := r.Group("api/v1/teams", secured)
	{
		teamGroup.GET("", handler.GetAllTeams)
		teamGroup.GET("/:id", handler.GetTeamByID)
		teamGroup.PATCH("/:id/location", handler.UpdateTeamLocation)

		managed := teamGroup.Group("", middleware.RequireRoles(middleware.RoleResponder, middleware.RoleAdmin))
		{
			managed.POST("", handler.CreateTeam)
			managed.PATCH("/:id/status", handler.UpdateTeamStatus)
			managed.DELETE("/:id", handler.DeleteTeam)
		}
	}
}
