package user

import (
	"github.com/gin-gonic/gin"

	"crisis-service/internal/middleware"
)

func RegisterRoutes(r *gin.Engine, handler *UserHandler, secured gin.HandlerFunc) {
	userGroup := r.Group("api/v1/users", secured)
	{
		userGroup.GET("", handler.GetAllUsers)
		userGroup.GET("/nearby/:radius", middleware.RequireRoles(middleware.RoleResponder, middleware.RoleAdmin), handler.GetNearbyUsers)
		userGroup.GET("/:id", handler.GetUserByID)
		userGroup.PATCH("/:id/location", handler.UpdateUserLocation)
	}
}
