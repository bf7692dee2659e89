package shelter

import (
	"github.com/gin-gonic/gin"

	"crisis-service/internal/middleware"
)

func RegisterRoutes(r *gin.Engine, handler *ShelterHandler, secured gin.HandlerFunc) {
	shelterGroup := r.Group("api/v1/shelters", secured)
	{
		shelterGroup.GET("", handler.GetAllShelters)
		shelterGroup.GET("/nearby/:radius", handler.GetNearbyShelters)
		shelterGroup.GET("/:id", handler.GetShelterByID)

		managed := shelterGroup.Group("", middleware.RequireRoles(middleware.RoleResponder, middleware.RoleAdmin))
		{
			managed.POST("", handler.CreateShelter)
			managed.PATCH("/:id/occupancy", handler.UpdateOccupancy)
			managed.PATCH("/:id/status", handler.UpdateShelterStatus)
			managed.DELETE("/:id", handler.DeleteShelter)
		}
	}
}
