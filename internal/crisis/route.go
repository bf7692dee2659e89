package crisis

import (
	"github.com/gin-gonic/gin"

	"crisis-service/internal/middleware"
)

func RegisterRoutes(r *gin.Engine, handler *CrisisHandler, secured gin.HandlerFunc) {
	crisisGroup := r.Group("api/v1/crises", secured)
	{
		crisisGroup.POST("", handler.CreateCrisis)
		crisisGroup.GET("", handler.GetAllCrises)
		crisisGroup.GET("/nearby/:radius", handler.GetNearbyCrises)
		crisisGroup.GET("/:id", handler.GetCrisisByID)
		crisisGroup.POST("/:id/updates", handler.AddUpdate)

		managed := crisisGroup.Group("", middleware.RequireRoles(middleware.RoleResponder, middleware.RoleAdmin))
		{
			managed.POST("/:id/resolve", handler.ResolveCrisis)
			managed.DELETE("/:id", handler.DeleteCrisis)
		}
	}
}
