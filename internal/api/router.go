package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crisis-service/config"
	"crisis-service/internal/broadcast"
	"crisis-service/internal/crisis"
	"crisis-service/internal/middleware"
	"crisis-service/internal/shelter"
	"crisis-service/internal/sos"
	"crisis-service/internal/team"
	"crisis-service/internal/user"
)

type Handlers struct {
	SOS     *sos.SOSHandler
	Team    *team.TeamHandler
	Shelter *shelter.ShelterHandler
	Crisis  *crisis.CrisisHandler
	User    *user.UserHandler
	Stream  *broadcast.StreamHandler
}

// NewRouter wires every feature's routes plus the health endpoint consul
// probes.
func NewRouter(cfg *config.Config, h *Handlers) *gin.Engine {
	gin.SetMode(cfg.Mode)
	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	secured := middleware.Secured(cfg.JWTSecret)
	optional := middleware.OptionalSecured(cfg.JWTSecret)

	sos.RegisterRoutes(router, h.SOS, secured, optional)
	team.RegisterRoutes(router, h.Team, secured)
	shelter.RegisterRoutes(router, h.Shelter, secured)
	crisis.RegisterRoutes(router, h.Crisis, secured)
	user.RegisterRoutes(router, h.User, secured)
	broadcast.RegisterRoutes(router, h.Stream)

	return router
}
