package crisis

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"crisis-service/helper"
	"crisis-service/internal/geo"
	"crisis-service/internal/middleware"
	"crisis-service/pkg/apperr"
)

type CrisisHandler struct {
	crisisService CrisisService
}

func NewCrisisHandler(crisisService CrisisService) *CrisisHandler {
	return &CrisisHandler{crisisService: crisisService}
}

func (h *CrisisHandler) CreateCrisis(c *gin.Context) {
	var req CreateCrisisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helper.SendError(c, apperr.Validationf("invalid request body: %v", err))
		return
	}

	identity := middleware.IdentityFrom(c)
	crisis, err := h.crisisService.CreateCrisis(c, &req, identity.UserID)
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusCreated, "success", crisis)
}

func (h *CrisisHandler) GetAllCrises(c *gin.Context) {
	crises, err := h.crisisService.GetAllCrises(c, c.Query("status"))
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", crises)
}

func (h *CrisisHandler) GetCrisisByID(c *gin.Context) {
	crisis, err := h.crisisService.GetCrisisByID(c, c.Param("id"))
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", crisis)
}

func (h *CrisisHandler) GetNearbyCrises(c *gin.Context) {
	longitude, err1 := strconv.ParseFloat(c.Query("longitude"), 64)
	latitude, err2 := strconv.ParseFloat(c.Query("latitude"), 64)
	if err1 != nil || err2 != nil {
		helper.SendError(c, apperr.Validationf("longitude and latitude are required"))
		return
	}

	radius, err := strconv.ParseFloat(c.Param("radius"), 64)
	if err != nil {
		helper.SendError(c, apperr.Validationf("invalid radius"))
		return
	}

	crises, err := h.crisisService.GetNearbyCrises(c, geo.Point{Longitude: longitude, Latitude: latitude}, radius)
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", crises)
}

func (h *CrisisHandler) AddUpdate(c *gin.Context) {
	var req AddUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helper.SendError(c, apperr.Validationf("invalid request body: %v", err))
		return
	}

	identity := middleware.IdentityFrom(c)
	crisis, err := h.crisisService.AddUpdate(c, c.Param("id"), &req, identity.UserID)
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", crisis)
}

func (h *CrisisHandler) ResolveCrisis(c *gin.Context) {
	identity := middleware.IdentityFrom(c)
	crisis, err := h.crisisService.ResolveCrisis(c, c.Param("id"), identity.UserID)
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", crisis)
}

func (h *CrisisHandler) DeleteCrisis(c *gin.Context) {
	if err := h.crisisService.DeleteCrisis(c, c.Param("id")); err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", nil)
}
