package shelter

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"crisis-service/helper"
	"crisis-service/internal/geo"
	"crisis-service/pkg/apperr"
)

type ShelterHandler struct {
	shelterService ShelterService
}

func NewShelterHandler(shelterService ShelterService) *ShelterHandler {
	return &ShelterHandler{shelterService: shelterService}
}

func (h *ShelterHandler) CreateShelter(c *gin.Context) {
	var req CreateShelterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helper.SendError(c, apperr.Validationf("invalid request body: %v", err))
		return
	}

	sh, err := h.shelterService.CreateShelter(c, &req)
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusCreated, "success", sh)
}

func (h *ShelterHandler) GetAllShelters(c *gin.Context) {
	shelters, err := h.shelterService.GetAllShelters(c, c.Query("status"))
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", shelters)
}

func (h *ShelterHandler) GetShelterByID(c *gin.Context) {
	sh, err := h.shelterService.GetShelterByID(c, c.Param("id"))
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", sh)
}

func (h *ShelterHandler) GetNearbyShelters(c *gin.Context) {
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

	shelters, err := h.shelterService.GetNearbyShelters(c, geo.Point{Longitude: longitude, Latitude: latitude}, radius)
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", shelters)
}

func (h *ShelterHandler) UpdateOccupancy(c *gin.Context) {
	var req UpdateOccupancyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helper.SendError(c, apperr.Validationf("invalid request body: %v", err))
		return
	}

	sh, err := h.shelterService.UpdateOccupancy(c, c.Param("id"), &req)
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", sh)
}

func (h *ShelterHandler) UpdateShelterStatus(c *gin.Context) {
	var req UpdateShelterStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helper.SendError(c, apperr.Validationf("invalid request body: %v", err))
		return
	}

	sh, err := h.shelterService.UpdateShelterStatus(c, c.Param("id"), &req)
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", sh)
}

func (h *ShelterHandler) DeleteShelter(c *gin.Context) {
	if err := h.shelterService.DeleteShelter(c, c.Param("id")); err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", nil)
}
