package user

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"crisis-service/helper"
	"crisis-service/internal/geo"
	"crisis-service/pkg/apperr"
)

type UserHandler struct {
	userService UserService
}

func NewUserHandler(userService UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) GetAllUsers(c *gin.Context) {
	users, err := h.userService.GetAllUsers(c, c.Query("role"))
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", users)
}

func (h *UserHandler) GetNearbyUsers(c *gin.Context) {
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

	users, err := h.userService.GetNearbyUsers(c, geo.Point{Longitude: longitude, Latitude: latitude}, radius)
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", users)
}

func (h *UserHandler) GetUserByID(c *gin.Context) {
	u, err := h.userService.GetUserByID(c, c.Param("id"))
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", u)
}

type updateLocationRequest struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

func (h *UserHandler) UpdateUserLocation(c *gin.Context) {
	var req updateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helper.SendError(c, apperr.Validationf("invalid request body: %v", err))
		return
	}

	u, err := h.userService.UpdateUserLocation(c, c.Param("id"), geo.Point{
		Longitude: req.Longitude,
		Latitude:  req.Latitude,
	})
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", u)
}
