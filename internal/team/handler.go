package team

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crisis-service/helper"
	"crisis-service/pkg/apperr"
)

type TeamHandler struct {
	teamService TeamService
}

func NewTeamHandler(teamService TeamService) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

func (h *TeamHandler) CreateTeam(c *gin.Context) {
	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helper.SendError(c, apperr.Validationf("invalid request body: %v", err))
		return
	}

	t, err := h.teamService.CreateTeam(c, &req)
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusCreated, "success", t)
}

func (h *TeamHandler) GetAllTeams(c *gin.Context) {
	teams, err := h.teamService.GetAllTeams(c, c.Query("status"))
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", teams)
}

func (h *TeamHandler) GetTeamByID(c *gin.Context) {
	t, err := h.teamService.GetTeamByID(c, c.Param("id"))
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", t)
}

func (h *TeamHandler) UpdateTeamStatus(c *gin.Context) {
	var req UpdateTeamStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helper.SendError(c, apperr.Validationf("invalid request body: %v", err))
		return
	}

	t, err := h.teamService.UpdateTeamStatus(c, c.Param("id"), &req)
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", t)
}

func (h *TeamHandler) UpdateTeamLocation(c *gin.Context) {
	var req UpdateTeamLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helper.SendError(c, apperr.Validationf("invalid request body: %v", err))
		return
	}

	t, err := h.teamService.UpdateTeamLocation(c, c.Param("id"), &req)
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", t)
}

func (h *TeamHandler) DeleteTeam(c *gin.Context) {
	if err := h.teamService.DeleteTeam(c, c.Param("id")); err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", nil)
}
