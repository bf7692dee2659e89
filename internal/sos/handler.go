package sos

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"crisis-service/helper"
	"crisis-service/internal/dispatch"
	"crisis-service/internal/geo"
	"crisis-service/internal/middleware"
	"crisis-service/pkg/apperr"
)

type SOSHandler struct {
	sosService SOSService
	matcher    *dispatch.Matcher
}

func NewSOSHandler(sosService SOSService, matcher *dispatch.Matcher) *SOSHandler {
	return &SOSHandler{sosService: sosService, matcher: matcher}
}

func (h *SOSHandler) CreateSOS(c *gin.Context) {
	var req CreateSOSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helper.SendError(c, apperr.Validationf("invalid request body: %v", err))
		return
	}

	identity := middleware.IdentityFrom(c)
	request, err := h.sosService.CreateSOS(c, &req, identity.UserID)
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusCreated, "success", request)
}

func (h *SOSHandler) GetAllSOS(c *gin.Context) {
	filter := ListFilter{
		Status:   Status(c.Query("status")),
		Type:     Category(c.Query("type")),
		Priority: Priority(c.Query("priority")),
	}
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "10"), 10, 64)

	requests, total, err := h.sosService.GetAllSOS(c, filter, page, limit)
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendPaged(c, requests, total, page, limit)
}

// GetRecentSOS is the unfiltered feed, newest first.
func (h *SOSHandler) GetRecentSOS(c *gin.Context) {
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "10"), 10, 64)

	requests, total, err := h.sosService.GetAllSOS(c, ListFilter{}, page, limit)
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendPaged(c, requests, total, page, limit)
}

func (h *SOSHandler) GetSOSByID(c *gin.Context) {
	request, err := h.sosService.GetSOSByID(c, c.Param("id"))
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", request)
}

func (h *SOSHandler) GetNearbySOS(c *gin.Context) {
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

	requests, err := h.sosService.GetNearbySOS(c, geo.Point{Longitude: longitude, Latitude: latitude}, radius)
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", requests)
}

func (h *SOSHandler) TransitionStatus(c *gin.Context) {
	var req TransitionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helper.SendError(c, apperr.Validationf("invalid request body: %v", err))
		return
	}

	identity := middleware.IdentityFrom(c)
	request, err := h.sosService.TransitionStatus(c, c.Param("id"), Status(req.Status), req.Note, identity.UserID)
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", request)
}

func (h *SOSHandler) AssignSOS(c *gin.Context) {
	var req AssignSOSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helper.SendError(c, apperr.Validationf("invalid request body: %v", err))
		return
	}

	identity := middleware.IdentityFrom(c)
	request, err := h.sosService.AssignSOS(c, c.Param("id"), req.ResponderID, identity.UserID)
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", request)
}

// GetCandidates surfaces ranked dispatch options for a still-open request.
func (h *SOSHandler) GetCandidates(c *gin.Context) {
	request, err := h.sosService.GetSOSByID(c, c.Param("id"))
	if err != nil {
		helper.SendError(c, err)
		return
	}

	if request.Status.Terminal() {
		helper.SendError(c, apperr.InvalidTransitionf("request is %s, no dispatch candidates", request.Status))
		return
	}

	candidates, err := h.matcher.Match(c, request.Location.Point(), string(request.Type))
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", candidates)
}

func (h *SOSHandler) GetStatistics(c *gin.Context) {
	var window *TimeWindow
	fromStr, toStr := c.Query("from"), c.Query("to")
	if fromStr != "" || toStr != "" {
		window = &TimeWindow{}
		if fromStr != "" {
			from, err := time.Parse(time.RFC3339, fromStr)
			if err != nil {
				helper.SendError(c, apperr.Validationf("invalid from timestamp"))
				return
			}
			window.From = from
		}
		if toStr != "" {
			to, err := time.Parse(time.RFC3339, toStr)
			if err != nil {
				helper.SendError(c, apperr.Validationf("invalid to timestamp"))
				return
			}
			window.To = to
		}
	}

	stats, err := h.sosService.GetStatistics(c, window)
	if err != nil {
		helper.SendError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", stats)
}
