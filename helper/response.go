package helper

import (
	"net/http"

	"crisis-service/pkg/apperr"

	"github.com/gin-gonic/gin"
)

type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func SendSuccess(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

type PagedResponse struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

type Pagination struct {
	Total int64 `json:"total"`
	Page  int64 `json:"page"`
	Pages int64 `json:"pages"`
}

func SendPaged(c *gin.Context, data interface{}, total, page, limit int64) {
	pages := int64(0)
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	c.JSON(http.StatusOK, PagedResponse{
		Success: true,
		Data:    data,
		Pagination: Pagination{
			Total: total,
			Page:  page,
			Pages: pages,
		},
	})
}

// SendError derives the HTTP status from the error's kind.
func SendError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindInvalidTransition:
		status = http.StatusUnprocessableEntity
	case apperr.KindConflict:
		status = http.StatusConflict
	}

	message := "Server Error"
	if status != http.StatusInternalServerError {
		message = err.Error()
	}

	c.JSON(status, ErrorResponse{
		Success: false,
		Error:   message,
	})
}
