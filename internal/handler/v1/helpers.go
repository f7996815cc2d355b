package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmehra2102/codeblue/internal/domain/order"
	"github.com/dmehra2102/codeblue/internal/domain/patient"
	"github.com/dmehra2102/codeblue/internal/domain/session"
	"github.com/dmehra2102/codeblue/internal/service"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

func respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, session.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})

	case errors.Is(err, session.ErrOrderInProgress):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "ORDER_IN_PROGRESS"})

	case errors.Is(err, session.ErrPatientDeceased),
		errors.Is(err, session.ErrPatientCured):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "CASE_ENDED"})

	case errors.Is(err, session.ErrNotActive),
		errors.Is(err, patient.ErrInvalidCaseType),
		errors.Is(err, order.ErrInvalidKind):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return false
	}

	return true
}
