package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sparklean/service-booking/internal/domain/shared"
)

// Envelope is the uniform JSON body for all API responses.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta carries pagination information for list responses.
type Meta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// Success writes a 200 response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Paginated writes a 200 response with data and pagination meta.
func Paginated(c *gin.Context, data interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    data,
		Meta:    &Meta{Total: total, Page: page, Limit: limit},
	})
}

// BadRequest writes a 400 response with a message.
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: msg})
}

// Unauthorized writes a 401 response with a message.
func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, Envelope{Success: false, Error: msg})
}

// Error maps a domain error onto an HTTP status and writes it.
func Error(c *gin.Context, err error) {
	var domErr *shared.DomainError
	if errors.As(err, &domErr) {
		c.JSON(statusFor(domErr), Envelope{Success: false, Error: domErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, Envelope{Success: false, Error: err.Error()})
}

func statusFor(err *shared.DomainError) int {
	switch {
	case errors.Is(err.Err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err.Err, shared.ErrConflict):
		return http.StatusConflict
	case errors.Is(err.Err, shared.ErrInvalidState), errors.Is(err.Err, shared.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err.Err, shared.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
