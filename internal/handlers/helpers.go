package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"eb5tracker/internal/middleware"
	"eb5tracker/internal/models"
)

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func getIdentity(c *gin.Context) *models.Identity {
	return middleware.IdentityFrom(c)
}

func getIntParam(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid " + name, Field: name})
		return 0, false
	}
	return n, true
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

// writeError maps the error kinds to status codes.
func writeError(c *gin.Context, tag string, err error) {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, errorResponse{Error: ve.Error(), Field: ve.Field})
	case models.IsAuthError(err):
		c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case models.IsForbiddenError(err):
		c.JSON(http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "not found"})
	case models.IsTransportError(err):
		log.Printf("%s transport error: %v", tag, err)
		c.JSON(http.StatusBadGateway, errorResponse{Error: "storage unavailable"})
	default:
		log.Printf("%s unexpected error: %v", tag, err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
