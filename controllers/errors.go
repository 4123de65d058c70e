package controllers

import (
	"errors"
	"net/http"

	"promptcoach/services"
	"promptcoach/session"

	"github.com/gin-gonic/gin"
)

// statusFor maps the error taxonomy to an HTTP status
func statusFor(err error) int {
	var gwErr *services.GatewayError
	switch {
	case errors.Is(err, services.ErrInvalidRole):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrConfiguration):
		return http.StatusServiceUnavailable
	case errors.Is(err, session.ErrInvalidTransition),
		errors.Is(err, session.ErrBusy),
		errors.Is(err, session.ErrStaleRound):
		return http.StatusConflict
	case errors.Is(err, services.ErrEvaluationParse),
		errors.Is(err, services.ErrGenerationFailed),
		errors.As(err, &gwErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError sends the single user-facing notification for a failure.
func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
