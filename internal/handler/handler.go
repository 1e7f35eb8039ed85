// Package handler contains the echo HTTP handlers. Handlers bind
// requests, call the services and translate service errors into HTTP
// status codes; all domain logic lives in internal/service.
package handler

import (
	"errors"
	"net/http"

	"auth-service/internal/service"

	"github.com/labstack/echo/v4"
)

// writeServiceError maps a service error onto the response. The
// distinction between 401 and 403 is load-bearing: 401 means identity
// was never proven, 403 means it was proven and the action is denied.
func writeServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrTOTPRequired):
		// Distinct signal so clients can redirect to the code prompt.
		return c.JSON(http.StatusForbidden, echo.Map{
			"error":         err.Error(),
			"totp_required": true,
		})
	case service.IsAuthorizationError(err):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case service.IsAuthenticationError(err):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
	case service.IsConflictError(err):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case service.IsTOTPError(err):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}
