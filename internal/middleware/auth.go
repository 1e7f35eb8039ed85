package middleware

import (
	"fmt"
	"net/http"

	"auth-service/internal/model"
	"auth-service/internal/service"
	"auth-service/pkg/logger"
	"auth-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	// SessionKey is the echo context key holding the resolved *service.Session.
	SessionKey = "session"
)

// SessionMiddleware authenticates the bearer token through the session
// gate and stores the resolved session in the request context. A tenant
// mismatch is answered with 403, every other failure with 401.
func SessionMiddleware(gate *service.SessionGate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			authHeader := c.Request().Header.Get("Authorization")
			sess, err := gate.Authenticate(c.Request().Context(), authHeader)
			if err != nil {
				if service.IsAuthorizationError(err) {
					log.Warn("Cross-tenant access attempt blocked",
						zap.String("path", c.Request().URL.Path))
					prometheus.RecordAuthError("tenant_mismatch")
					return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
				}
				log.Debug("Request authentication failed", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
			}

			// Store session info in context for later use
			c.Set(SessionKey, sess)
			c.Set("user_id", sess.User.ID)
			c.Set("email", sess.User.Email)
			c.Set("tenant_id", sess.User.TenantID)
			c.Set("user_role", string(sess.User.Role))

			// Add tenant ID to request header for downstream services
			c.Request().Header.Set("X-Tenant-ID", fmt.Sprintf("%d", sess.User.TenantID))
			if sess.User.TenantName != "" {
				c.Request().Header.Set("X-Tenant-Name", sess.User.TenantName)
			}
			c.Request().Header.Set("X-User-Role", string(sess.User.Role))

			log.Debug("Request authenticated with tenant context",
				zap.Uint("user_id", sess.User.ID),
				zap.Uint("tenant_id", sess.User.TenantID),
				zap.String("role", string(sess.User.Role)))

			return next(c)
		}
	}
}

// SessionFromContext returns the session stored by SessionMiddleware.
func SessionFromContext(c echo.Context) (*service.Session, bool) {
	sess, ok := c.Get(SessionKey).(*service.Session)
	return sess, ok
}

// RequireRole rejects requests whose user role ranks below the minimum.
func RequireRole(min model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, ok := SessionFromContext(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing session"})
			}
			if !sess.User.Role.AtLeast(min) {
				prometheus.RecordAuthError("insufficient_role")
				return c.JSON(http.StatusForbidden, echo.Map{"error": service.ErrRoleForbidden.Error()})
			}
			return next(c)
		}
	}
}
