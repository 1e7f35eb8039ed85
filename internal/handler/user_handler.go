package handler

import (
	"net/http"
	"time"

	"auth-service/internal/middleware"
	"auth-service/internal/service"
	"auth-service/pkg/logger"
	"auth-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// UserHandler serves the authenticated user's profile endpoints.
type UserHandler struct {
	auth *service.AuthService
}

// NewUserHandler wires a user handler.
func NewUserHandler(auth *service.AuthService) *UserHandler {
	return &UserHandler{auth: auth}
}

// Profile returns the caller's user record.
func (h *UserHandler) Profile(c echo.Context) error {
	prometheus.RecordAuthOperation("profile_access")

	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": sess.User})
}

// UpdateProfile changes the caller's mutable profile fields.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAuthOperation("profile_update")

	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Username string `json:"username,omitempty"`
		Email    string `json:"email,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	user, err := h.auth.UpdateProfile(c.Request().Context(), sess.User.ID, req.Username, req.Email)
	if err != nil {
		log.Warn("Profile update failed", zap.Uint("user_id", sess.User.ID), zap.Error(err))
		return writeServiceError(c, err)
	}

	log.Info("Profile updated", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// ChangePassword replaces the caller's password and revokes all of
// their refresh tokens.
func (h *UserHandler) ChangePassword(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAuthOperation("password_change")

	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil || req.CurrentPassword == "" || req.NewPassword == "" {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "current_password and new_password are required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := h.auth.ChangePassword(c.Request().Context(), sess.User.ID, req.CurrentPassword, req.NewPassword); err != nil {
		log.Warn("Password change failed", zap.Uint("user_id", sess.User.ID), zap.Error(err))
		return writeServiceError(c, err)
	}

	log.Info("Password changed", zap.Uint("user_id", sess.User.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Password changed successfully"})
}

// LogoutAll revokes every outstanding refresh token for the caller.
func (h *UserHandler) LogoutAll(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAuthOperation("logout_all")

	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	revoked, err := h.auth.RevokeAllUserTokens(c.Request().Context(), sess.User.ID)
	if err != nil {
		log.Error("Logout all failed", zap.Uint("user_id", sess.User.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	prometheus.DecreaseActiveTokensBy(revoked)
	log.Info("All sessions revoked",
		zap.Uint("user_id", sess.User.ID),
		zap.Int64("tokens_revoked", revoked))
	return c.JSON(http.StatusOK, echo.Map{
		"message":        "Logged out from all sessions",
		"tokens_revoked": revoked,
	})
}
