package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"auth-service/internal/middleware"
	"auth-service/internal/service"
	"auth-service/pkg/logger"
	"auth-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TenantHandler serves tenant login, tenant management and the cascade
// endpoints.
type TenantHandler struct {
	tenants *service.TenantService
	auth    *service.AuthService
}

// NewTenantHandler wires a tenant handler.
func NewTenantHandler(tenants *service.TenantService, auth *service.AuthService) *TenantHandler {
	return &TenantHandler{tenants: tenants, auth: auth}
}

// Login handles tenant-level login. An unknown email provisions the
// tenant and its owner user in one transaction; the response carries
// is_new so clients can distinguish the first login. TOTP is enforced
// for existing owners that enabled it, never for a just-provisioned one.
func (h *TenantHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name,omitempty"`
		TOTPCode string `json:"totp_code,omitempty"`
		ClientID string `json:"client_id,omitempty"`
		Scope    string `json:"scope,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tenant login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Email == "" || req.Password == "" {
		prometheus.RecordAuthError("incomplete_tenant_login")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	result, err := h.tenants.AuthenticateOrCreate(c.Request().Context(), req.Email, req.Password, req.Name)
	if err != nil {
		log.Warn("Tenant login failed", zap.String("email", req.Email), zap.Error(err))
		prometheus.RecordAuthError("tenant_login_failure")
		return writeServiceError(c, err)
	}

	if !result.IsNew {
		if err := h.auth.CheckTOTP(result.Owner, req.TOTPCode); err != nil {
			if errors.Is(err, service.ErrTOTPInvalid) {
				prometheus.RecordAuthError("invalid_totp")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
			}
			return writeServiceError(c, err)
		}
	}

	pair, err := h.auth.IssueTokens(c.Request().Context(), result.Owner, req.ClientID, req.Scope)
	if err != nil {
		log.Error("Failed to issue tokens for tenant owner", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	outcome := "existing"
	if result.IsNew {
		outcome = "provisioned"
	}
	prometheus.RecordTenantLogin(outcome)
	prometheus.IncreaseActiveTokens()
	log.Info("Tenant logged in",
		zap.String("email", result.Tenant.Email),
		zap.Uint("tenant_id", result.Tenant.ID),
		zap.Bool("is_new", result.IsNew))

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    pair.TokenType,
		"expires_in":    pair.ExpiresIn,
		"is_new":        result.IsNew,
		"tenant":        result.Tenant,
		"user":          result.Owner,
	})
}

// Get returns the caller's tenant.
func (h *TenantHandler) Get(c echo.Context) error {
	prometheus.RecordTenantOperation("access")

	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	tenant, err := h.tenants.Get(c.Request().Context(), sess.User.TenantID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tenant": tenant})
}

// Update renames the caller's tenant and cascades the new name to every
// user row in the same transaction.
func (h *TenantHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("update")

	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Name *string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	result, err := h.tenants.UpdateWithCascade(c.Request().Context(), sess.User.TenantID, req.Name)
	if err != nil {
		log.Error("Tenant update failed", zap.Uint("tenant_id", sess.User.TenantID), zap.Error(err))
		return writeServiceError(c, err)
	}

	prometheus.RecordCascade("rename")
	log.Info("Tenant updated",
		zap.Uint("tenant_id", result.Tenant.ID),
		zap.Int64("users_affected", result.UsersAffected))

	return c.JSON(http.StatusOK, echo.Map{
		"message":        "Tenant updated successfully",
		"tenant":         result.Tenant,
		"users_affected": result.UsersAffected,
	})
}

// UpdateStatus activates or deactivates the caller's tenant together
// with all of its users.
func (h *TenantHandler) UpdateStatus(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("update")

	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "is_active is required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	result, err := h.tenants.UpdateStatusWithCascade(c.Request().Context(), sess.User.TenantID, *req.IsActive)
	if err != nil {
		log.Error("Tenant status update failed", zap.Uint("tenant_id", sess.User.TenantID), zap.Error(err))
		return writeServiceError(c, err)
	}

	prometheus.RecordCascade("status")
	log.Info("Tenant status updated",
		zap.Uint("tenant_id", result.Tenant.ID),
		zap.Bool("is_active", result.Tenant.IsActive),
		zap.Int64("users_affected", result.UsersAffected))

	return c.JSON(http.StatusOK, echo.Map{
		"message":        "Tenant status updated successfully",
		"tenant":         result.Tenant,
		"users_affected": result.UsersAffected,
	})
}

// Delete soft-deletes the caller's tenant: the tenant and every one of
// its users are deactivated in one transaction. Data is retained; a
// later status update can restore the tenant.
func (h *TenantHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("delete")

	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	result, err := h.tenants.UpdateStatusWithCascade(c.Request().Context(), sess.User.TenantID, false)
	if err != nil {
		log.Error("Tenant delete failed", zap.Uint("tenant_id", sess.User.TenantID), zap.Error(err))
		return writeServiceError(c, err)
	}

	prometheus.RecordCascade("status")
	log.Info("Tenant deactivated",
		zap.Uint("tenant_id", result.Tenant.ID),
		zap.Int64("users_affected", result.UsersAffected))

	return c.JSON(http.StatusOK, echo.Map{
		"message":        "Tenant deactivated successfully",
		"tenant":         result.Tenant,
		"users_affected": result.UsersAffected,
	})
}

// Impact reports how many users a cascade would touch without writing
// anything.
func (h *TenantHandler) Impact(c echo.Context) error {
	prometheus.RecordTenantOperation("impact")

	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	impact, err := h.tenants.Impact(c.Request().Context(), sess.User.TenantID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, impact)
}

// ListUsers returns a page of the caller's tenant users.
func (h *TenantHandler) ListUsers(c echo.Context) error {
	prometheus.RecordTenantOperation("list_users")

	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	defer prometheus.TrackDBOperation("query")(time.Now())
	users, err := h.tenants.ListUsers(c.Request().Context(), sess.User.TenantID, offset, limit)
	if err != nil {
		return writeServiceError(c, err)
	}
	prometheus.UpdateUsersPerTenant(sess.User.TenantID, sess.User.TenantName, len(users))

	return c.JSON(http.StatusOK, echo.Map{"users": users, "count": len(users)})
}
