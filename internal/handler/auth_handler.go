package handler

import (
	"errors"
	"net/http"
	"time"

	"auth-service/internal/service"
	"auth-service/pkg/logger"
	"auth-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthHandler serves registration, login, token refresh, logout and the
// TOTP enrollment endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler wires an auth handler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register handles user self-registration under an existing tenant.
func (h *AuthHandler) Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	// Parse request
	var req struct {
		TenantID uint   `json:"tenant_id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.TenantID == 0 || req.Username == "" || req.Email == "" || req.Password == "" {
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id, username, email and password are required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	user, err := h.auth.Register(c.Request().Context(), service.RegisterInput{
		TenantID: req.TenantID,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidRole) {
			prometheus.RecordAuthError("invalid_role")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		if errors.Is(err, service.ErrTenantNotFound) {
			prometheus.RecordAuthError("tenant_not_found")
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		}
		log.Error("Registration failed", zap.Error(err), zap.String("email", req.Email))
		prometheus.RecordAuthError("registration_failed")
		return writeServiceError(c, err)
	}

	log.Info("User registered",
		zap.String("email", user.Email),
		zap.Uint("tenant_id", user.TenantID),
		zap.String("role", string(user.Role)))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}

// Login handles email/password login. Accounts with TOTP enabled must
// include a valid code; an empty code yields 403 with totp_required.
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	// Parse request
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		TOTPCode string `json:"totp_code,omitempty"`
		ClientID string `json:"client_id,omitempty"`
		Scope    string `json:"scope,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	user, pair, err := h.auth.Login(c.Request().Context(), req.Email, req.Password, req.TOTPCode, req.ClientID, req.Scope)
	if err != nil {
		if errors.Is(err, service.ErrTOTPInvalid) {
			// A wrong second factor on login is a credential failure.
			prometheus.RecordAuthError("invalid_totp")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
		}
		log.Warn("Login failed", zap.String("email", req.Email), zap.Error(err))
		prometheus.RecordAuthError("login_failure")
		return writeServiceError(c, err)
	}

	prometheus.IncreaseActiveTokens()
	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.Uint("tenant_id", user.TenantID),
		zap.String("role", string(user.Role)))

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    pair.TokenType,
		"expires_in":    pair.ExpiresIn,
		"user": map[string]interface{}{
			"id":          user.ID,
			"email":       user.Email,
			"username":    user.Username,
			"tenant_id":   user.TenantID,
			"tenant_name": user.TenantName,
			"role":        user.Role,
		},
	})
}

// TenantUserLogin handles username/password login scoped to a single
// tenant's namespace.
func (h *AuthHandler) TenantUserLogin(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		TenantID uint   `json:"tenant_id"`
		Username string `json:"username"`
		Password string `json:"password"`
		TOTPCode string `json:"totp_code,omitempty"`
		ClientID string `json:"client_id,omitempty"`
		Scope    string `json:"scope,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tenant user login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.TenantID == 0 || req.Username == "" || req.Password == "" {
		prometheus.RecordAuthError("incomplete_login")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id, username and password are required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	user, err := h.auth.AuthenticateTenantUser(c.Request().Context(), req.TenantID, req.Username, req.Password)
	if err == nil {
		err = h.auth.CheckTOTP(user, req.TOTPCode)
	}
	if err != nil {
		if errors.Is(err, service.ErrTOTPInvalid) {
			prometheus.RecordAuthError("invalid_totp")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
		}
		log.Warn("Tenant user login failed",
			zap.Uint("tenant_id", req.TenantID),
			zap.String("username", req.Username),
			zap.Error(err))
		prometheus.RecordAuthError("login_failure")
		return writeServiceError(c, err)
	}

	pair, err := h.auth.IssueTokens(c.Request().Context(), user, req.ClientID, req.Scope)
	if err != nil {
		log.Error("Failed to issue tokens", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	prometheus.IncreaseActiveTokens()
	log.Info("Tenant user logged in",
		zap.String("username", user.Username),
		zap.Uint("tenant_id", user.TenantID))

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    pair.TokenType,
		"expires_in":    pair.ExpiresIn,
		"user": map[string]interface{}{
			"id":        user.ID,
			"email":     user.Email,
			"username":  user.Username,
			"tenant_id": user.TenantID,
			"role":      user.Role,
		},
	})
}

// Refresh exchanges a refresh token for a new pair. The submitted token
// is always revoked on success.
func (h *AuthHandler) Refresh(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token is required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	pair, err := h.auth.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRefreshTokenRevoked):
			prometheus.RecordRefresh("revoked")
		case errors.Is(err, service.ErrRefreshTokenExpired):
			prometheus.RecordRefresh("expired")
		default:
			prometheus.RecordRefresh("invalid")
		}
		log.Warn("Token refresh failed", zap.Error(err))
		prometheus.RecordAuthError("refresh_failure")
		return writeServiceError(c, err)
	}

	prometheus.RecordRefresh("rotated")
	log.Info("Refresh token rotated")

	return c.JSON(http.StatusOK, pair)
}

// Logout revokes a refresh token. Revoking an unknown or already
// revoked token still returns 200.
func (h *AuthHandler) Logout(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token is required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	revoked, err := h.auth.Logout(c.Request().Context(), req.RefreshToken)
	if err != nil {
		log.Error("Logout failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	// An idempotent no-op must not move the gauge.
	if revoked {
		prometheus.DecreaseActiveTokens()
	}
	log.Info("User logged out", zap.Bool("token_revoked", revoked))

	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

// TOTPSetup generates a pending secret and enrollment URI for the
// authenticated user.
func (h *AuthHandler) TOTPSetup(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTOTP("setup")

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	result, err := h.auth.SetupTOTP(c.Request().Context(), userID)
	if err != nil {
		log.Warn("TOTP setup failed", zap.Uint("user_id", userID), zap.Error(err))
		return writeServiceError(c, err)
	}

	log.Info("TOTP setup initiated", zap.Uint("user_id", userID))
	return c.JSON(http.StatusOK, result)
}

// TOTPVerify confirms the pending secret and enables enforcement.
func (h *AuthHandler) TOTPVerify(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTOTP("verify")

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&req); err != nil || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code is required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	user, err := h.auth.VerifyTOTP(c.Request().Context(), userID, req.Code)
	if err != nil {
		log.Warn("TOTP verification failed", zap.Uint("user_id", userID), zap.Error(err))
		return writeServiceError(c, err)
	}

	log.Info("TOTP enabled", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "TOTP enabled successfully",
		"user":    user,
	})
}

// TOTPLogin is the second step of a two-step login for accounts with
// TOTP enabled.
func (h *AuthHandler) TOTPLogin(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTOTP("login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Code     string `json:"code"`
		ClientID string `json:"client_id,omitempty"`
		Scope    string `json:"scope,omitempty"`
	}
	if err := c.Bind(&req); err != nil || req.Code == "" {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, password and code are required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	user, pair, err := h.auth.ValidateTOTPLogin(c.Request().Context(), req.Email, req.Password, req.Code, req.ClientID, req.Scope)
	if err != nil {
		if errors.Is(err, service.ErrTOTPInvalid) {
			prometheus.RecordAuthError("invalid_totp")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
		}
		log.Warn("TOTP login failed", zap.String("email", req.Email), zap.Error(err))
		prometheus.RecordAuthError("login_failure")
		return writeServiceError(c, err)
	}

	prometheus.IncreaseActiveTokens()
	log.Info("User logged in with TOTP",
		zap.String("email", user.Email),
		zap.Uint("tenant_id", user.TenantID))

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    pair.TokenType,
		"expires_in":    pair.ExpiresIn,
		"user": map[string]interface{}{
			"id":        user.ID,
			"email":     user.Email,
			"username":  user.Username,
			"tenant_id": user.TenantID,
			"role":      user.Role,
		},
	})
}

// MetricsHandler exposes the Prometheus registry.
func MetricsHandler(c echo.Context) error {
	handler := prometheus.GetPrometheusHandler()
	handler.ServeHTTP(c.Response(), c.Request())
	return nil
}
