package handler

import (
	"net/http"

	"auth-service/internal/service"

	"github.com/labstack/echo/v4"
)

// WellKnownHandler serves the OAuth2 discovery endpoints.
type WellKnownHandler struct {
	metadata service.AuthorizationServerMetadata
}

// NewWellKnownHandler builds the discovery document once at startup.
func NewWellKnownHandler(baseURL string) *WellKnownHandler {
	return &WellKnownHandler{metadata: service.NewAuthorizationServerMetadata(baseURL)}
}

// AuthorizationServer serves /.well-known/oauth-authorization-server.
func (h *WellKnownHandler) AuthorizationServer(c echo.Context) error {
	return c.JSON(http.StatusOK, h.metadata)
}
