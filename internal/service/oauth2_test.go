package service_test

import (
	"testing"

	"auth-service/internal/service"
)

func TestAuthorizationServerMetadata(t *testing.T) {
	md := service.NewAuthorizationServerMetadata("https://auth.example.com")

	if md.Issuer != "https://auth.example.com" {
		t.Errorf("issuer = %q, want the base URL", md.Issuer)
	}
	if md.TokenEndpoint != "https://auth.example.com/oauth/token" {
		t.Errorf("token_endpoint = %q", md.TokenEndpoint)
	}

	if len(md.CodeChallengeMethodsSupported) != 1 || md.CodeChallengeMethodsSupported[0] != "S256" {
		t.Errorf("code_challenge_methods = %v, want exactly [S256]", md.CodeChallengeMethodsSupported)
	}

	grants := make(map[string]bool)
	for _, g := range md.GrantTypesSupported {
		grants[g] = true
	}
	if !grants["authorization_code"] || !grants["refresh_token"] {
		t.Errorf("grant_types = %v, want authorization_code and refresh_token", md.GrantTypesSupported)
	}
}
