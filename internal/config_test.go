package internal

import (
	"strings"
	"testing"
	"time"
)

func jwtAuth() AuthConfig {
	return AuthConfig{
		Mode:     "jwt",
		Secret:   "mysecret",
		TokenTTL: time.Hour,
		Users:    []UserConfig{{Username: "admin", Password: "pw", Role: "admin"}},
	}
}

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsJWT(t *testing.T) {
	cfg := jwtAuth()
	cfg.Mode = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to jwt: %v", err)
	}
	if cfg.Mode != AuthModeJWT {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeJWT)
	}
}

func TestAuthConfig_JWTModeValid(t *testing.T) {
	cfg := jwtAuth()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("jwt mode with secret and users should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("jwt mode should be enabled")
	}
}

func TestAuthConfig_JWTModeEmptySecret(t *testing.T) {
	cfg := jwtAuth()
	cfg.Secret = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("jwt mode with empty secret should fail")
	}
	if !strings.Contains(err.Error(), "secret is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_JWTModeNoUsers(t *testing.T) {
	cfg := jwtAuth()
	cfg.Users = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("jwt mode without users should fail")
	}
}

func TestAuthConfig_UserNeedsExactlyOnePassword(t *testing.T) {
	cfg := jwtAuth()
	cfg.Users = []UserConfig{{Username: "admin"}}
	if err := cfg.Validate(); err == nil {
		t.Error("user without password should fail")
	}
	cfg.Users = []UserConfig{{Username: "admin", Password: "a", PasswordHash: "b"}}
	if err := cfg.Validate(); err == nil {
		t.Error("user with both password and hash should fail")
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestSongsConfig_Extension(t *testing.T) {
	cfg := SongsConfig{Dir: "canti", Extension: "html"}
	if err := cfg.Validate(); err == nil {
		t.Error("extension without leading dot should fail")
	}
	cfg.Extension = ".html"
	cfg.Separator = "--"
	if err := cfg.Validate(); err == nil {
		t.Error("multi-character separator should fail")
	}
}

func TestGitHubConfig_PublishOnSaveNeedsCredentials(t *testing.T) {
	cfg := NewDefaultConfig().GitHub
	cfg.PublishOnSave = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("publish_on_save without token should fail")
	}
	cfg.Token, cfg.Owner, cfg.Repo = "t", "o", "r"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("complete github config should pass: %v", err)
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Secret = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_DisabledAuthValid(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = AuthModeDisabled
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config with auth disabled should pass: %v", err)
	}
}
