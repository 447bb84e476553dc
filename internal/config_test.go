package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/studydesk/internal/autosave"
	pkgconfig "github.com/starford/studydesk/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
	if cfg.UserID != "local" {
		t.Errorf("user id = %q, want default", cfg.UserID)
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != "disabled" {
		t.Errorf("mode = %q, want disabled", cfg.Mode)
	}
}

func TestAuthConfig_TokenMode(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}

	cfg = AuthConfig{Mode: "token"}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("empty token error = %v", err)
	}
}

func TestAuthConfig_JWTMode(t *testing.T) {
	cfg := AuthConfig{Mode: "jwt", JWTSecret: "short"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("short jwt secret should fail")
	}
	cfg.JWTSecret = strings.Repeat("s", 32)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("jwt mode should pass: %v", err)
	}
	if got := cfg.API(); got.Mode != "jwt" || got.JWTSecret != cfg.JWTSecret {
		t.Errorf("API() = %+v", got)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestAIConfig_ModelRequiredWhenEnabled(t *testing.T) {
	cfg := AIConfig{BaseURL: "http://localhost:11434/v1"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("enabled assistant without model should fail")
	}
	cfg.Model = "llama3"
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if !cfg.Enabled() {
		t.Error("assistant should be enabled")
	}
}

func TestVaultConfig_PathRequiredWhenEnabled(t *testing.T) {
	cfg := VaultConfig{Enabled: true}
	if err := cfg.Validate(); err == nil {
		t.Fatal("enabled vault without path should fail")
	}
	if err := (&VaultConfig{}).Validate(); err != nil {
		t.Fatalf("disabled vault needs no path: %v", err)
	}
}

func TestFullConfig_Defaults(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	cfg := NewDefaultConfig()
	if cfg.Autosave.Delay != autosave.DefaultDelay {
		t.Errorf("default delay = %v, want %v", cfg.Autosave.Delay, autosave.DefaultDelay)
	}
	cfg.Autosave.Delay = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero autosave delay should pass: %v", err)
	}
	cfg.Autosave.Delay = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative autosave delay should fail")
	}
}

func TestFullConfig_LoadYAML(t *testing.T) {
	t.Setenv("STUDYDESK_TEST_TOKEN", "from-env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
app:
  log_level: debug
  http:
    port: 9090
sqlite:
  path: /tmp/study.db
auth:
  mode: token
  token: ${STUDYDESK_TEST_TOKEN}
autosave:
  delay: 1500ms
  session_ttl: 5m
vault:
  enabled: true
  path: /tmp/vault
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.HTTP.Port != 9090 || cfg.Auth.Token != "from-env" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Autosave.Delay != 1500*time.Millisecond || cfg.Autosave.SessionTTL != 5*time.Minute {
		t.Errorf("autosave = %+v", cfg.Autosave)
	}
	if cfg.Auth.UserID != "local" || cfg.AI.Model == "" {
		t.Error("unset fields should keep their defaults")
	}
}
