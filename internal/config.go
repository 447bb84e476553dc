package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/studydesk/internal/ai"
	"github.com/starford/studydesk/internal/api"
	"github.com/starford/studydesk/internal/autosave"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
	Auth     AuthConfig        `yaml:"auth"`
	Autosave AutosaveConfig    `yaml:"autosave"`
	AI       AIConfig          `yaml:"ai"`
	Vault    VaultConfig       `yaml:"vault"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Autosave.Validate(); err != nil {
		return err
	}
	if err := c.AI.Validate(); err != nil {
		return err
	}
	return c.Vault.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how requests are attributed to a user:
//   - "disabled" (default): every request acts as UserID, suitable for local use.
//   - "token": a static Bearer token; Token must be non-empty. Requests act as UserID.
//   - "jwt": HS256 Bearer tokens signed with JWTSecret; the "sub" claim is the user.
type AuthConfig struct {
	Mode      string `yaml:"mode"`
	Token     string `yaml:"token"`
	UserID    string `yaml:"user_id"`
	JWTSecret string `yaml:"jwt_secret"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = api.AuthModeDisabled
	}
	if c.UserID == "" {
		c.UserID = api.DefaultUserID
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required,
			validation.In(api.AuthModeDisabled, api.AuthModeToken, api.AuthModeJWT)),
	); err != nil {
		return err
	}
	if c.Mode == api.AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", api.AuthModeToken)
	}
	if c.Mode == api.AuthModeJWT && len(c.JWTSecret) < 32 {
		return fmt.Errorf("auth: mode is %q but jwt_secret is shorter than 32 bytes", api.AuthModeJWT)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode != api.AuthModeDisabled
}

// API converts the section for the API middleware.
func (c *AuthConfig) API() api.AuthConfig {
	return api.AuthConfig{Mode: c.Mode, Token: c.Token, UserID: c.UserID, JWTSecret: c.JWTSecret}
}

// AutosaveConfig controls editor sessions. A zero Delay saves on every edit.
type AutosaveConfig struct {
	Delay      time.Duration `yaml:"delay"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// Validate validates the autosave configuration.
func (c *AutosaveConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Delay, validation.Min(time.Duration(0))),
		validation.Field(&c.SessionTTL, validation.Required, validation.Min(time.Second)),
	)
}

// AIConfig configures the study assistant. An empty BaseURL disables it.
type AIConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the AI configuration.
func (c *AIConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Model, validation.When(c.BaseURL != "", validation.Required)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// Enabled reports whether an assistant is configured.
func (c *AIConfig) Enabled() bool {
	return c.BaseURL != ""
}

// Client converts the section for the AI client.
func (c *AIConfig) Client() ai.Config {
	return ai.Config{BaseURL: c.BaseURL, APIKey: c.APIKey, Model: c.Model, Timeout: c.Timeout}
}

// VaultConfig holds the Markdown mirror configuration.
type VaultConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./studydesk.db",
		},
		Auth: AuthConfig{
			Mode:   api.AuthModeDisabled,
			UserID: api.DefaultUserID,
		},
		Autosave: AutosaveConfig{
			Delay:      autosave.DefaultDelay,
			SessionTTL: 10 * time.Minute,
		},
		AI: AIConfig{
			Model:   "gpt-4o-mini",
			Timeout: 60 * time.Second,
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
	}
}
