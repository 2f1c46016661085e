package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime setting, loaded from environment variables.
type Config struct {
	// HTTP
	Addr    string `env:"LOGIN_HTTP_ADDR" envDefault:":3000"`
	BaseURL string `env:"LOGIN_BASE_URL" envDefault:"http://localhost:3000"`

	// Database
	DSN string `env:"LOGIN_DATABASE_DSN" envDefault:"file:login.db?cache=shared&mode=rwc"`

	// Session tokens
	SigningKey        string   `env:"LOGIN_SIGNING_KEY,required"`
	TokenExpiration   int      `env:"LOGIN_TOKEN_EXPIRATION_HOURS" envDefault:"24"`
	ExtendedDuration  int      `env:"LOGIN_EXTENDED_TOKEN_HOURS" envDefault:"720"`
	Issuer            string   `env:"LOGIN_TOKEN_ISSUER" envDefault:"login-example"`
	Audience          []string `env:"LOGIN_TOKEN_AUDIENCE" envSeparator:"," envDefault:"login-example"`
	ContextKey        string   `env:"LOGIN_CONTEXT_KEY" envDefault:"session"`
	RejectedRouteKey  string   `env:"LOGIN_REJECTED_ROUTE_KEY" envDefault:"rejected_route"`
	RejectedRoutePath string   `env:"LOGIN_REJECTED_ROUTE_DEFAULT" envDefault:"/dashboard"`

	// One-time keys
	KeySecret               string `env:"LOGIN_KEY_SECRET,required"`
	VerifyKeyThreshold      string `env:"LOGIN_VERIFY_KEY_THRESHOLD" envDefault:"24h"`
	ResetKeyThreshold       string `env:"LOGIN_RESET_KEY_THRESHOLD" envDefault:"6h"`
	LoginChangeKeyThreshold string `env:"LOGIN_CHANGE_KEY_THRESHOLD" envDefault:"24h"`
	DeterministicAccountIDs bool   `env:"LOGIN_DETERMINISTIC_ACCOUNT_IDS" envDefault:"false"`

	// Mail
	SMTPHost       string `env:"LOGIN_SMTP_HOST"`
	SMTPUser       string `env:"LOGIN_SMTP_USER"`
	SMTPPass       string `env:"LOGIN_SMTP_PASS"`
	MailAddress    string `env:"LOGIN_MAIL_ADDRESS" envDefault:"Login Example <noreply@localhost>"`
	SMTPSkipVerify bool   `env:"LOGIN_SMTP_SKIP_VERIFY" envDefault:"false"`

	// Google OAuth; social login stays disabled while these are empty
	GoogleClientID     string `env:"LOGIN_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"LOGIN_GOOGLE_CLIENT_SECRET"`
	OAuthStateTTL      string `env:"LOGIN_OAUTH_STATE_TTL" envDefault:"10m"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// The getters below satisfy the auth package's Config surface.

func (c *Config) GetSigningKey() string              { return c.SigningKey }
func (c *Config) GetContextKey() string              { return c.ContextKey }
func (c *Config) GetTokenExpiration() int            { return c.TokenExpiration }
func (c *Config) GetExtendedTokenDuration() int      { return c.ExtendedDuration }
func (c *Config) GetIssuer() string                  { return c.Issuer }
func (c *Config) GetAudience() []string              { return c.Audience }
func (c *Config) GetRejectedRouteKey() string        { return c.RejectedRouteKey }
func (c *Config) GetRejectedRouteDefault() string    { return c.RejectedRoutePath }
func (c *Config) GetVerifyKeyThreshold() string      { return c.VerifyKeyThreshold }
func (c *Config) GetResetKeyThreshold() string       { return c.ResetKeyThreshold }
func (c *Config) GetLoginChangeKeyThreshold() string { return c.LoginChangeKeyThreshold }

// GoogleEnabled reports whether Google social login is configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// GoogleCallbackURL is where Google redirects after consent.
func (c *Config) GoogleCallbackURL() string {
	return c.BaseURL + "/auth/google/callback"
}
