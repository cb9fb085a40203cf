// Package sheets reads posko report sheets through the Google Sheets API.
package sheets

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the configuration for the Google Sheets reader.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	TokenFile          string
	ServiceAccountPath string
	// RequestsPerMinute caps read calls; the Sheets API quota is per user
	// per minute.
	RequestsPerMinute int
	Timeout           time.Duration
	CallbackPort      int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		Timeout:           30 * time.Second,
		CallbackPort:      8080,
	}
}

// LoadFromEnv loads the configuration from environment variables.
func (c *Config) LoadFromEnv() error {
	// OAuth2 credentials
	c.ClientID = os.Getenv("GOOGLE_SHEETS_CLIENT_ID")
	c.ClientSecret = os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")
	c.RefreshToken = os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN")
	c.TokenFile = os.Getenv("GOOGLE_SHEETS_TOKEN_FILE")

	// Service account path (alternative to OAuth2)
	c.ServiceAccountPath = os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH")

	if v := os.Getenv("GOOGLE_SHEETS_REQUESTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid GOOGLE_SHEETS_REQUESTS_PER_MINUTE %q: %w", v, err)
		}
		c.RequestsPerMinute = n
	}

	if !c.hasServiceAccount() && !c.hasOAuth() {
		return fmt.Errorf("missing Google Sheets authentication: provide either service account path or OAuth2 credentials")
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	hasOAuth := c.hasOAuth()
	hasServiceAccount := c.hasServiceAccount()

	if !hasOAuth && !hasServiceAccount {
		return fmt.Errorf("no authentication method configured")
	}

	if hasOAuth && hasServiceAccount {
		return fmt.Errorf("multiple authentication methods configured; use either OAuth2 or service account")
	}

	if c.RequestsPerMinute <= 0 {
		return fmt.Errorf("requests per minute must be positive")
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}

	return nil
}

func (c *Config) hasServiceAccount() bool {
	return c.ServiceAccountPath != ""
}

// hasOAuth accepts either an inline refresh token or a token file written by
// the interactive flow.
func (c *Config) hasOAuth() bool {
	return c.ClientID != "" && c.ClientSecret != "" && (c.RefreshToken != "" || c.TokenFile != "")
}
