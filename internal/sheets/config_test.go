package sheets

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		errMsg  string
		config  Config
		wantErr bool
	}{
		{
			name: "service account",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				RequestsPerMinute:  60,
			},
		},
		{
			name: "oauth with refresh token",
			config: Config{
				ClientID:          "client",
				ClientSecret:      "secret",
				RefreshToken:      "token",
				RequestsPerMinute: 60,
			},
		},
		{
			name: "oauth with token file",
			config: Config{
				ClientID:          "client",
				ClientSecret:      "secret",
				TokenFile:         "/tmp/token.json",
				RequestsPerMinute: 60,
			},
		},
		{
			name: "partial oauth credentials",
			config: Config{
				ClientID:          "test-client",
				RefreshToken:      "test-token",
				RequestsPerMinute: 60,
			},
			wantErr: true,
			errMsg:  "no authentication method configured",
		},
		{
			name: "both methods",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				ClientID:           "client",
				ClientSecret:       "secret",
				RefreshToken:       "token",
				RequestsPerMinute:  60,
			},
			wantErr: true,
			errMsg:  "multiple authentication methods",
		},
		{
			name: "zero rate",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
			},
			wantErr: true,
			errMsg:  "requests per minute must be positive",
		},
		{
			name: "negative timeout",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				RequestsPerMinute:  60,
				Timeout:            -time.Second,
			},
			wantErr: true,
			errMsg:  "timeout cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, 60, config.RequestsPerMinute)
	assert.Equal(t, 30*time.Second, config.Timeout)
	assert.Equal(t, 8080, config.CallbackPort)
}

func TestLoadFromEnv(t *testing.T) {
	envVars := []string{
		"GOOGLE_SHEETS_CLIENT_ID",
		"GOOGLE_SHEETS_CLIENT_SECRET",
		"GOOGLE_SHEETS_REFRESH_TOKEN",
		"GOOGLE_SHEETS_TOKEN_FILE",
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH",
		"GOOGLE_SHEETS_REQUESTS_PER_MINUTE",
	}

	tests := []struct {
		envVars map[string]string
		check   func(t *testing.T, c *Config)
		name    string
		wantErr bool
	}{
		{
			name: "oauth credentials",
			envVars: map[string]string{
				"GOOGLE_SHEETS_CLIENT_ID":     "test-client",
				"GOOGLE_SHEETS_CLIENT_SECRET": "test-secret",
				"GOOGLE_SHEETS_REFRESH_TOKEN": "test-token",
			},
			check: func(t *testing.T, c *Config) {
				t.Helper()
				assert.Equal(t, "test-client", c.ClientID)
				assert.Equal(t, "test-secret", c.ClientSecret)
				assert.Equal(t, "test-token", c.RefreshToken)
				assert.Equal(t, 60, c.RequestsPerMinute)
			},
		},
		{
			name: "service account path and rate",
			envVars: map[string]string{
				"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH": "/path/to/key.json",
				"GOOGLE_SHEETS_REQUESTS_PER_MINUTE":  "30",
			},
			check: func(t *testing.T, c *Config) {
				t.Helper()
				assert.Equal(t, "/path/to/key.json", c.ServiceAccountPath)
				assert.Equal(t, 30, c.RequestsPerMinute)
			},
		},
		{
			name: "bad rate",
			envVars: map[string]string{
				"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH": "/path/to/key.json",
				"GOOGLE_SHEETS_REQUESTS_PER_MINUTE":  "lots",
			},
			wantErr: true,
		},
		{
			name:    "missing credentials",
			envVars: map[string]string{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range envVars {
				t.Setenv(key, "")
				_ = os.Unsetenv(key)
			}
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			config := DefaultConfig()
			err := config.LoadFromEnv()

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			if tt.check != nil {
				tt.check(t, &config)
			}
		})
	}
}
