package config

import (
	"os"
	"path/filepath"

	"github.com/Veraticus/posko/internal/sheets"
	"github.com/spf13/viper"
)

// LoadSheetsConfig loads Google Sheets credentials. It follows this precedence:
// 1. Viper configuration (from config file or POSKO_ env vars)
// 2. Direct environment variables (GOOGLE_SHEETS_*)
// 3. Default values
func LoadSheetsConfig(v *viper.Viper) (*sheets.Config, error) {
	config := sheets.DefaultConfig()

	if s := v.GetString("sheets.service_account_path"); s != "" {
		config.ServiceAccountPath = ExpandPath(s)
	}
	if s := v.GetString("sheets.client_id"); s != "" {
		config.ClientID = s
	}
	if s := v.GetString("sheets.client_secret"); s != "" {
		config.ClientSecret = s
	}
	if s := v.GetString("sheets.refresh_token"); s != "" {
		config.RefreshToken = s
	}
	if n := v.GetInt("sheets.requests_per_minute"); n > 0 {
		config.RequestsPerMinute = n
	}
	if d := v.GetDuration("sheets.timeout"); d > 0 {
		config.Timeout = d
	}
	if n := v.GetInt("sheets.callback_port"); n > 0 {
		config.CallbackPort = n
	}

	if config.ServiceAccountPath == "" {
		if s := os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH"); s != "" {
			config.ServiceAccountPath = ExpandPath(s)
		}
	}
	if config.ClientID == "" {
		config.ClientID = os.Getenv("GOOGLE_SHEETS_CLIENT_ID")
	}
	if config.ClientSecret == "" {
		config.ClientSecret = os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")
	}
	if config.RefreshToken == "" {
		config.RefreshToken = os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN")
	}

	// OAuth clients without an inline refresh token use the token saved by
	// `posko auth sheets`.
	if config.ServiceAccountPath == "" && config.RefreshToken == "" {
		config.TokenFile = TokenFile(v)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// TokenFile returns where the interactive OAuth flow stores its token.
func TokenFile(v *viper.Viper) string {
	if s := v.GetString("sheets.token_file"); s != "" {
		return ExpandPath(s)
	}
	if s := os.Getenv("GOOGLE_SHEETS_TOKEN_FILE"); s != "" {
		return ExpandPath(s)
	}
	dir, err := Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "sheets-token.json")
}
