package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Veraticus/posko/internal/cli"
	"github.com/Veraticus/posko/internal/config"
	"github.com/Veraticus/posko/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with external services",
	}

	cmd.AddCommand(authSheetsCmd())

	return cmd
}

func authSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Authenticate with Google Sheets",
		Long: `Authenticate with Google Sheets using OAuth2.

This command will:
1. Open a local callback server and print the consent URL
2. Exchange the returned code for a token
3. Save the token to the token file for future runs

Service-account setups do not need this.`,
		RunE: runAuthSheets,
	}

	cmd.Flags().String("client-id", "", "OAuth2 Client ID (overrides config)")
	cmd.Flags().String("client-secret", "", "OAuth2 Client Secret (overrides config)")
	cmd.Flags().Int("port", 0, "local callback port (default 8080)")
	cmd.Flags().Bool("force", false, "authenticate again even if a token is saved")

	return cmd
}

func runAuthSheets(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	v := viper.GetViper()

	clientID := v.GetString("sheets.client_id")
	clientSecret := v.GetString("sheets.client_secret")

	// Override with flags if provided
	if flagID, _ := cmd.Flags().GetString("client-id"); flagID != "" {
		clientID = flagID
	}
	if flagSecret, _ := cmd.Flags().GetString("client-secret"); flagSecret != "" {
		clientSecret = flagSecret
	}

	// Check for environment variables as fallback
	if clientID == "" {
		clientID = os.Getenv("GOOGLE_SHEETS_CLIENT_ID")
	}
	if clientSecret == "" {
		clientSecret = os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")
	}

	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("OAuth2 credentials not found. Please set sheets.client_id and sheets.client_secret in config or use --client-id and --client-secret flags")
	}

	port := v.GetInt("sheets.callback_port")
	if flagPort, _ := cmd.Flags().GetInt("port"); flagPort > 0 {
		port = flagPort
	}
	if port == 0 {
		port = sheets.DefaultConfig().CallbackPort
	}

	tokenFile := config.TokenFile(v)
	if tokenFile == "" {
		return fmt.Errorf("could not determine token file location; set sheets.token_file")
	}

	oauthCfg := sheets.OAuth2Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenFile:    tokenFile,
		CallbackPort: port,
	}

	slog.Info("Starting Google Sheets authentication", "token_file", tokenFile)

	force, _ := cmd.Flags().GetBool("force")
	if force {
		_, err := sheets.AuthenticateOAuth2Interactive(ctx, oauthCfg)
		if err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
	} else if _, err := sheets.GetOrCreateToken(ctx, oauthCfg); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Google Sheets token saved to "+tokenFile))
	return nil
}
