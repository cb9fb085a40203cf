package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/Veraticus/posko/internal/common"
	"github.com/Veraticus/posko/internal/model"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Reader fetches worksheet values as raw string rows.
type Reader struct {
	service *sheets.Service
	limiter *rate.Limiter
	logger  *slog.Logger
	config  Config
}

// NewReader creates a Google Sheets reader. Credential problems are reported
// as common.ErrAuthentication.
func NewReader(ctx context.Context, config Config, logger *slog.Logger) (*Reader, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	service, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return newReader(service, config, logger), nil
}

func newReader(service *sheets.Service, config Config, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	burst := min(config.RequestsPerMinute, 10)
	return &Reader{
		service: service,
		limiter: rate.NewLimiter(rate.Limit(float64(config.RequestsPerMinute)/60), max(burst, 1)),
		logger:  logger,
		config:  config,
	}
}

// createSheetsService creates a read-only Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("%w: unable to read service account key file: %w", common.ErrAuthentication, err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("%w: unable to parse service account key: %w", common.ErrAuthentication, err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := OAuth2Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			CallbackPort: config.CallbackPort,
		}.oauthConfig()

		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}
		if token.RefreshToken == "" {
			saved, err := LoadToken(config.TokenFile)
			if err != nil {
				return nil, fmt.Errorf("%w: no refresh token; run `posko auth sheets`: %w", common.ErrAuthentication, err)
			}
			token = saved
		}

		tokenSource = client.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// Fetch implements pipeline.Fetcher for sheets sources. An empty worksheet
// selects the first sheet of the spreadsheet.
func (r *Reader) Fetch(ctx context.Context, src model.Source) (model.RawSheet, error) {
	if src.SpreadsheetID == "" {
		return model.RawSheet{}, fmt.Errorf("source %q has no spreadsheet id", src.ID)
	}

	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	title := src.Worksheet
	if title == "" {
		first, err := r.firstWorksheet(ctx, src.SpreadsheetID)
		if err != nil {
			return model.RawSheet{}, err
		}
		title = first
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return model.RawSheet{}, err
	}

	resp, err := r.service.Spreadsheets.Values.Get(src.SpreadsheetID, quoteSheetName(title)).
		ValueRenderOption("FORMATTED_VALUE").
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return model.RawSheet{}, classifyError(fmt.Errorf("failed to read %s/%s: %w", src.SpreadsheetID, title, err))
	}

	sheet := ToRawSheet(resp.Values)
	sheet.SourceLabel = src.Label

	r.logger.Debug("read worksheet",
		"source", src.ID,
		"worksheet", title,
		"rows", sheet.Len())

	return sheet, nil
}

func (r *Reader) firstWorksheet(ctx context.Context, spreadsheetID string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}

	ss, err := r.service.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return "", classifyError(fmt.Errorf("failed to get spreadsheet %s: %w", spreadsheetID, err))
	}
	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
		return "", fmt.Errorf("spreadsheet %s has no worksheets", spreadsheetID)
	}

	return ss.Sheets[0].Properties.Title, nil
}

// ToRawSheet turns a values response into a header and string rows.
func ToRawSheet(values [][]any) model.RawSheet {
	rows := make([][]string, len(values))
	for i, raw := range values {
		row := make([]string, len(raw))
		for j, cell := range raw {
			row[j] = cellString(cell)
		}
		rows[i] = row
	}
	return model.SheetFromRows(rows)
}

func cellString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(c)
	default:
		return fmt.Sprint(c)
	}
}

// quoteSheetName builds an A1 range selecting a whole worksheet.
func quoteSheetName(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// classifyError marks credential and permission failures as
// common.ErrAuthentication. Quota errors stay recoverable.
func classifyError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %w", common.ErrAuthentication, err)
		case http.StatusForbidden:
			for _, item := range apiErr.Errors {
				if strings.Contains(item.Reason, "RateLimitExceeded") || strings.Contains(item.Reason, "rateLimitExceeded") {
					return err
				}
			}
			return fmt.Errorf("%w: %w", common.ErrAuthentication, err)
		}
		return err
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %w", common.ErrAuthentication, err)
	}

	return err
}

