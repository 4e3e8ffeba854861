package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/service"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsLedger appends each submission as one row of a Google Sheet.
type SheetsLedger struct {
	service *sheets.Service
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
	config  SheetsConfig
}

// NewSheetsLedger creates a Sheets-backed ledger. When opts is empty the
// service authenticates with the configured service account or refresh token.
func NewSheetsLedger(ctx context.Context, config SheetsConfig, logger *slog.Logger, opts ...option.ClientOption) (*SheetsLedger, error) {
	if len(opts) == 0 {
		if err := config.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		httpOpt, err := authOption(ctx, config)
		if err != nil {
			return nil, err
		}
		opts = []option.ClientOption{httpOpt}
	} else if config.SpreadsheetID == "" || config.Range == "" {
		return nil, fmt.Errorf("%w: spreadsheet id and range", common.ErrMissingConfig)
	}

	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return &SheetsLedger{
		service: srv,
		logger:  common.LoggerOrDefault(logger),
		now:     time.Now,
		newID:   uuid.NewString,
		config:  config,
	}, nil
}

// authOption builds an authenticated HTTP client from the config.
func authOption(ctx context.Context, config SheetsConfig) (option.ClientOption, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}
		tokenSource = oauthConfig(config.ClientID, config.ClientSecret, "").TokenSource(ctx, token)
	}

	return option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)), nil
}

// Submit implements service.Ledger.
func (s *SheetsLedger) Submit(ctx context.Context, candidate model.Candidate, tag string) (*service.Receipt, error) {
	requestID := s.newID()
	submittedAt := s.now()
	payload := NewRequest(candidate, tag, submittedAt)

	valueRange := &sheets.ValueRange{
		Values: [][]any{payload.Row()},
	}

	resp, err := s.service.Spreadsheets.Values.Append(s.config.SpreadsheetID, s.config.Range, valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return nil, &RejectedError{
				RequestID:  requestID,
				Status:     "error",
				Detail:     apiErr.Message,
				HTTPStatus: apiErr.Code,
			}
		}
		return nil, &TransportError{RequestID: requestID, Op: "append row", Err: err}
	}

	if resp.Updates == nil || resp.Updates.UpdatedRows < 1 {
		return nil, &RejectedError{
			RequestID:  requestID,
			Status:     "no rows updated",
			HTTPStatus: resp.HTTPStatusCode,
		}
	}

	s.logger.Info("appended ledger row",
		"request_id", requestID,
		"message_id", candidate.ID,
		"range", resp.Updates.UpdatedRange)

	return &service.Receipt{
		SubmittedAt: submittedAt,
		RequestID:   requestID,
		Status:      statusSuccess,
	}, nil
}
