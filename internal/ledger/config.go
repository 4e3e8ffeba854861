// Package ledger submits annotated transaction candidates to the remote ledger.
//
// Two backends are available: a JSON webhook (such as a Google Apps Script web
// app in front of a spreadsheet) and the Google Sheets API directly. Both make
// exactly one attempt per submission and never claim success without seeing
// the ledger's acknowledgement.
package ledger

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Veraticus/smsledger/internal/common"
)

// Backend names.
const (
	BackendWebhook = "webhook"
	BackendSheets  = "sheets"
)

// DefaultTimeout bounds a single submission.
const DefaultTimeout = 30 * time.Second

// Config holds the configuration for the reconciliation client.
type Config struct {
	Backend       string
	Endpoint      string
	Sheets        SheetsConfig
	Timeout       time.Duration
	RatePerMinute int
}

// SheetsConfig configures the Google Sheets backend.
type SheetsConfig struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	SpreadsheetID      string
	Range              string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend: BackendWebhook,
		Timeout: DefaultTimeout,
		Sheets: SheetsConfig{
			Range: "Ledger!A:D",
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", common.ErrInvalidConfig)
	}
	if c.RatePerMinute < 0 {
		return fmt.Errorf("%w: rate per minute cannot be negative", common.ErrInvalidConfig)
	}

	switch strings.ToLower(c.Backend) {
	case BackendWebhook:
		if c.Endpoint == "" {
			return fmt.Errorf("%w: ledger endpoint", common.ErrMissingConfig)
		}
		u, err := url.Parse(c.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: ledger endpoint must be an http(s) URL", common.ErrInvalidConfig)
		}
	case BackendSheets:
		return c.Sheets.Validate()
	default:
		return fmt.Errorf("%w: unknown ledger backend %q", common.ErrInvalidConfig, c.Backend)
	}
	return nil
}

// Validate checks the Sheets backend settings.
func (c *SheetsConfig) Validate() error {
	hasOAuth := c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
	hasServiceAccount := c.ServiceAccountPath != ""

	if !hasOAuth && !hasServiceAccount {
		return fmt.Errorf("%w: no sheets authentication method configured", common.ErrMissingConfig)
	}
	if hasOAuth && hasServiceAccount {
		return fmt.Errorf("%w: multiple authentication methods configured; use either OAuth2 or service account", common.ErrInvalidConfig)
	}
	if c.SpreadsheetID == "" {
		return fmt.Errorf("%w: spreadsheet id", common.ErrMissingConfig)
	}
	if c.Range == "" {
		return fmt.Errorf("%w: sheet range", common.ErrMissingConfig)
	}
	return nil
}
