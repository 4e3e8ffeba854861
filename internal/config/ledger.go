package config

import (
	"os"
	"strconv"
	"time"

	"github.com/Veraticus/smsledger/internal/ledger"
	"github.com/spf13/viper"
)

// LoadLedgerConfig loads the reconciliation client configuration from Viper
// and environment variables.
// It follows this precedence:
// 1. Viper configuration (from config file or SMSLEDGER_ env vars)
// 2. Direct environment variables (SMSLEDGER_LEDGER_*, GOOGLE_SHEETS_*)
// 3. Default values
func LoadLedgerConfig() (*ledger.Config, error) {
	config := ledger.DefaultConfig()

	if v := viper.GetString("ledger.backend"); v != "" {
		config.Backend = v
	} else if v := os.Getenv("SMSLEDGER_LEDGER_BACKEND"); v != "" {
		config.Backend = v
	}

	if v := viper.GetString("ledger.endpoint"); v != "" {
		config.Endpoint = v
	} else {
		config.Endpoint = os.Getenv("SMSLEDGER_LEDGER_ENDPOINT")
	}

	if viper.IsSet("ledger.timeout") {
		config.Timeout = viper.GetDuration("ledger.timeout")
	} else if v := os.Getenv("SMSLEDGER_LEDGER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Timeout = d
		}
	}

	if viper.IsSet("ledger.rate_per_minute") {
		config.RatePerMinute = viper.GetInt("ledger.rate_per_minute")
	} else if v := os.Getenv("SMSLEDGER_LEDGER_RATE_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.RatePerMinute = n
		}
	}

	loadSheetsConfig(&config.Sheets)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func loadSheetsConfig(sc *ledger.SheetsConfig) {
	if v := viper.GetString("sheets.service_account_path"); v != "" {
		sc.ServiceAccountPath = ExpandPath(v)
	}
	if v := viper.GetString("sheets.client_id"); v != "" {
		sc.ClientID = v
	}
	if v := viper.GetString("sheets.client_secret"); v != "" {
		sc.ClientSecret = v
	}
	if v := viper.GetString("sheets.refresh_token"); v != "" {
		sc.RefreshToken = v
	}
	if v := viper.GetString("sheets.spreadsheet_id"); v != "" {
		sc.SpreadsheetID = v
	}
	if v := viper.GetString("sheets.range"); v != "" {
		sc.Range = v
	}

	if sc.ServiceAccountPath == "" {
		if v := os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH"); v != "" {
			sc.ServiceAccountPath = ExpandPath(v)
		}
	}
	if sc.ClientID == "" {
		sc.ClientID = os.Getenv("GOOGLE_SHEETS_CLIENT_ID")
	}
	if sc.ClientSecret == "" {
		sc.ClientSecret = os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")
	}
	if sc.RefreshToken == "" {
		sc.RefreshToken = os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN")
	}
	if sc.SpreadsheetID == "" {
		sc.SpreadsheetID = os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID")
	}
}
