package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/service"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// maxResponseBytes caps how much of a webhook response is read.
const maxResponseBytes = 64 << 10

// RequestIDHeader carries the per-submission correlation id.
const RequestIDHeader = "X-Request-Id"

// WebhookLedger posts submissions to a JSON webhook.
type WebhookLedger struct {
	client   *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
	endpoint string
}

// NewWebhookLedger creates a webhook client. A nil httpClient gets one bounded
// by config.Timeout.
func NewWebhookLedger(config Config, httpClient *http.Client, logger *slog.Logger) (*WebhookLedger, error) {
	if config.Backend == "" {
		config.Backend = BackendWebhook
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	return &WebhookLedger{
		client:   httpClient,
		limiter:  newLimiter(config.RatePerMinute),
		logger:   common.LoggerOrDefault(logger),
		now:      time.Now,
		newID:    uuid.NewString,
		endpoint: config.Endpoint,
	}, nil
}

// newLimiter returns nil when submissions are unlimited.
func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

// Submit implements service.Ledger.
func (w *WebhookLedger) Submit(ctx context.Context, candidate model.Candidate, tag string) (*service.Receipt, error) {
	requestID := w.newID()
	logger := w.logger.With("request_id", requestID, "message_id", candidate.ID)

	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{RequestID: requestID, Op: "rate limit wait", Err: err}
		}
	}

	submittedAt := w.now()
	body, err := json.Marshal(NewRequest(candidate, tag, submittedAt))
	if err != nil {
		return nil, &TransportError{RequestID: requestID, Op: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{RequestID: requestID, Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	logger.Debug("submitting to ledger", "type", candidate.Type, "amount", candidate.Amount)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, &TransportError{RequestID: requestID, Op: "post", Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Debug("failed to close response body", "error", closeErr)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{RequestID: requestID, Op: "read response", Err: err, HTTPStatus: resp.StatusCode}
	}

	var decoded response
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, &TransportError{
			RequestID:  requestID,
			Op:         "decode response",
			Err:        errors.Join(errors.New("response is not a JSON object"), err),
			HTTPStatus: resp.StatusCode,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || decoded.Status != statusSuccess {
		logger.Info("ledger rejected submission", "http_status", resp.StatusCode, "status", decoded.Status)
		return nil, &RejectedError{
			RequestID:  requestID,
			Status:     decoded.Status,
			Detail:     decoded.Message,
			HTTPStatus: resp.StatusCode,
		}
	}

	logger.Info("ledger accepted submission")
	return &service.Receipt{
		SubmittedAt: submittedAt,
		RequestID:   requestID,
		Status:      decoded.Status,
	}, nil
}
