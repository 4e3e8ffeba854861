// Package metrics exposes Prometheus counters for the reconciliation pipeline.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prune outcome labels.
const (
	PruneDeleted = "deleted"
	PruneFailed  = "failed"
)

// Recorder holds the pipeline metrics. All metrics are prefixed with
// "smsledger_". A nil *Recorder records nothing.
//
// Metrics:
//   - smsledger_messages_scanned_total - messages read from the store
//   - smsledger_candidates_extracted_total{type} - candidates found by the extractor
//   - smsledger_reconciliations_total{outcome} - ledger submissions by outcome
//   - smsledger_submit_duration_seconds - ledger round trip time
//   - smsledger_prunes_total{outcome} - source deletions after reconciliation
type Recorder struct {
	registry        *prometheus.Registry
	messagesScanned prometheus.Counter
	candidates      *prometheus.CounterVec
	reconciliations *prometheus.CounterVec
	submitDuration  prometheus.Histogram
	prunes          *prometheus.CounterVec
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		messagesScanned: factory.NewCounter(prometheus.CounterOpts{
			Name: "smsledger_messages_scanned_total",
			Help: "Total number of messages read from the message store",
		}),
		candidates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smsledger_candidates_extracted_total",
			Help: "Total number of transaction candidates extracted",
		}, []string{"type"}),
		reconciliations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smsledger_reconciliations_total",
			Help: "Total number of ledger submissions by outcome",
		}, []string{"outcome"}),
		submitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "smsledger_submit_duration_seconds",
			Help:    "Duration of ledger submissions in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}),
		prunes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smsledger_prunes_total",
			Help: "Total number of source message deletions by outcome",
		}, []string{"outcome"}),
	}
}

// Registry returns the registry backing the recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RecordScan records one fetch-and-extract pass.
func (r *Recorder) RecordScan(messages int, candidates []model.Candidate) {
	if r == nil {
		return
	}
	r.messagesScanned.Add(float64(messages))
	for _, c := range candidates {
		r.candidates.WithLabelValues(string(c.Type)).Inc()
	}
}

// RecordReconciliation records one ledger submission.
func (r *Recorder) RecordReconciliation(outcome model.ReconciliationOutcome, took time.Duration) {
	if r == nil {
		return
	}
	r.reconciliations.WithLabelValues(string(outcome)).Inc()
	r.submitDuration.Observe(took.Seconds())
}

// RecordPrune records one source deletion attempt.
func (r *Recorder) RecordPrune(err error) {
	if r == nil {
		return
	}
	outcome := PruneDeleted
	if err != nil {
		outcome = PruneFailed
	}
	r.prunes.WithLabelValues(outcome).Inc()
}

// Handler serves the recorder's metrics plus Go runtime collectors.
func (r *Recorder) Handler() http.Handler {
	reg := r.registry
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			slog.Debug("go collector not registered", "error", err)
		}
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
