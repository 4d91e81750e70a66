package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/FranksOps/scholartrend/internal/trend"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	YearsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholartrend_years_total",
			Help: "Total number of years counted, by outcome",
		},
		[]string{"fetcher", "outcome"},
	)

	YearDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scholartrend_year_duration_seconds",
			Help:    "Time spent fetching and parsing one year",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"fetcher"},
	)

	YearResults = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scholartrend_year_results",
			Help: "Result count reported for the most recent run of each year",
		},
		[]string{"year"},
	)

	EntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholartrend_entries_total",
			Help: "Total number of result entries scraped",
		},
		[]string{"fetcher"},
	)
)

// OutcomeOK labels a healthy year; degraded years use their failure kind.
const OutcomeOK = "ok"

// RecordYear updates the metrics for one counted year.
func RecordYear(fetcher string, r trend.YearResult) {
	outcome := OutcomeOK
	if r.Degraded() {
		outcome = string(r.Kind())
	}

	YearsTotal.WithLabelValues(fetcher, outcome).Inc()
	YearDuration.WithLabelValues(fetcher).Observe(r.Elapsed.Seconds())
	EntriesTotal.WithLabelValues(fetcher).Add(float64(len(r.Entries)))
	if !r.Degraded() {
		YearResults.WithLabelValues(strconv.Itoa(r.Year)).Set(float64(r.TotalCount))
	}
}

// Observer returns a trend.Config.OnYear callback recording every year.
func Observer(fetcher string) func(trend.YearResult) {
	return func(r trend.YearResult) { RecordYear(fetcher, r) }
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on the specified port and exposes /metrics.
func Start(port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "port", port, "err", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
