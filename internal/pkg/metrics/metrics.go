// Package metrics exposes Prometheus metrics for the tip engine.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics carries the engine's counters and gauges on a private registry so
// tests can create throwaway instances without collector name collisions.
type Metrics struct {
	registry *prometheus.Registry

	CyclesTotal       prometheus.Counter
	CycleDuration     prometheus.Histogram
	LiveEventsSeen    prometheus.Counter
	ProfilesBuilt     prometheus.Counter
	ProfileVetoes     prometheus.Counter
	RulesFired        prometheus.Counter
	TipsEmitted       *prometheus.CounterVec
	TipsSettled       *prometheus.CounterVec
	PendingTips       prometheus.Gauge
	FeedErrors        *prometheus.CounterVec
	NotifyErrors      prometheus.Counter
	BaselineRefreshes prometheus.Counter
}

// New builds the metric set on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		CyclesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "tipster_cycles_total",
			Help: "Completed live analysis cycles",
		}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tipster_cycle_duration_seconds",
			Help:    "Wall time of one live analysis cycle",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		LiveEventsSeen: factory.NewCounter(prometheus.CounterOpts{
			Name: "tipster_live_events_total",
			Help: "Live events received from the feed",
		}),
		ProfilesBuilt: factory.NewCounter(prometheus.CounterOpts{
			Name: "tipster_profiles_built_total",
			Help: "Player form profiles computed",
		}),
		ProfileVetoes: factory.NewCounter(prometheus.CounterOpts{
			Name: "tipster_profile_vetoes_total",
			Help: "Profiles refused by insufficient data or a cooling regime",
		}),
		RulesFired: factory.NewCounter(prometheus.CounterOpts{
			Name: "tipster_rules_fired_total",
			Help: "Strategy rules that fired before admission filtering",
		}),
		TipsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tipster_tips_emitted_total",
			Help: "Tips admitted and sent",
		}, []string{"format"}),
		TipsSettled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tipster_tips_settled_total",
			Help: "Tips settled by outcome",
		}, []string{"status"}),
		PendingTips: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tipster_tips_pending",
			Help: "Tips currently awaiting reconciliation",
		}),
		FeedErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tipster_feed_errors_total",
			Help: "Upstream feed failures after retries",
		}, []string{"feed"}),
		NotifyErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "tipster_notify_errors_total",
			Help: "Notification deliveries dropped after retries",
		}),
		BaselineRefreshes: factory.NewCounter(prometheus.CounterOpts{
			Name: "tipster_baseline_refreshes_total",
			Help: "League baseline recomputations that produced a change",
		}),
	}
}

// Handler serves the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve runs the metrics/health HTTP endpoint until ctx is cancelled.
// An empty addr disables the server.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("metrics server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
