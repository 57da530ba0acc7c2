// Package metrics holds the Prometheus collectors shared by the client core
// and an optional listener that exposes them.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	// ConnectionDials counts push channel dial attempts.
	ConnectionDials = promauto.NewCounter(prometheus.CounterOpts{
		Name: "multiverse_connection_dials_total",
		Help: "Push channel dial attempts",
	})

	// ConnectionTransitions counts state changes by target state.
	ConnectionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "multiverse_connection_transitions_total",
		Help: "Push channel state transitions by target state",
	}, []string{"state"})

	// MessagesReceived counts inbound push channel messages.
	MessagesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "multiverse_messages_received_total",
		Help: "Inbound push channel messages",
	})

	// MessagesDisplaced counts buffered messages overwritten by a newer one
	// before a handler attached.
	MessagesDisplaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "multiverse_messages_displaced_total",
		Help: "Buffered messages replaced before a handler attached",
	})

	// Snapshots counts snapshot applications by result.
	Snapshots = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "multiverse_snapshots_total",
		Help: "Snapshots handled by result",
	}, []string{"result"})

	// ConfirmedUniverses reports the size of the confirmed subset.
	ConfirmedUniverses = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "multiverse_confirmed_universes",
		Help: "Universes in the confirmed subset",
	})

	// EditableUniverses reports the size of the editable subset.
	EditableUniverses = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "multiverse_editable_universes",
		Help: "Universes in the editable subset",
	})

	// Requests counts outbound API requests by operation and result.
	Requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "multiverse_requests_total",
		Help: "Outbound API requests by operation and result",
	}, []string{"operation", "result"})

	// RequestDuration tracks outbound API latency.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "multiverse_request_duration_seconds",
		Help:    "Outbound API request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 11), // 5ms to ~5s
	}, []string{"operation"})
)

// Result labels.
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultRejected = "rejected"
)

// ResultLabel maps an error to a result label.
func ResultLabel(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

// Serve exposes /metrics on addr until ctx is cancelled. An empty addr
// disables the listener and returns immediately.
func Serve(ctx context.Context, addr string, log logrus.FieldLogger) error {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", addr).Info("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
