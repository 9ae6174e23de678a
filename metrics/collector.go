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

	"github.com/soocke/sliceview/domain/geometry"
)

// Collector records SliceView telemetry on its own registry. A nil
// *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	reconcileTotal  *prometheus.CounterVec
	handoffTotal    *prometheus.CounterVec
	sessionsOpen    prometheus.Gauge
	framesTotal     prometheus.Counter
	metadataWait    prometheus.Histogram
	slicesOpen      prometheus.Gauge
	enumerateErrors prometheus.Counter
}

// NewCollector registers the SliceView metrics on a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Collector{
		registry: reg,
		reconcileTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sliceview_reconcile_total",
			Help: "Selections resolved, by reconciler mode",
		}, []string{"mode"}),
		handoffTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sliceview_handoff_messages_total",
			Help: "Handoff messages delivered between windows, by kind",
		}, []string{"kind"}),
		sessionsOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "sliceview_capture_sessions_open",
			Help: "Capture sessions currently holding a stream",
		}),
		framesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "sliceview_capture_frames_total",
			Help: "Frames captured across all sessions",
		}),
		metadataWait: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "sliceview_metadata_wait_seconds",
			Help:    "Time from open to first frame metadata",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 3, 5},
		}),
		slicesOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "sliceview_slices_open",
			Help: "Slice windows currently open",
		}),
		enumerateErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "sliceview_enumeration_errors_total",
			Help: "Source listings that failed",
		}),
	}
}

func (c *Collector) SessionOpened() {
	if c == nil {
		return
	}
	c.sessionsOpen.Inc()
}

func (c *Collector) SessionClosed() {
	if c == nil {
		return
	}
	c.sessionsOpen.Dec()
}

func (c *Collector) FrameCaptured() {
	if c == nil {
		return
	}
	c.framesTotal.Inc()
}

func (c *Collector) MetadataWait(d time.Duration) {
	if c == nil {
		return
	}
	c.metadataWait.Observe(d.Seconds())
}

// Reconciled counts one resolved selection.
func (c *Collector) Reconciled(mode geometry.Mode) {
	if c == nil {
		return
	}
	c.reconcileTotal.WithLabelValues(mode.String()).Inc()
}

// Handoff counts one delivered message.
func (c *Collector) Handoff(kind string) {
	if c == nil {
		return
	}
	c.handoffTotal.WithLabelValues(kind).Inc()
}

// SlicesOpen sets the open slice gauge.
func (c *Collector) SlicesOpen(n int) {
	if c == nil {
		return
	}
	c.slicesOpen.Set(float64(n))
}

func (c *Collector) EnumerationFailed() {
	if c == nil {
		return
	}
	c.enumerateErrors.Inc()
}

// Registry exposes the underlying registry for tests and exporters.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done. An empty addr disables it.
func (c *Collector) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	if c == nil || addr == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger.Info("metrics endpoint listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
