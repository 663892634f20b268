package metrics

import (
    "net/http"
    "sync"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
    pagesClassified = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pdfclean",
            Name:      "pages_classified_total",
            Help:      "Pages classified by decision and reason",
        },
        []string{"decision", "reason"},
    )

    cropFallbacks = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "pdfclean",
            Name:      "crop_fallbacks_total",
            Help:      "Kept pages whose banner crop fell below the safety threshold",
        },
    )

    runsTotal = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pdfclean",
            Name:      "runs_total",
            Help:      "Clean runs by result (success, no_valid_pages, not_found, error)",
        },
        []string{"result"},
    )

    runDuration = prometheus.NewHistogram(
        prometheus.HistogramOpts{
            Namespace: "pdfclean",
            Name:      "run_duration_seconds",
            Help:      "Duration of clean runs",
            Buckets:   prometheus.DefBuckets,
        },
    )

    uploadAttempts = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pdfclean",
            Name:      "upload_attempts_total",
            Help:      "Upload attempts by strategy and result",
        },
        []string{"strategy", "result"},
    )

    uploadLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "pdfclean",
            Name:      "upload_duration_seconds",
            Help:      "Duration of upload attempts by strategy",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"strategy"},
    )

    breakerEvents = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pdfclean",
            Name:      "breaker_events_total",
            Help:      "Circuit breaker events by endpoint and action",
        },
        []string{"endpoint", "action"},
    )
)

var once sync.Once

// Init registers collectors. Safe to call more than once.
func Init() {
    once.Do(func() {
        prometheus.MustRegister(pagesClassified, cropFallbacks, runsTotal, runDuration, uploadAttempts, uploadLatency, breakerEvents)
    })
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func IncPage(decision, reason string) {
    if reason == "" { reason = "none" }
    pagesClassified.WithLabelValues(decision, reason).Inc()
}

func IncCropFallback() { cropFallbacks.Inc() }

func ObserveRun(result string, dur time.Duration) {
    runsTotal.WithLabelValues(result).Inc()
    runDuration.Observe(dur.Seconds())
}

func ObserveUpload(strategy, result string, dur time.Duration) {
    uploadAttempts.WithLabelValues(strategy, result).Inc()
    uploadLatency.WithLabelValues(strategy).Observe(dur.Seconds())
}

func BreakerOpened(endpoint string) { breakerEvents.WithLabelValues(endpoint, "opened").Inc() }
func BreakerClosed(endpoint string) { breakerEvents.WithLabelValues(endpoint, "closed").Inc() }
