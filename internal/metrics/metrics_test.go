package metrics

import (
    "net/http/httptest"
    "strings"
    "testing"
    "time"
)

func scrape(t *testing.T) string {
    t.Helper()
    rec := httptest.NewRecorder()
    Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
    return rec.Body.String()
}

func TestCollectorsExposed(t *testing.T) {
    Init()
    Init() // second registration is a no-op

    IncPage("keep", "")
    IncPage("drop", "landscape")
    IncCropFallback()
    ObserveRun("no_valid_pages", 150*time.Millisecond)
    ObserveUpload("s3://docs", "success", time.Second)
    BreakerOpened("https://up.example")

    body := scrape(t)
    for _, want := range []string{
        `pdfclean_pages_classified_total{decision="keep",reason="none"}`,
        `pdfclean_pages_classified_total{decision="drop",reason="landscape"}`,
        `pdfclean_crop_fallbacks_total`,
        `pdfclean_runs_total{result="no_valid_pages"}`,
        `pdfclean_run_duration_seconds_count`,
        `pdfclean_upload_attempts_total{result="success",strategy="s3://docs"}`,
        `pdfclean_breaker_events_total{action="opened",endpoint="https://up.example"}`,
    } {
        if !strings.Contains(body, want) {
            t.Errorf("metrics output missing %s", want)
        }
    }
}
