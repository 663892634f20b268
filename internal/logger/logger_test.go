package logger

import (
    "bytes"
    "encoding/json"
    "os"
    "path/filepath"
    "strings"
    "testing"

    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"
)

func TestInitWritesServiceField(t *testing.T) {
    var buf bytes.Buffer
    if err := Init(Options{Level: "debug", Console: &buf}); err != nil {
        t.Fatalf("init: %v", err)
    }
    defer Close()
    log.Info().Str("job_id", "j1").Msg("hello")

    var ev map[string]any
    if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &ev); err != nil {
        t.Fatalf("decode %q: %v", buf.String(), err)
    }
    if ev["service"] != "pdfclean" || ev["job_id"] != "j1" || ev["message"] != "hello" {
        t.Fatalf("unexpected event %v", ev)
    }
}

func TestInitLevelFilter(t *testing.T) {
    var buf bytes.Buffer
    if err := Init(Options{Level: "warn", Console: &buf}); err != nil {
        t.Fatalf("init: %v", err)
    }
    defer Close()
    log.Info().Msg("quiet")
    log.Warn().Msg("loud")
    out := buf.String()
    if strings.Contains(out, "quiet") || !strings.Contains(out, "loud") {
        t.Fatalf("level filter not applied: %q", out)
    }
}

func TestInitBadLevelDefaultsToInfo(t *testing.T) {
    var buf bytes.Buffer
    if err := Init(Options{Level: "chatty", Console: &buf}); err != nil {
        t.Fatalf("init: %v", err)
    }
    defer Close()
    log.Debug().Msg("hidden")
    log.Info().Msg("shown")
    if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
        t.Fatalf("got %q", buf.String())
    }
}

func TestInitWritesRotatedFile(t *testing.T) {
    path := filepath.Join(t.TempDir(), "logs", "app.log")
    var buf bytes.Buffer
    if err := Init(Options{Console: &buf, File: &Rotation{Path: path, MaxSizeMB: 1}}); err != nil {
        t.Fatalf("init: %v", err)
    }
    defer Close()
    log.Info().Msg("to file")
    b, err := os.ReadFile(path)
    if err != nil {
        t.Fatalf("read log: %v", err)
    }
    if !strings.Contains(string(b), "to file") {
        t.Fatalf("file = %q", b)
    }
}

func TestAxiomSinkSkipsDebug(t *testing.T) {
    s := &axiomSink{kick: make(chan struct{}, 1)}
    s.WriteLevel(zerolog.DebugLevel, []byte(`{"message":"noise"}`))
    s.WriteLevel(zerolog.WarnLevel, []byte(`{"message":"kept"}`))
    s.WriteLevel(zerolog.InfoLevel, []byte("not json"))
    if len(s.pending) != 2 {
        t.Fatalf("pending = %v", s.pending)
    }
    if s.pending[0]["message"] != "kept" || s.pending[1]["message"] != "not json" {
        t.Fatalf("pending = %v", s.pending)
    }
}
