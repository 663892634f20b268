package config

import (
    "os"
    "path/filepath"
    "reflect"
    "testing"
    "time"
)

func TestFromEnvDefaults(t *testing.T) {
    for _, k := range []string{"CLEAN_COMPACTION", "CLEAN_DEFLATE", "UPLOAD_ORDER", "UPLOAD_TIMEOUT", "REDIS_URL", "PORT", "LOG_FILE"} {
        t.Setenv(k, "")
    }
    cfg := FromEnv()
    if cfg.Clean.Compaction != 0 || !cfg.Clean.Deflate {
        t.Fatalf("clean = %+v", cfg.Clean)
    }
    if !reflect.DeepEqual(cfg.Upload.Order, []string{"s3", "http"}) {
        t.Fatalf("order = %v", cfg.Upload.Order)
    }
    if cfg.Upload.Timeout != 60*time.Second || cfg.Upload.S3.LinkTTL != 168*time.Hour {
        t.Fatalf("upload = %+v", cfg.Upload)
    }
    if cfg.Redis.URL != "" || cfg.HTTP.Port != "8080" || cfg.Logging.File != "logs/pdfclean.log" {
        t.Fatalf("cfg = %+v", cfg)
    }
}

func TestFromEnvOverrides(t *testing.T) {
    t.Setenv("CLEAN_COMPACTION", "9")
    t.Setenv("CLEAN_DEFLATE", "off")
    t.Setenv("UPLOAD_ORDER", " http , s3 ,")
    t.Setenv("UPLOAD_HTTP_ENDPOINTS", "https://a.example/up,https://b.example/up")
    t.Setenv("UPLOAD_TIMEOUT", "bogus")
    cfg := FromEnv()
    if cfg.Clean.Compaction != 4 {
        t.Errorf("compaction = %d, want clamp to 4", cfg.Clean.Compaction)
    }
    if cfg.Clean.Deflate {
        t.Error("deflate should be off")
    }
    if !reflect.DeepEqual(cfg.Upload.Order, []string{"http", "s3"}) {
        t.Errorf("order = %v", cfg.Upload.Order)
    }
    if len(cfg.Upload.HTTPEndpoints) != 2 {
        t.Errorf("endpoints = %v", cfg.Upload.HTTPEndpoints)
    }
    if cfg.Upload.Timeout != 60*time.Second {
        t.Errorf("timeout = %v, want default on parse error", cfg.Upload.Timeout)
    }
}

func TestLoadDotEnv(t *testing.T) {
    dir := t.TempDir()
    p := filepath.Join(dir, "test.env")
    if err := os.WriteFile(p, []byte("PDFCLEAN_TEST_KEY=from-file\n"), 0o644); err != nil {
        t.Fatal(err)
    }
    t.Setenv("PDFCLEAN_TEST_KEY", "")
    os.Unsetenv("PDFCLEAN_TEST_KEY")
    if err := LoadDotEnv(p, filepath.Join(dir, "missing.env")); err != nil {
        t.Fatal(err)
    }
    if got := os.Getenv("PDFCLEAN_TEST_KEY"); got != "from-file" {
        t.Fatalf("got %q", got)
    }
}
