package main

import (
    "context"
    "net/http"
    "strings"
    "time"

    redis "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog/log"

    cfgpkg "github.com/local/pdfclean/internal/config"
    "github.com/local/pdfclean/internal/breaker"
    "github.com/local/pdfclean/internal/filetype"
    "github.com/local/pdfclean/internal/orchestrator"
    "github.com/local/pdfclean/internal/preview"
    "github.com/local/pdfclean/internal/statuscheck"
    "github.com/local/pdfclean/internal/storage"
    "github.com/local/pdfclean/internal/store"
    "github.com/local/pdfclean/internal/upload"
)

// statusTTL bounds how long finished job statuses stay in Redis.
const statusTTL = 24 * time.Hour

// app holds the process-wide collaborators built from configuration.
type app struct {
    cfg     cfgpkg.Config
    redis   *redis.Client
    s3      *storage.S3Client
    cleaner *orchestrator.Cleaner
    status  orchestrator.StatusStore
    health  *statuscheck.Checker
}

// build wires optional Redis and S3 first; a missing or unreachable backend
// disables the components that depend on it instead of failing the run.
func build(ctx context.Context, cfg cfgpkg.Config) *app {
    a := &app{cfg: cfg, status: orchestrator.NewMemoryStatus()}

    if cfg.Redis.URL != "" {
        rc, err := store.Connect(ctx, cfg.Redis.URL)
        if err != nil {
            log.Warn().Err(err).Msg("redis unavailable, using in-memory status and no upload breaker")
        } else {
            a.redis = rc
            a.status = orchestrator.NewStatusAdapter(store.NewRedisStatus(rc, statusTTL))
        }
    }

    s3cfg := cfg.Upload.S3
    if s3cfg.Bucket != "" {
        c, err := storage.NewS3Client(ctx, storage.Options{
            Bucket:       s3cfg.Bucket,
            Region:       s3cfg.Region,
            Endpoint:     s3cfg.Endpoint,
            AccessKey:    s3cfg.AccessKey,
            SecretKey:    s3cfg.SecretKey,
            UsePathStyle: s3cfg.UsePathStyle,
        })
        if err != nil {
            log.Warn().Err(err).Msg("s3 client init failed")
        } else {
            a.s3 = c
        }
    }

    var objects upload.ObjectStore
    if a.s3 != nil { objects = a.s3 }
    var uploader orchestrator.Uploader
    if strategies := buildStrategies(cfg.Upload, objects); len(strategies) > 0 {
        var cb upload.Breaker
        if a.redis != nil {
            cb = breaker.NewRedis(a.redis, cfg.Redis.BreakerBaseBackoff, cfg.Redis.BreakerMaxBackoff)
        }
        uploader = upload.NewChain(cfg.Upload.Timeout, cb, strategies...)
    }

    fetch := &orchestrator.Fetcher{Client: &http.Client{Timeout: 2 * time.Minute}}
    if a.s3 != nil { fetch.S3 = a.s3 }

    a.cleaner = &orchestrator.Cleaner{
        Open:        orchestrator.OpenPDF,
        Fetch:       fetch,
        Check:       filetype.New(),
        Uploader:    uploader,
        Previewer:   preview.New(),
        PreviewPath: preview.PathFor,
        Options: orchestrator.CleanOptions{
            Compaction: cfg.Clean.Compaction,
            Deflate:    cfg.Clean.Deflate,
            TempDir:    cfg.Clean.TempDir,
        },
    }

    opts := statuscheck.Options{Endpoints: cfg.Upload.HTTPEndpoints}
    if a.redis != nil { opts.Redis = redisPinger{a.redis} }
    if a.s3 != nil { opts.S3 = a.s3 }
    a.health = statuscheck.New(opts)
    return a
}

// buildStrategies follows UPLOAD_ORDER; "http" expands to one strategy per
// configured endpoint. Unknown names and unconfigured backends are skipped.
func buildStrategies(cfg cfgpkg.UploadConfig, s3c upload.ObjectStore) []upload.Strategy {
    var out []upload.Strategy
    for _, name := range cfg.Order {
        switch strings.ToLower(name) {
        case "s3":
            if s3c == nil { continue }
            out = append(out, &upload.S3Strategy{Store: s3c, Prefix: cfg.S3.Prefix, LinkTTL: cfg.S3.LinkTTL})
        case "http":
            for _, ep := range cfg.HTTPEndpoints {
                out = append(out, upload.NewHTTPStrategy(ep, cfg.HTTPField))
            }
        default:
            log.Warn().Str("strategy", name).Msg("unknown upload strategy ignored")
        }
    }
    return out
}

type redisPinger struct{ c *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.c.Ping(ctx).Err() }

func (a *app) Close() {
    if a.redis != nil { _ = a.redis.Close() }
}
