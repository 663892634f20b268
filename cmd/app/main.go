package main

import (
    "context"
    "flag"
    "fmt"
    "io"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/rs/zerolog/log"

    cfgpkg "github.com/local/pdfclean/internal/config"
    logpkg "github.com/local/pdfclean/internal/logger"
    mpkg "github.com/local/pdfclean/internal/metrics"
    "github.com/local/pdfclean/internal/orchestrator"
)

const usage = `usage:
  app clean -in <path|url|s3://bucket/key> [-out <path>] [-upload] [-preview] [-json]
  app serve`

func main() {
    if len(os.Args) < 2 {
        fmt.Fprintln(os.Stderr, usage)
        os.Exit(2)
    }
    _ = cfgpkg.LoadDotEnv()
    cfg := cfgpkg.FromEnv()

    logOpts := logpkg.Options{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty}
    if cfg.Logging.File != "" {
        logOpts.File = &logpkg.Rotation{
            Path:       cfg.Logging.File,
            MaxSizeMB:  cfg.Logging.MaxSizeMB,
            MaxBackups: cfg.Logging.MaxBackups,
            MaxAgeDays: cfg.Logging.MaxAgeDays,
            Compress:   cfg.Logging.Compress,
        }
    }
    if cfg.Axiom.Send && cfg.Axiom.APIKey != "" {
        logOpts.Axiom = &logpkg.Axiom{
            Token:   cfg.Axiom.APIKey,
            OrgID:   cfg.Axiom.OrgID,
            Dataset: cfg.Axiom.Dataset,
            Flush:   cfg.Axiom.FlushInterval,
        }
    }
    _ = logpkg.Init(logOpts)
    mpkg.Init()

    var code int
    switch os.Args[1] {
    case "clean":
        code = runClean(cfg, os.Args[2:], os.Stdout)
    case "serve":
        code = runServe(cfg)
    default:
        fmt.Fprintln(os.Stderr, usage)
        code = 2
    }
    logpkg.Close()
    os.Exit(code)
}

// runClean performs one clean and prints its outcome line (or JSON report).
// Exit code 0 on success, 1 otherwise.
func runClean(cfg cfgpkg.Config, args []string, stdout io.Writer) int {
    fs := flag.NewFlagSet("clean", flag.ContinueOnError)
    in := fs.String("in", "", "input PDF path, http(s) URL or s3:// reference")
    out := fs.String("out", "", "output path (default: generated in CLEAN_TEMP_DIR)")
    doUpload := fs.Bool("upload", cfg.Upload.Enabled, "upload the result and report a link")
    doPreview := fs.Bool("preview", cfg.Clean.Preview, "render a first-page preview next to the output")
    asJSON := fs.Bool("json", false, "print the report as JSON")
    if err := fs.Parse(args); err != nil { return 2 }
    if *in == "" && fs.NArg() > 0 { *in = fs.Arg(0) }
    if *in == "" {
        fmt.Fprintln(os.Stderr, usage)
        return 2
    }

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()
    a := build(ctx, cfg)
    defer a.Close()

    rep := a.cleaner.Clean(ctx, orchestrator.Request{InputPath: *in, OutputPath: *out, Upload: *doUpload, Preview: *doPreview})
    if *asJSON {
        fmt.Fprintln(stdout, string(rep.JSON()))
    } else {
        fmt.Fprintln(stdout, rep.String())
    }
    if !rep.Success { return 1 }
    return 0
}

func runServe(cfg cfgpkg.Config) int {
    a := build(context.Background(), cfg)
    defer a.Close()

    orch := orchestrator.New(orchestrator.Dependencies{
        Cleaner:          a.cleaner,
        Status:           a.status,
        Health:           a.health,
        Metrics:          mpkg.Handler(),
        UploadDir:        cfg.HTTP.UploadDir,
        ResultDir:        cfg.HTTP.ResultDir,
        Username:         cfg.HTTP.APIUsername,
        PasswordHash:     cfg.HTTP.APIPasswordHash,
        MaxInflight:      cfg.HTTP.MaxInflight,
        AllowRemoteInput: cfg.HTTP.AllowRemoteInput,
    })
    mux := http.NewServeMux()
    orch.RegisterRoutes(mux)

    srv := &http.Server{Addr: ":" + cfg.HTTP.Port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
    errCh := make(chan error, 1)
    go func() {
        log.Info().Msgf("HTTP server listening on :%s", cfg.HTTP.Port)
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            errCh <- err
        }
    }()

    stop := make(chan os.Signal, 1)
    signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
    select {
    case <-stop:
    case err := <-errCh:
        log.Error().Err(err).Msg("http server error")
        return 1
    }
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    _ = srv.Shutdown(ctx)
    log.Info().Msg("shutdown complete")
    return 0
}
