package orchestrator

import (
    "context"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    "github.com/google/uuid"
    "github.com/rs/zerolog/log"

    "github.com/local/pdfclean/internal/assembler"
    mpkg "github.com/local/pdfclean/internal/metrics"
    "github.com/local/pdfclean/internal/pagefilter"
    "github.com/local/pdfclean/internal/pdfdoc"
    "github.com/local/pdfclean/internal/upload"
)

// Document is an opened input that is classified, rewritten and saved.
type Document interface {
    pagefilter.Source
    assembler.Target
    Save(path string, opts pdfdoc.SaveOptions) error
    Close() error
}

// Opener opens the document at a local path.
type Opener func(path string) (Document, error)

// OpenPDF opens path with pdfcpu.
func OpenPDF(path string) (Document, error) { return pdfdoc.Open(path) }

// Uploader publishes a cleaned file; *upload.Chain satisfies it.
type Uploader interface {
    Upload(ctx context.Context, path string) (upload.Result, error)
}

// Previewer renders a thumbnail of a cleaned file.
type Previewer interface {
    Render(pdfPath, outPath string) error
}

// PDFChecker verifies an input is a PDF by content.
type PDFChecker interface {
    IsPDF(path string) (bool, error)
}

// CleanOptions are the fixed per-process settings of the cleaner.
type CleanOptions struct {
    Compaction int
    Deflate    bool
    TempDir    string
}

// Cleaner runs clean operations. Each run is synchronous and single-threaded.
type Cleaner struct {
    Open        Opener
    Fetch       *Fetcher
    Check       PDFChecker
    Uploader    Uploader
    Previewer   Previewer
    PreviewPath func(pdfPath string) string
    Options     CleanOptions
}

// Request is one clean invocation.
type Request struct {
    InputPath  string
    OutputPath string // empty: generated under Options.TempDir
    Upload     bool
    Preview    bool
    JobID      string
}

// Clean removes landscape and ad-saturated pages from the input, crops banner
// strips from the rest and writes the result. It always returns exactly one
// outcome; failures never leave a partial file at the output path.
func (c *Cleaner) Clean(ctx context.Context, req Request) Report {
    start := time.Now()
    if req.JobID == "" { req.JobID = uuid.NewString() }
    l := log.With().Str("job_id", req.JobID).Str("input", req.InputPath).Logger()

    rep, err := c.run(ctx, req)
    if err != nil {
        rep = failureReport(req.InputPath, err).withCounts(rep)
        l.Error().Err(err).Str("result", runResult(err)).Msg("clean failed")
    } else {
        l.Info().
            Str("output", rep.OutputPath).
            Str("link", rep.Link).
            Int("dropped", rep.DroppedPages).
            Int("kept", rep.KeptPages).
            Msg("clean finished")
    }
    if n := CleanupTemps(staleTempAge, c.tempDirs()...); n > 0 {
        l.Debug().Int("removed", n).Msg("stale temp files removed")
    }
    rep.JobID = req.JobID
    rep.DurationMS = time.Since(start).Milliseconds()
    mpkg.ObserveRun(runResult(err), time.Since(start))
    return rep
}

// staleTempAge is how old a leftover download or save temp must be before
// a later run removes it.
const staleTempAge = time.Hour

func (c *Cleaner) tempDirs() []string {
    dirs := []string{os.TempDir()}
    if c.Options.TempDir != "" && c.Options.TempDir != os.TempDir() {
        dirs = append(dirs, c.Options.TempDir)
    }
    return dirs
}

func (r Report) withCounts(from Report) Report {
    r.DroppedPages, r.KeptPages, r.TotalPages = from.DroppedPages, from.KeptPages, from.TotalPages
    return r
}

func (c *Cleaner) run(ctx context.Context, req Request) (rep Report, err error) {
    fetch := c.Fetch
    if fetch == nil { fetch = &Fetcher{} }
    input, cleanup, err := fetch.Resolve(ctx, req.InputPath)
    if err != nil { return rep, err }
    defer cleanup()

    if c.Check != nil {
        ok, err := c.Check.IsPDF(input)
        if err != nil { return rep, &ProcessingError{Stage: "detect", Err: err} }
        if !ok { return rep, &ProcessingError{Stage: "detect", Err: ErrNotPDF} }
    }

    output := req.OutputPath
    if output == "" {
        dir := c.Options.TempDir
        if dir == "" { dir = os.TempDir() }
        output = TempOutputPath(dir, req.InputPath)
    }

    stage := "open"
    defer func() {
        if p := recover(); p != nil {
            err = &ProcessingError{Stage: stage, Err: fmt.Errorf("panic: %v", p)}
        }
    }()

    open := c.Open
    if open == nil { open = OpenPDF }
    doc, err := open(input)
    if err != nil { return rep, &ProcessingError{Stage: stage, Err: err} }
    defer doc.Close()

    stage = "classify"
    cls, err := pagefilter.Classify(doc)
    rep.TotalPages, rep.KeptPages, rep.DroppedPages = cls.Total, len(cls.Kept), cls.Dropped
    for _, v := range cls.Verdicts {
        mpkg.IncPage(v.Decision.String(), string(v.Reason))
        if v.Decision == pagefilter.Drop {
            log.Debug().Str("job_id", req.JobID).Int("page", v.Page).Str("reason", string(v.Reason)).Float64("coverage", v.Coverage).Msg("page dropped")
        }
    }
    if errors.Is(err, pagefilter.ErrNoValidPages) { return rep, err }
    if err != nil { return rep, &ProcessingError{Stage: stage, Err: err} }
    log.Info().Str("job_id", req.JobID).Int("total", cls.Total).Int("kept", len(cls.Kept)).Int("dropped", cls.Dropped).Msg("pages classified")

    stage = "assemble"
    res, err := assembler.Assemble(doc, doc, cls)
    if err != nil { return rep, &ProcessingError{Stage: stage, Err: err} }
    for _, p := range res.Pages {
        if p.Fallback { mpkg.IncCropFallback() }
    }

    stage = "write"
    if err := doc.Save(output, pdfdoc.SaveOptions{Compaction: c.Options.Compaction, Deflate: c.Options.Deflate}); err != nil {
        // leftovers of earlier interrupted saves into the same directory
        CleanupTemps(staleTempAge, filepath.Dir(output))
        return rep, &ProcessingError{Stage: stage, Err: err}
    }
    log.Debug().Str("job_id", req.JobID).Str("output", output).Msg("clean PDF written")

    previewPath := ""
    if req.Preview && c.Previewer != nil {
        pathFor := c.PreviewPath
        if pathFor == nil { pathFor = func(p string) string { return p + ".preview.jpg" } }
        p := pathFor(output)
        if err := c.Previewer.Render(output, p); err != nil {
            log.Warn().Err(err).Str("job_id", req.JobID).Msg("preview failed")
        } else {
            previewPath = p
        }
    }

    link := ""
    if req.Upload && c.Uploader != nil {
        up, err := c.Uploader.Upload(ctx, output)
        if err != nil {
            log.Warn().Err(err).Str("job_id", req.JobID).Str("output", output).Msg("upload failed, reporting local path")
        } else {
            link = up.Link
            log.Info().Str("job_id", req.JobID).Str("strategy", up.Strategy).Msg("uploaded clean PDF")
        }
    }

    out := successReport(output, link, res.Dropped)
    out.TotalPages, out.KeptPages = rep.TotalPages, rep.KeptPages
    out.PreviewPath = previewPath
    return out, nil
}
