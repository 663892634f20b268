package statuscheck

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "net/url"
    "sync"
    "time"

    "github.com/gen2brain/go-fitz"
)

// RedisPinger is satisfied by the job status store.
type RedisPinger interface {
    Ping(ctx context.Context) error
}

// BucketHeader checks bucket reachability; *storage.S3Client satisfies it.
type BucketHeader interface {
    HeadBucket(ctx context.Context) error
}

// Options lists what the Checker probes. Nil Redis or S3 means the
// dependency is not configured.
type Options struct {
    Redis      RedisPinger
    S3         BucketHeader
    Endpoints  []string
    HTTPClient *http.Client
}

// Status is the result of one probe.
type Status struct {
    OK      bool   `json:"ok"`
    Message string `json:"message"`
}

// Summary is the readiness of every dependency of a clean run.
type Summary struct {
    Redis     Status            `json:"redis"`
    S3        Status            `json:"s3"`
    Endpoints map[string]Status `json:"upload_endpoints,omitempty"`
    MuPDF     Status            `json:"mupdf"`
}

const notConfigured = "not configured"

// OK is false when MuPDF or a configured Redis/S3 fails. Upload endpoints
// are informational: the chain falls back to the local result.
func (s Summary) OK() bool {
    for _, st := range []Status{s.MuPDF, s.Redis, s.S3} {
        if !st.OK && st.Message != notConfigured { return false }
    }
    return true
}

// Checker probes the dependencies of the clean pipeline.
type Checker struct {
    opts   Options
    client *http.Client
    mupdf  func() error
}

func New(opts Options) *Checker {
    c := &Checker{opts: opts, client: opts.HTTPClient, mupdf: openMinimalPDF}
    if c.client == nil { c.client = &http.Client{Timeout: 5 * time.Second} }
    return c
}

// Summary runs all probes concurrently.
func (c *Checker) Summary(ctx context.Context) Summary {
    var (
        s  Summary
        mu sync.Mutex
        wg sync.WaitGroup
    )
    run := func(fn func()) {
        wg.Add(1)
        go func() { defer wg.Done(); fn() }()
    }

    if c.opts.Redis == nil {
        s.Redis = Status{Message: notConfigured}
    } else {
        run(func() { s.Redis = probe(ctx, 2*time.Second, "Connected", c.opts.Redis.Ping) })
    }
    if c.opts.S3 == nil {
        s.S3 = Status{Message: notConfigured}
    } else {
        run(func() { s.S3 = probe(ctx, 5*time.Second, "Connected", c.opts.S3.HeadBucket) })
    }
    run(func() {
        s.MuPDF = probe(ctx, 0, "Available", func(context.Context) error { return c.mupdf() })
    })
    if len(c.opts.Endpoints) > 0 {
        s.Endpoints = make(map[string]Status, len(c.opts.Endpoints))
        for _, e := range c.opts.Endpoints {
            e := e
            run(func() {
                st := c.endpoint(ctx, e)
                mu.Lock()
                s.Endpoints[endpointKey(e)] = st
                mu.Unlock()
            })
        }
    }
    wg.Wait()
    return s
}

func probe(ctx context.Context, timeout time.Duration, okMsg string, fn func(context.Context) error) Status {
    if timeout > 0 {
        var cancel context.CancelFunc
        ctx, cancel = context.WithTimeout(ctx, timeout)
        defer cancel()
    }
    if err := fn(ctx); err != nil {
        return Status{Message: shortError(err)}
    }
    return Status{OK: true, Message: okMsg}
}

// endpointKey drops query, fragment and userinfo from an endpoint URL.
func endpointKey(endpoint string) string {
    u, err := url.Parse(endpoint)
    if err != nil || u.Host == "" { return endpoint }
    return u.Scheme + "://" + u.Host + u.Path
}

// endpoint HEADs the host root; upload paths rarely accept HEAD.
func (c *Checker) endpoint(ctx context.Context, endpoint string) Status {
    u, err := url.Parse(endpoint)
    if err != nil || u.Host == "" {
        return Status{Message: "invalid URL"}
    }
    var code int
    st := probe(ctx, 0, "Reachable", func(ctx context.Context) error {
        req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.Scheme+"://"+u.Host+"/", nil)
        if err != nil { return err }
        resp, err := c.client.Do(req)
        if err != nil { return err }
        resp.Body.Close()
        code = resp.StatusCode
        return nil
    })
    if st.OK && code >= 500 {
        return Status{Message: fmt.Sprintf("HTTP %d", code)}
    }
    return st
}

// onePagePDF is the smallest document MuPDF accepts.
const onePagePDF = "%PDF-1.1\n1 0 obj<</Type/Catalog/Pages 2 0 R>>endobj\n" +
    "2 0 obj<</Type/Pages/Kids[3 0 R]/Count 1>>endobj\n" +
    "3 0 obj<</Type/Page/Parent 2 0 R/MediaBox[0 0 10 10]>>endobj\n" +
    "trailer<</Root 1 0 R>>\n%%EOF\n"

func openMinimalPDF() error {
    doc, err := fitz.NewFromMemory([]byte(onePagePDF))
    if err != nil { return fmt.Errorf("mupdf: %w", err) }
    defer doc.Close()
    if n := doc.NumPage(); n != 1 {
        return fmt.Errorf("mupdf: got %d pages, want 1", n)
    }
    return nil
}

func shortError(err error) string {
    var te interface{ Timeout() bool }
    switch {
    case errors.Is(err, context.DeadlineExceeded), errors.As(err, &te) && te.Timeout():
        return "timeout"
    }
    msg := err.Error()
    if len(msg) > 120 { msg = msg[:120] }
    return msg
}
