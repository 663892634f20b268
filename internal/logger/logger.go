package logger

import (
    "context"
    "encoding/json"
    "fmt"
    "io"
    "os"
    "path/filepath"
    "sync"
    "time"

    "github.com/axiomhq/axiom-go/axiom"
    "github.com/axiomhq/axiom-go/axiom/ingest"
    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"
    lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

const service = "pdfclean"

// Rotation describes the rotated log file.
type Rotation struct {
    Path       string
    MaxSizeMB  int
    MaxBackups int
    MaxAgeDays int
    Compress   bool
}

// Axiom enables forwarding of info and above to an Axiom dataset.
type Axiom struct {
    Token   string
    OrgID   string
    Dataset string
    Flush   time.Duration
}

// Options for Init. Nil File or Axiom disables that output.
type Options struct {
    Level  string
    Pretty bool
    // Console defaults to stderr so the CLI keeps stdout for its outcome line.
    Console io.Writer
    File    *Rotation
    Axiom   *Axiom
}

var (
    mu     sync.Mutex
    global zerolog.Logger
    sink   *axiomSink
)

// Init replaces the global zerolog logger. Calling it again closes any
// previous Axiom sink.
func Init(opts Options) error {
    mu.Lock()
    defer mu.Unlock()

    var outs []io.Writer
    if r := opts.File; r != nil && r.Path != "" {
        if err := os.MkdirAll(filepath.Dir(r.Path), 0o755); err != nil {
            return fmt.Errorf("log dir %s: %w", filepath.Dir(r.Path), err)
        }
        outs = append(outs, &lumberjack.Logger{
            Filename: r.Path, MaxSize: r.MaxSizeMB, MaxBackups: r.MaxBackups,
            MaxAge: r.MaxAgeDays, Compress: r.Compress,
        })
    }
    console := opts.Console
    if console == nil { console = os.Stderr }
    if opts.Pretty {
        console = zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339}
    }
    outs = append(outs, console)

    if sink != nil {
        sink.stop()
        sink = nil
    }
    if a := opts.Axiom; a != nil && a.Token != "" {
        s, err := startAxiom(*a)
        if err != nil {
            fmt.Fprintf(os.Stderr, "axiom forwarding off: %v\n", err)
        } else {
            sink = s
            outs = append(outs, s)
        }
    }

    level := zerolog.InfoLevel
    if l, err := zerolog.ParseLevel(opts.Level); err == nil && opts.Level != "" {
        level = l
    }
    zerolog.TimeFieldFormat = time.RFC3339
    global = zerolog.New(zerolog.MultiLevelWriter(outs...)).Level(level).
        With().Timestamp().Str("service", service).Logger()
    log.Logger = global
    return nil
}

// Close flushes pending Axiom events.
func Close() {
    mu.Lock()
    defer mu.Unlock()
    if sink != nil {
        sink.stop()
        sink = nil
    }
}

// Get returns the global logger.
func Get() *zerolog.Logger { return &global }

const batchSize = 200

// axiomSink buffers events and ingests them every flush interval or once
// batchSize are pending. It is a zerolog.LevelWriter.
type axiomSink struct {
    client  *axiom.Client
    dataset string

    mu      sync.Mutex
    pending []axiom.Event
    kick    chan struct{}
    done    chan struct{}
    exited  chan struct{}
}

func startAxiom(a Axiom) (*axiomSink, error) {
    opts := []axiom.Option{axiom.SetToken(a.Token)}
    if a.OrgID != "" { opts = append(opts, axiom.SetOrganizationID(a.OrgID)) }
    client, err := axiom.NewClient(opts...)
    if err != nil { return nil, err }

    s := &axiomSink{
        client:  client,
        dataset: a.Dataset,
        kick:    make(chan struct{}, 1),
        done:    make(chan struct{}),
        exited:  make(chan struct{}),
    }
    if s.dataset == "" { s.dataset = "dev_" + service }
    every := a.Flush
    if every <= 0 { every = 10 * time.Second }
    go s.run(every)
    return s, nil
}

func (s *axiomSink) Write(p []byte) (int, error) { return s.WriteLevel(zerolog.InfoLevel, p) }

func (s *axiomSink) WriteLevel(l zerolog.Level, p []byte) (int, error) {
    if l < zerolog.InfoLevel { return len(p), nil }
    ev := axiom.Event{}
    if json.Unmarshal(p, &ev) != nil {
        ev = axiom.Event{"message": string(p), "level": l.String()}
    }
    if _, ok := ev[ingest.TimestampField]; !ok {
        ev[ingest.TimestampField] = time.Now()
    }

    s.mu.Lock()
    // Drop when ingest is far behind rather than grow without bound.
    if len(s.pending) < 5*batchSize {
        s.pending = append(s.pending, ev)
    }
    full := len(s.pending) >= batchSize
    s.mu.Unlock()
    if full {
        select {
        case s.kick <- struct{}{}:
        default:
        }
    }
    return len(p), nil
}

func (s *axiomSink) run(every time.Duration) {
    defer close(s.exited)
    t := time.NewTicker(every)
    defer t.Stop()
    for {
        select {
        case <-s.done:
            s.ingest()
            return
        case <-t.C:
        case <-s.kick:
        }
        s.ingest()
    }
}

func (s *axiomSink) ingest() {
    s.mu.Lock()
    events := s.pending
    s.pending = nil
    s.mu.Unlock()
    if len(events) == 0 { return }

    ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
    defer cancel()
    if _, err := s.client.IngestEvents(ctx, s.dataset, events); err != nil {
        fmt.Fprintf(os.Stderr, "axiom ingest of %d events: %v\n", len(events), err)
    }
}

func (s *axiomSink) stop() {
    close(s.done)
    <-s.exited
}
