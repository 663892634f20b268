package orchestrator

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "os"
    "path/filepath"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/rs/zerolog/log"
    "golang.org/x/crypto/bcrypt"

    "github.com/local/pdfclean/internal/limiter"
    "github.com/local/pdfclean/internal/statuscheck"
)

// HealthChecker reports dependency readiness; *statuscheck.Checker satisfies it.
type HealthChecker interface {
    Summary(ctx context.Context) statuscheck.Summary
}

type Dependencies struct {
    Cleaner   *Cleaner
    Status    StatusStore
    Health    HealthChecker
    Metrics   http.Handler
    UploadDir string
    ResultDir string
    // Basic auth for /clean and /clean_upload; disabled when either is empty.
    Username     string
    PasswordHash string
    MaxInflight  int
    // AllowRemoteInput lets /clean fetch http(s) input URLs.
    AllowRemoteInput bool
}

type Orchestrator struct {
    deps  Dependencies
    slots *limiter.Slots
}

func New(deps Dependencies) *Orchestrator {
    if deps.Status == nil { deps.Status = NewMemoryStatus() }
    return &Orchestrator{deps: deps, slots: limiter.New(deps.MaxInflight)}
}

func (o *Orchestrator) RegisterRoutes(mux *http.ServeMux) {
    mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request){ w.WriteHeader(http.StatusOK); _,_ = w.Write([]byte("ok")) })
    mux.HandleFunc("/health/deps", o.handleHealthDeps)
    if o.deps.Metrics != nil { mux.Handle("/metrics", o.deps.Metrics) }
    mux.HandleFunc("/clean", o.requireAuth(o.limit(o.handleClean)))
    mux.HandleFunc("/clean_upload", o.requireAuth(o.limit(o.handleCleanUpload)))
    mux.HandleFunc("/status/", o.handleStatus)
    mux.HandleFunc("/download/", o.handleDownload)
}

func (o *Orchestrator) requireAuth(next http.HandlerFunc) http.HandlerFunc {
    return func(w http.ResponseWriter, r *http.Request) {
        if o.deps.Username == "" || o.deps.PasswordHash == "" {
            next(w, r)
            return
        }
        user, pass, ok := r.BasicAuth()
        if !ok || user != o.deps.Username || bcrypt.CompareHashAndPassword([]byte(o.deps.PasswordHash), []byte(pass)) != nil {
            w.Header().Set("WWW-Authenticate", `Basic realm="pdfclean"`)
            http.Error(w, "unauthorized", http.StatusUnauthorized)
            return
        }
        next(w, r)
    }
}

// limit rejects a clean request with 429 when every run slot is busy.
func (o *Orchestrator) limit(next http.HandlerFunc) http.HandlerFunc {
    return func(w http.ResponseWriter, r *http.Request) {
        release, ok := o.slots.Allow("clean")
        if !ok {
            w.Header().Set("Retry-After", "5")
            http.Error(w, "too many clean runs in progress", http.StatusTooManyRequests)
            return
        }
        defer release()
        next(w, r)
    }
}

type cleanReq struct {
    InputPath  string `json:"input_path"`
    OutputPath string `json:"output_path"`
    Upload     bool   `json:"upload"`
    Preview    bool   `json:"preview"`
}

func (o *Orchestrator) handleClean(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed); return
    }
    defer r.Body.Close()
    var req cleanReq
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        http.Error(w, "invalid json", http.StatusBadRequest); return
    }
    if strings.TrimSpace(req.InputPath) == "" {
        http.Error(w, "missing input_path", http.StatusBadRequest); return
    }
    jobID := uuid.NewString()
    input, err := o.inputRef(req.InputPath)
    if err != nil {
        log.Warn().Err(err).Str("job_id", jobID).Msg("clean request rejected")
        http.Error(w, "input_path: "+err.Error(), http.StatusBadRequest); return
    }
    output, err := o.outputPath(req.OutputPath, jobID)
    if err != nil {
        log.Warn().Err(err).Str("job_id", jobID).Msg("clean request rejected")
        http.Error(w, "output_path: "+err.Error(), http.StatusBadRequest); return
    }
    rep := o.run(r.Context(), Request{InputPath: input, OutputPath: output, Upload: req.Upload, Preview: req.Preview, JobID: jobID}, nil)
    writeReport(w, rep)
}

// inputRef limits /clean inputs to s3:// refs, files inside UploadDir and,
// when enabled, http(s) URLs.
func (o *Orchestrator) inputRef(ref string) (string, error) {
    switch {
    case strings.HasPrefix(ref, "s3://"):
        return ref, nil
    case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
        if o.deps.AllowRemoteInput { return ref, nil }
        return "", errors.New("remote input URLs are disabled")
    }
    return ConfinePath(orDefault(o.deps.UploadDir, defaultUploadDir), strings.TrimPrefix(ref, "file://"))
}

// outputPath places the result under ResultDir; a requested path must stay
// inside it.
func (o *Orchestrator) outputPath(p, jobID string) (string, error) {
    dir := orDefault(o.deps.ResultDir, defaultResultDir)
    if p == "" { return ResultPath(dir, jobID), nil }
    return ConfinePath(dir, p)
}

// handleCleanUpload accepts a multipart PDF upload and cleans it into RESULT_DIR.
func (o *Orchestrator) handleCleanUpload(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost { w.WriteHeader(http.StatusMethodNotAllowed); return }
    if err := r.ParseMultipartForm(64 << 20); err != nil { // 64MB max memory before temp files
        http.Error(w, "invalid multipart form", http.StatusBadRequest); return
    }
    file, hdr, err := r.FormFile("file")
    if err != nil { http.Error(w, "missing file", http.StatusBadRequest); return }
    defer file.Close()

    jobID := uuid.NewString()
    localPath, err := SaveUploadToLocal(o.deps.UploadDir, jobID, hdr.Filename, file)
    if err != nil {
        log.Error().Err(err).Str("job_id", jobID).Msg("cannot save upload")
        http.Error(w, "cannot save upload", http.StatusInternalServerError); return
    }
    defer os.Remove(localPath)
    output := ResultPath(o.deps.ResultDir, jobID)
    if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
        http.Error(w, "cannot create result dir", http.StatusInternalServerError); return
    }

    upload := r.FormValue("upload") == "on" || r.FormValue("upload") == "true"
    preview := r.FormValue("preview") == "on" || r.FormValue("preview") == "true"
    rep := o.run(r.Context(), Request{
        InputPath:  localPath,
        OutputPath: output,
        Upload:     upload,
        Preview:    preview,
        JobID:      jobID,
    }, map[string]any{"source": "upload", "file_name": hdr.Filename})
    writeReport(w, rep)
}

func (o *Orchestrator) run(ctx context.Context, req Request, meta map[string]any) Report {
    if req.JobID == "" { req.JobID = uuid.NewString() }
    start := time.Now()
    m := map[string]any{"input_path": req.InputPath}
    for k, v := range meta { m[k] = v }
    _ = o.deps.Status.Set(ctx, req.JobID, Status{Status: StateProcessing, Progress: 10, Message: "cleaning", Start: &start, Metadata: m})

    rep := o.deps.Cleaner.Clean(ctx, req)

    st := statusFromReport(start, rep)
    for k, v := range m { st.Metadata[k] = v }
    if err := o.deps.Status.Set(ctx, req.JobID, st); err != nil {
        log.Warn().Err(err).Str("job_id", req.JobID).Msg("status update failed")
    }
    return rep
}

func writeReport(w http.ResponseWriter, rep Report) {
    code := http.StatusCreated
    switch err := rep.Err(); {
    case err == nil:
    case errors.Is(err, ErrInputNotFound):
        code = http.StatusNotFound
    case errors.Is(err, ErrNoValidPages), errors.Is(err, ErrNotPDF):
        code = http.StatusUnprocessableEntity
    default:
        code = http.StatusInternalServerError
    }
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(code)
    _ = json.NewEncoder(w).Encode(rep)
}

func (o *Orchestrator) handleStatus(w http.ResponseWriter, r *http.Request) {
    id := strings.TrimPrefix(r.URL.Path, "/status/")
    st, ok, err := o.deps.Status.Get(r.Context(), id)
    if err != nil { http.Error(w, "error", 500); return }
    if !ok {
        http.Error(w, "not found", http.StatusNotFound); return
    }
    w.Header().Set("Content-Type", "application/json")
    _ = json.NewEncoder(w).Encode(map[string]any{
        "success":    st.Status == StateSuccess,
        "job_id":     id,
        "status":     st.Status,
        "progress":   st.Progress,
        "message":    st.Message,
        "start_time": st.Start,
        "end_time":   st.End,
        "metadata":   st.Metadata,
    })
}

// handleDownload serves the cleaned PDF of a finished job.
func (o *Orchestrator) handleDownload(w http.ResponseWriter, r *http.Request) {
    id := strings.TrimPrefix(r.URL.Path, "/download/")
    st, ok, err := o.deps.Status.Get(r.Context(), id)
    if err != nil || !ok { http.Error(w, "not found", http.StatusNotFound); return }
    if st.Status != StateSuccess { http.Error(w, "not ready", http.StatusAccepted); return }
    p, _ := st.Metadata["output_path"].(string)
    if p == "" { http.Error(w, "result not available", http.StatusNotFound); return }
    f, err := os.Open(p)
    if err != nil { http.Error(w, "result not available", http.StatusNotFound); return }
    defer f.Close()
    info, err := f.Stat()
    if err != nil { http.Error(w, "failed to read", 500); return }
    w.Header().Set("Content-Type", "application/pdf")
    w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(p)))
    http.ServeContent(w, r, filepath.Base(p), info.ModTime(), f)
}

func (o *Orchestrator) handleHealthDeps(w http.ResponseWriter, r *http.Request) {
    if o.deps.Health == nil { http.Error(w, "not configured", http.StatusNotFound); return }
    s := o.deps.Health.Summary(r.Context())
    w.Header().Set("Content-Type", "application/json")
    if !s.OK() { w.WriteHeader(http.StatusServiceUnavailable) }
    _ = json.NewEncoder(w).Encode(s)
}
