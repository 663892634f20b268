package orchestrator

import (
    "context"
    "sync"
    "time"
)

// Job states.
const (
    StateQueued     = "queued"
    StateProcessing = "processing"
    StateSuccess    = "success"
    StateFailed     = "failed"
)

type Status struct {
    Status   string
    Progress int
    Message  string
    Start    *time.Time
    End      *time.Time
    Metadata map[string]any
}

type StatusStore interface {
    Set(ctx context.Context, jobID string, st Status) error
    Get(ctx context.Context, jobID string) (Status, bool, error)
}

// memoryStatus keeps statuses in process memory; used when Redis is not configured.
type memoryStatus struct {
    mu   sync.RWMutex
    jobs map[string]Status
}

func NewMemoryStatus() StatusStore { return &memoryStatus{jobs: make(map[string]Status)} }

func (m *memoryStatus) Set(_ context.Context, jobID string, st Status) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    if st.Metadata != nil {
        cp := make(map[string]any, len(st.Metadata))
        for k, v := range st.Metadata { cp[k] = v }
        st.Metadata = cp
    }
    m.jobs[jobID] = st
    return nil
}

func (m *memoryStatus) Get(_ context.Context, jobID string) (Status, bool, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    st, ok := m.jobs[jobID]
    return st, ok, nil
}

// statusFromReport is the terminal status for a finished run.
func statusFromReport(start time.Time, rep Report) Status {
    end := time.Now()
    st := Status{Progress: 100, Message: rep.Message, Start: &start, End: &end, Metadata: map[string]any{
        "dropped_pages": rep.DroppedPages,
        "kept_pages":    rep.KeptPages,
        "total_pages":   rep.TotalPages,
        "duration_ms":   rep.DurationMS,
    }}
    if rep.Success {
        st.Status = StateSuccess
        st.Metadata["output_path"] = rep.OutputPath
        if rep.Link != "" { st.Metadata["link"] = rep.Link }
        if rep.PreviewPath != "" { st.Metadata["preview_path"] = rep.PreviewPath }
    } else {
        st.Status = StateFailed
        st.Metadata["error"] = rep.Error
    }
    return st
}
