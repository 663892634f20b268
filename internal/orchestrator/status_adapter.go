package orchestrator

import (
    "context"

    "github.com/local/pdfclean/internal/store"
)

// redisStatusAdapter persists job statuses through store.RedisStatus. Numbers
// in Metadata come back as float64 after the JSON round trip and are
// converted back for the known count keys.
type redisStatusAdapter struct { s *store.RedisStatus }

func NewStatusAdapter(s *store.RedisStatus) StatusStore { return &redisStatusAdapter{s: s} }

func toStoreStatus(st Status) store.Status {
    return store.Status{Status: st.Status, Progress: st.Progress, Message: st.Message, Start: st.Start, End: st.End, Metadata: st.Metadata}
}

// countKeys are restored to int after the JSON round trip.
var countKeys = []string{"dropped_pages", "kept_pages", "total_pages", "duration_ms"}

func fromStoreStatus(st store.Status) Status {
    for _, k := range countKeys {
        if _, ok := st.Metadata[k]; ok { st.Metadata[k] = intFromMeta(st.Metadata, k) }
    }
    return Status{Status: st.Status, Progress: st.Progress, Message: st.Message, Start: st.Start, End: st.End, Metadata: st.Metadata}
}

func (a *redisStatusAdapter) Set(ctx context.Context, jobID string, st Status) error {
    return a.s.Set(ctx, jobID, toStoreStatus(st))
}

func (a *redisStatusAdapter) Get(ctx context.Context, jobID string) (Status, bool, error) {
    st, ok, err := a.s.Get(ctx, jobID)
    if !ok || err != nil { return Status{}, ok, err }
    return fromStoreStatus(st), true, nil
}

func intFromMeta(m map[string]any, key string) int {
    if m == nil { return 0 }
    switch t := m[key].(type) {
    case float64: return int(t)
    case int: return t
    case int64: return int(t)
    }
    return 0
}
