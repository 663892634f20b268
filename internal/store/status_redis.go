package store

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    redis "github.com/redis/go-redis/v9"
)

// Status is the persisted form of a clean job's progress.
type Status struct {
    Status   string                 `json:"status"`
    Progress int                    `json:"progress"`
    Message  string                 `json:"message"`
    Start    *time.Time             `json:"start_time,omitempty"`
    End      *time.Time             `json:"end_time,omitempty"`
    Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// kv is the subset of *redis.Client used for statuses.
type kv interface {
    Get(ctx context.Context, key string) *redis.StringCmd
    Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
    Ping(ctx context.Context) *redis.StatusCmd
}

// RedisStatus keeps one JSON document per job, replaced on every update.
type RedisStatus struct {
    kv  kv
    ttl time.Duration
}

// Connect parses redisURL and pings the server.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
    opt, err := redis.ParseURL(redisURL)
    if err != nil { return nil, fmt.Errorf("redis url: %w", err) }
    c := redis.NewClient(opt)
    if err := c.Ping(ctx).Err(); err != nil {
        _ = c.Close()
        return nil, fmt.Errorf("redis ping: %w", err)
    }
    return c, nil
}

// NewRedisStatus stores statuses under pdfclean:job:<id>, expiring after ttl
// (0 keeps them).
func NewRedisStatus(client *redis.Client, ttl time.Duration) *RedisStatus {
    return &RedisStatus{kv: client, ttl: ttl}
}

func statusKey(jobID string) string { return "pdfclean:job:" + jobID }

func (s *RedisStatus) Set(ctx context.Context, jobID string, st Status) error {
    b, err := json.Marshal(st)
    if err != nil { return fmt.Errorf("marshal status: %w", err) }
    return s.kv.Set(ctx, statusKey(jobID), b, s.ttl).Err()
}

// Get returns false without error when the job is unknown or expired.
func (s *RedisStatus) Get(ctx context.Context, jobID string) (Status, bool, error) {
    b, err := s.kv.Get(ctx, statusKey(jobID)).Bytes()
    if errors.Is(err, redis.Nil) { return Status{}, false, nil }
    if err != nil { return Status{}, false, err }
    var st Status
    if err := json.Unmarshal(b, &st); err != nil {
        return Status{}, false, fmt.Errorf("decode status %s: %w", jobID, err)
    }
    return st, true, nil
}

func (s *RedisStatus) Ping(ctx context.Context) error { return s.kv.Ping(ctx).Err() }
