package limiter

import (
    "strings"
    "sync"
)

// Slots caps in-flight work per key inside one process. Clean runs are CPU
// and memory heavy; the HTTP surface rejects work past the cap instead of
// queueing it.
type Slots struct {
    max int
    mu  sync.Mutex
    sem map[string]chan struct{}
}

// New returns a limiter allowing max concurrent holders per key (default 2).
func New(max int) *Slots {
    if max <= 0 { max = 2 }
    return &Slots{max: max, sem: map[string]chan struct{}{}}
}

// Max returns the per-key cap.
func (s *Slots) Max() int { return s.max }

// Allow tries to reserve a slot for key without blocking. The release func is
// never nil and is a no-op when the reservation failed.
func (s *Slots) Allow(key string) (func(), bool) {
    key = strings.ToLower(key)
    s.mu.Lock()
    ch, ok := s.sem[key]
    if !ok {
        ch = make(chan struct{}, s.max)
        s.sem[key] = ch
    }
    s.mu.Unlock()
    select {
    case ch <- struct{}{}:
        var once sync.Once
        return func() { once.Do(func() { <-ch }) }, true
    default:
        return func() {}, false
    }
}

// InFlight reports how many slots of key are held.
func (s *Slots) InFlight(key string) int {
    s.mu.Lock()
    defer s.mu.Unlock()
    if ch, ok := s.sem[strings.ToLower(key)]; ok { return len(ch) }
    return 0
}
