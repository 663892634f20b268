// Package breaker keeps per-endpoint circuit breaker state in Redis so that
// every process sharing the Redis instance skips an endpoint that keeps
// failing.
package breaker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	mpkg "github.com/local/pdfclean/internal/metrics"
)

// hashClient is the subset of *redis.Client the breaker needs.
type hashClient interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Redis manages circuit breaker state in Redis hashes keyed cb:upload:<endpoint>.
type Redis struct {
	redis       hashClient
	baseBackoff time.Duration
	maxBackoff  time.Duration
	now         func() time.Time
}

// NewRedis creates a new circuit breaker
func NewRedis(client *redis.Client, baseBackoff, maxBackoff time.Duration) *Redis {
	return newRedis(client, baseBackoff, maxBackoff)
}

func newRedis(client hashClient, baseBackoff, maxBackoff time.Duration) *Redis {
	return &Redis{redis: client, baseBackoff: baseBackoff, maxBackoff: maxBackoff, now: time.Now}
}

func key(endpoint string) string { return fmt.Sprintf("cb:upload:%s", endpoint) }

// Backoff returns the cooldown after the given number of consecutive failures.
func (cb *Redis) Backoff(failures int) time.Duration {
	backoff := cb.baseBackoff
	for i := 1; i < failures; i++ {
		backoff *= 2
		if backoff > cb.maxBackoff {
			return cb.maxBackoff
		}
	}
	return backoff
}

// Failure records a failed attempt and opens the breaker.
func (cb *Redis) Failure(ctx context.Context, endpoint string) {
	k := key(endpoint)

	failuresStr, _ := cb.redis.HGet(ctx, k, "failures").Result()
	failures, _ := strconv.Atoi(failuresStr)
	failures++

	backoff := cb.Backoff(failures)
	now := cb.now()
	retryAt := now.Add(backoff).Unix()

	cb.redis.HSet(ctx, k, map[string]interface{}{
		"state":     "open",
		"retry_at":  retryAt,
		"failures":  failures,
		"opened_at": now.Unix(),
	})
	cb.redis.Expire(ctx, k, backoff+10*time.Minute)
	mpkg.BreakerOpened(endpoint)

	log.Warn().
		Str("endpoint", endpoint).
		Dur("cooldown", backoff).
		Int("failures", failures).
		Time("retry_at", time.Unix(retryAt, 0)).
		Msg("circuit breaker OPENED")
}

// Allow reports whether an attempt against endpoint may proceed. An open
// breaker whose cooldown expired moves to half-open and allows one probe.
func (cb *Redis) Allow(ctx context.Context, endpoint string) bool {
	k := key(endpoint)

	state, err := cb.redis.HGet(ctx, k, "state").Result()
	if err != nil || state != "open" {
		return true
	}

	retryAtStr, _ := cb.redis.HGet(ctx, k, "retry_at").Result()
	retryAt, _ := strconv.ParseInt(retryAtStr, 10, 64)
	if cb.now().Unix() >= retryAt {
		cb.redis.HSet(ctx, k, "state", "half_open")
		log.Info().Str("endpoint", endpoint).Msg("circuit breaker moved to HALF-OPEN")
		return true
	}
	return false
}

// Success resets the breaker.
func (cb *Redis) Success(ctx context.Context, endpoint string) {
	k := key(endpoint)
	state, _ := cb.redis.HGet(ctx, k, "state").Result()
	if state == "" || state == "closed" {
		return
	}
	cb.redis.Del(ctx, k)
	mpkg.BreakerClosed(endpoint)
	log.Info().Str("endpoint", endpoint).Msg("circuit breaker CLOSED (reset)")
}
