package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLike is the minimal contract a shared counter store must satisfy for
// the distributed limiter. Incr must be atomic at the store level.
type RedisLike interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// FailurePolicy decides what a store failure means for the caller. It is a
// deliberate configuration choice, never a silent default: the constructor
// rejects the zero value.
type FailurePolicy int

const (
	// FailOpen admits the attempt when the store is unreachable.
	FailOpen FailurePolicy = iota + 1
	// FailClosed rejects the attempt when the store is unreachable.
	FailClosed
)

// DistributedLimiter enforces the policy against a counter store shared by
// unrelated processes. It holds no authoritative state itself, only the
// policy parameters.
type DistributedLimiter struct {
	store     RedisLike
	policy    Policy
	onFailure FailurePolicy
	prefix    string
}

// NewDistributedLimiter creates a limiter over the shared store. keyPrefix
// namespaces the counters so unrelated limiters can share one store.
func NewDistributedLimiter(store RedisLike, policy Policy, onFailure FailurePolicy, keyPrefix string) (*DistributedLimiter, error) {
	if onFailure != FailOpen && onFailure != FailClosed {
		return nil, fmt.Errorf("ratelimit: failure policy must be FailOpen or FailClosed")
	}
	if keyPrefix == "" {
		keyPrefix = "ratelimit"
	}
	return &DistributedLimiter{
		store:     store,
		policy:    policy,
		onFailure: onFailure,
		prefix:    keyPrefix,
	}, nil
}

// Allow increments the key's shared counter and admits the attempt while the
// count stays within the limit. The TTL is set only on the window's first
// increment so every process sharing the store observes one quota window.
func (l *DistributedLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	storeKey := l.prefix + ":" + key

	count, err := l.store.Incr(ctx, storeKey)
	if err != nil {
		return l.failureDecision(key, err)
	}

	if count == 1 {
		if err := l.store.Expire(ctx, storeKey, l.policy.Window); err != nil {
			return l.failureDecision(key, err)
		}
	}

	if count > int64(l.policy.Limit) {
		retryAfter := l.policy.Window
		if ttl, err := l.store.TTL(ctx, storeKey); err == nil && ttl > 0 {
			retryAfter = ttl
		}
		return Decision{Allowed: false, RetryAfter: retryAfter}, nil
	}

	return Decision{Allowed: true, Remaining: l.policy.Limit - int(count)}, nil
}

func (l *DistributedLimiter) failureDecision(key string, err error) (Decision, error) {
	if l.onFailure == FailOpen {
		return Decision{Allowed: true}, nil
	}
	return Decision{Allowed: false, RetryAfter: l.policy.Window},
		fmt.Errorf("ratelimit: store failure for %q: %w", key, err)
}

// RedisStore adapts a go-redis client to the RedisLike interface.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing go-redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Incr(ctx context.Context, key string) (int64, error) {
	return s.client.Incr(ctx, key).Result()
}

func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Expire(ctx, key, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return value, err
}

func (s *RedisStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	return s.client.TTL(ctx, key).Result()
}
