package ratelimit

import (
	"sync"
	"time"
)

// KeyedLimiter maintains an independent token bucket per key, used for
// per-client request limiting. Idle buckets are dropped after idleTimeout.
type KeyedLimiter struct {
	capacity     int
	refillPeriod time.Duration
	idleTimeout  time.Duration
	buckets      map[string]*keyedBucket
	mu           sync.Mutex
}

type keyedBucket struct {
	limiter  *TokenBucket
	lastSeen time.Time
}

// NewKeyedLimiter creates a per-key rate limiter
func NewKeyedLimiter(capacity int, refillPeriod time.Duration) *KeyedLimiter {
	return &KeyedLimiter{
		capacity:     capacity,
		refillPeriod: refillPeriod,
		idleTimeout:  10 * time.Minute,
		buckets:      make(map[string]*keyedBucket),
	}
}

// Allow checks if a request for the given key can proceed
func (kl *KeyedLimiter) Allow(key string) bool {
	kl.mu.Lock()
	bucket, ok := kl.buckets[key]
	if !ok {
		bucket = &keyedBucket{
			limiter: NewTokenBucket(kl.capacity, kl.refillPeriod),
		}
		kl.buckets[key] = bucket
	}
	bucket.lastSeen = time.Now()
	kl.mu.Unlock()

	return bucket.limiter.Allow()
}

// Sweep drops buckets that have been idle longer than the idle timeout
func (kl *KeyedLimiter) Sweep() {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	cutoff := time.Now().Add(-kl.idleTimeout)
	for key, bucket := range kl.buckets {
		if bucket.lastSeen.Before(cutoff) {
			delete(kl.buckets, key)
		}
	}
}

// Len returns the number of tracked keys
func (kl *KeyedLimiter) Len() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.buckets)
}
