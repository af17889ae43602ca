package provider

import (
	"sync"
	"time"
)

const (
	defaultFailureThreshold = 3
	defaultCooldown         = 5 * time.Minute
)

// CircuitBreaker isolates a single provider from repeated failures. After
// defaultFailureThreshold consecutive failures it opens for cooldown,
// during which Allow returns false and callers should skip the provider
// rather than fan out to it. Any success resets the failure count.
//
// Providers' rate-limit signaling is inconsistent (some return 429, others
// plain 5xx, others just time out); the breaker treats any reported failure
// identically rather than special-casing status codes.
type CircuitBreaker struct {
	mu                sync.Mutex
	failureThreshold  int
	cooldown          time.Duration
	consecutiveFails  int
	openUntil         time.Time
}

func NewCircuitBreaker() *CircuitBreaker {
	return &CircuitBreaker{
		failureThreshold: defaultFailureThreshold,
		cooldown:         defaultCooldown,
	}
}

// Allow reports whether a call should be attempted now.
func (b *CircuitBreaker) Allow(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return now.After(b.openUntil)
}

// RecordSuccess resets the consecutive-failure counter and closes the breaker.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFails = 0
	b.openUntil = time.Time{}
}

// RecordFailure registers a failed call, opening the breaker once the
// threshold of consecutive failures is reached.
func (b *CircuitBreaker) RecordFailure(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFails++
	if b.consecutiveFails >= b.failureThreshold {
		b.openUntil = now.Add(b.cooldown)
	}
}

// IsOpen reports whether the breaker is currently in its cooldown window.
func (b *CircuitBreaker) IsOpen(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return now.Before(b.openUntil)
}

// Breakers tracks one CircuitBreaker per provider name.
type Breakers struct {
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

func NewBreakers() *Breakers {
	return &Breakers{breakers: make(map[string]*CircuitBreaker)}
}

func (b *Breakers) For(providerName string) *CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	cb, ok := b.breakers[providerName]
	if !ok {
		cb = NewCircuitBreaker()
		b.breakers[providerName] = cb
	}
	return cb
}
