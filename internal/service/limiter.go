package service

import (
	"sync"
	"time"
)

type attemptState struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// AttemptLimiter tracks failed sign-in attempts per client address and locks
// the address out after too many failures inside the window. State is
// in-process only; a multi-instance deployment would need a shared backend.
type AttemptLimiter struct {
	mu           sync.Mutex
	attempts     map[string]*attemptState
	maxAttempts  int
	window       time.Duration
	lockDuration time.Duration
}

func NewAttemptLimiter(maxAttempts int, window, lockDuration time.Duration) *AttemptLimiter {
	return &AttemptLimiter{
		attempts:     make(map[string]*attemptState),
		maxAttempts:  maxAttempts,
		window:       window,
		lockDuration: lockDuration,
	}
}

// RetryAfter returns how long the address stays locked out, or zero when
// sign-in attempts are allowed.
func (l *AttemptLimiter) RetryAfter(addr string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.attempts[addr]
	if !ok {
		return 0
	}
	now := time.Now()
	if now.After(state.lockedUntil) {
		return 0
	}
	return time.Until(state.lockedUntil)
}

// RecordFailure registers a failed attempt and returns the remaining attempts
// before lockout.
func (l *AttemptLimiter) RecordFailure(addr string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	state, ok := l.attempts[addr]
	if !ok || now.Sub(state.firstAttempt) > l.window {
		state = &attemptState{firstAttempt: now}
		l.attempts[addr] = state
	}

	state.count++
	if state.count >= l.maxAttempts {
		state.lockedUntil = now.Add(l.lockDuration)
		state.count = l.maxAttempts
	}

	remaining := l.maxAttempts - state.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Reset clears the failure state after a successful sign-in.
func (l *AttemptLimiter) Reset(addr string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, addr)
}
