package limiter

import (
	"context"
	"sync"
	"time"
)

type attempt struct {
	fails        int
	last         time.Time
	blockedUntil time.Time
}

// Memory is an in-process limiter with the same semantics as PG.
type Memory struct {
	mu       sync.Mutex
	window   time.Duration
	maxFails int
	blockFor time.Duration
	now      func() time.Time
	state    map[string]*attempt
}

// NewMemory constructs an in-process limiter.
func NewMemory(window time.Duration, maxFails int, blockFor time.Duration) *Memory {
	return &Memory{window: window, maxFails: maxFails, blockFor: blockFor, now: time.Now, state: map[string]*attempt{}}
}

func key(account string, ipHash []byte) string { return account + "\x00" + string(ipHash) }

// Allow reports whether login is currently allowed and a retry-after duration.
func (l *Memory) Allow(_ context.Context, account string, ipHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.state[key(account, ipHash)]
	if !ok {
		return true, 0, nil
	}
	if wait := a.blockedUntil.Sub(l.now()); wait > 0 {
		return false, wait, nil
	}
	return true, 0, nil
}

// Success forgets the pair.
func (l *Memory) Success(_ context.Context, account string, ipHash []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.state, key(account, ipHash))
	return nil
}

// Failure records a failed attempt.
func (l *Memory) Failure(_ context.Context, account string, ipHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	k := key(account, ipHash)
	a, ok := l.state[k]
	if !ok {
		a = &attempt{}
		l.state[k] = a
	}
	if now.Sub(a.last) > l.window {
		a.fails = 0
	}
	a.fails++
	a.last = now
	if a.fails < l.maxFails {
		return false, 0, nil
	}
	a.blockedUntil = now.Add(l.blockFor)
	return true, l.blockFor, nil
}
