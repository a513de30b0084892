// Package security holds in-process protections for the sign-in path.
package security

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/leadintake/internal/metrics"
)

// Login lockout policy: MaxFailures failed sign-ins for one email within
// FailureWindow lock that email out for Lockout.
const (
	MaxFailures   = 5
	FailureWindow = 15 * time.Minute
	Lockout       = 5 * time.Minute

	sweepInterval = time.Minute
	maxTracked    = 10_000
)

type failures struct {
	count    int
	first    time.Time
	lockedAt time.Time
}

func (f *failures) expired(now time.Time) bool {
	if f.lockedAt.IsZero() {
		return now.Sub(f.first) >= FailureWindow
	}

	return now.Sub(f.lockedAt) >= Lockout
}

// LoginGuard throttles sign-in per login key, normally the lower-cased
// email. Keys are kept only as SHA-256 digests so the map never holds
// addresses.
type LoginGuard struct {
	mu   sync.Mutex
	keys map[string]*failures
	log  *logrus.Logger
	now  func() time.Time
}

// NewLoginGuard creates a guard whose sweeper runs until ctx is cancelled.
func NewLoginGuard(ctx context.Context, log *logrus.Logger) *LoginGuard {
	g := &LoginGuard{
		keys: make(map[string]*failures),
		log:  log,
		now:  time.Now,
	}

	go g.sweepLoop(ctx)

	return g
}

func digest(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Locked returns how much longer key stays locked out, or zero.
func (g *LoginGuard) Locked(key string) time.Duration {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	f, ok := g.keys[digest(key)]
	if !ok || f.lockedAt.IsZero() {
		return 0
	}

	return max(f.lockedAt.Add(Lockout).Sub(now), 0)
}

// RecordFailure counts a failed sign-in for key. It returns the lockout
// duration when this failure locks the key, otherwise zero.
func (g *LoginGuard) RecordFailure(key string) time.Duration {
	d := digest(key)
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	f, ok := g.keys[d]
	if !ok || f.expired(now) {
		g.keys[d] = &failures{count: 1, first: now}
		return 0
	}

	f.count++
	if f.count < MaxFailures || !f.lockedAt.IsZero() {
		return 0
	}

	f.lockedAt = now
	metrics.LoginLockoutsTotal.Inc()
	g.log.WithField("key_digest", d[:16]).Warn("sign-in locked after repeated failures")

	return Lockout
}

// Reset forgets key, after a successful sign-in.
func (g *LoginGuard) Reset(key string) {
	g.mu.Lock()
	delete(g.keys, digest(key))
	g.mu.Unlock()
}

func (g *LoginGuard) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.sweep()
		}
	}
}

// sweep drops expired windows and lockouts. If more than maxTracked keys
// remain, the ones whose first failure is oldest go first.
func (g *LoginGuard) sweep() {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	for d, f := range g.keys {
		if f.expired(now) {
			delete(g.keys, d)
		}
	}

	g.trim(maxTracked)
}

// trim keeps at most limit keys. Caller holds g.mu.
func (g *LoginGuard) trim(limit int) {
	excess := len(g.keys) - limit
	if excess <= 0 {
		return
	}

	digests := make([]string, 0, len(g.keys))
	for d := range g.keys {
		digests = append(digests, d)
	}

	slices.SortFunc(digests, func(a, b string) int {
		return cmp.Compare(g.keys[a].first.UnixNano(), g.keys[b].first.UnixNano())
	})

	for _, d := range digests[:excess] {
		delete(g.keys, d)
	}
}
