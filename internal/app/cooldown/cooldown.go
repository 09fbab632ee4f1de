// Package cooldown provides a drop-style rate gate for user commands.
package cooldown

import (
	"time"

	"golang.org/x/time/rate"
)

// DefaultWindow is the cooldown applied to skip and shuffle commands.
const DefaultWindow = 500 * time.Millisecond

// Gate admits one action per window. Actions attempted while the gate is
// cooling are dropped, never deferred.
//
// Gate is safe for concurrent use.
type Gate struct {
	limiter *rate.Limiter
	window  time.Duration
	now     func() time.Time
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock sets the clock used to evaluate the window.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		g.now = now
	}
}

// New creates a gate with the given window. A window <= 0 never closes.
func New(window time.Duration, opts ...Option) *Gate {
	limit := rate.Inf
	if window > 0 {
		limit = rate.Every(window)
	}
	g := &Gate{
		limiter: rate.NewLimiter(limit, 1),
		window:  window,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Allow reports whether the action may run now and, if so, arms the window.
func (g *Gate) Allow() bool {
	return g.limiter.AllowN(g.now(), 1)
}

// Cooling reports whether an action attempted now would be dropped.
func (g *Gate) Cooling() bool {
	if g.window <= 0 {
		return false
	}
	return g.limiter.TokensAt(g.now()) < 1
}

// Window returns the configured cooldown window.
func (g *Gate) Window() time.Duration {
	return g.window
}
