// Package admission implements the per-request admission gate
// described as a boundary concern in spec.md §6: a settable
// overload flag layered over a token-bucket rate limiter.
package admission

import (
	"errors"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// ErrResourceExhausted is returned by Allow when the call is rejected,
// either because the overload flag is set or the rate limit is
// exceeded. It corresponds to spec.md §7's ResourceExhausted error
// kind.
var ErrResourceExhausted = errors.New("admission: resource exhausted")

// Gate is a per-request admission-control interceptor. It must be
// consulted before any shared-state lock is acquired (spec.md §5's
// pre-lock cancellation policy): a rejected request has no durable
// effect.
type Gate struct {
	overloaded atomic.Bool
	limiter    *rate.Limiter
}

// New creates a Gate. ratePerSecond <= 0 disables rate limiting
// entirely (unlimited), leaving only the overload flag in effect.
func New(ratePerSecond int) *Gate {
	g := &Gate{}
	if ratePerSecond > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(ratePerSecond), ratePerSecond)
	}
	return g
}

// Allow reports whether the next request may proceed. How the overload
// flag is driven is deliberately unspecified by spec.md §6; SetOverloaded
// is the only mechanism this package provides.
func (g *Gate) Allow() error {
	if g.overloaded.Load() {
		return ErrResourceExhausted
	}
	if g.limiter != nil && !g.limiter.Allow() {
		return ErrResourceExhausted
	}
	return nil
}

// SetOverloaded sets or clears the shared overload flag.
func (g *Gate) SetOverloaded(v bool) {
	g.overloaded.Store(v)
}
