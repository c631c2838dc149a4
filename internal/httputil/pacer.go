// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a minimum spacing between outbound requests. Callers Wait
// before every request; implementations decide how long that takes.
type Pacer interface {
	Wait(ctx context.Context) error
}

// NewPacer returns a Pacer that allows one request per minDelay. A zero or
// negative delay returns NoPacer.
func NewPacer(minDelay time.Duration) Pacer {
	if minDelay <= 0 {
		return NoPacer{}
	}
	return &limiterPacer{limiter: rate.NewLimiter(rate.Every(minDelay), 1)}
}

type limiterPacer struct {
	limiter *rate.Limiter
}

func (p *limiterPacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// NoPacer never waits. Tests and local endpoints use it.
type NoPacer struct{}

// Wait returns immediately unless ctx is already done.
func (NoPacer) Wait(ctx context.Context) error {
	return ctx.Err()
}
