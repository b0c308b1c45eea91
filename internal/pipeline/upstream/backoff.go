// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package upstream

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/clio-mediator/clio-mediator/internal/config"
)

// reconnectPolicy runs two independent cenkalti/backoff ExponentialBackOff
// instances side by side, one for an ordinary drop and a gentler one for
// a WAIT-triggered disconnect (spec.md §4.B). RandomizationFactor 0.2
// reproduces the uniform(0.8, 1.2) multiplicative jitter spec.md names;
// the attempt cap is counted manually by the caller rather than via
// backoff.WithMaxRetries, since that helper doesn't expose a clean way
// to also select on context cancellation mid-sleep.
type reconnectPolicy struct {
	normal *backoff.ExponentialBackOff
	gentle *backoff.ExponentialBackOff
}

func newReconnectPolicy(cfg config.UpstreamConfig) *reconnectPolicy {
	base := cfg.BackoffBase
	if base <= 0 {
		base = time.Second
	}
	max := cfg.BackoffMaxInterval
	if max <= 0 {
		max = 30 * time.Second
	}

	normal := backoff.NewExponentialBackOff()
	normal.InitialInterval = base
	normal.Multiplier = 2
	normal.RandomizationFactor = 0.2
	normal.MaxInterval = max
	normal.MaxElapsedTime = 0
	normal.Reset()

	gentle := backoff.NewExponentialBackOff()
	gentle.InitialInterval = base
	gentle.Multiplier = 1.5
	gentle.RandomizationFactor = 0.2
	gentle.MaxInterval = max
	gentle.MaxElapsedTime = 0
	gentle.Reset()

	return &reconnectPolicy{normal: normal, gentle: gentle}
}

// Next returns the sleep duration before the next reconnect attempt.
// waitTriggered selects the gentler 1.5x-growth backoff used after a
// remote WAIT disconnected the session.
func (p *reconnectPolicy) Next(waitTriggered bool) time.Duration {
	if waitTriggered {
		return p.gentle.NextBackOff()
	}
	return p.normal.NextBackOff()
}

// ResetOnSuccess restarts both backoff sequences after a successful
// reconnect, so the next failure starts from base again.
func (p *reconnectPolicy) ResetOnSuccess() {
	p.normal.Reset()
	p.gentle.Reset()
}

// sleepCtx waits for d or ctx cancellation, returning false if ctx ended
// the wait early.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
