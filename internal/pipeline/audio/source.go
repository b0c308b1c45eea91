// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package audio captures raw PCM frames and feeds them onto the
// pipeline's audioQ (spec.md §4.A).
package audio

import (
	"context"
	"errors"
)

// ErrDeviceUnavailable is returned when the configured capture device or
// input file cannot be opened.
var ErrDeviceUnavailable = errors.New("audio: device unavailable")

// Stats is a point-in-time snapshot of capture bookkeeping (spec.md §8).
type Stats struct {
	FramesCaptured int64
	FramesDropped  int64
	DeviceName     string
	Running        bool
}

// Source captures audio frames and pushes them onto out until ctx is
// cancelled or Stop is called. Implementations never block forever on a
// full out: per spec.md §4.A a full audioQ increments frames_dropped
// and the frame is discarded, capture continues.
type Source interface {
	Start(ctx context.Context, out chan<- []byte) error
	Stop()
	Stats() Stats
}
