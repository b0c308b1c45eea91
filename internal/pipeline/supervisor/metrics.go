// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package supervisor

import (
	"sync"
	"time"

	"github.com/clio-mediator/clio-mediator/internal/pipeline/normalize"
)

// Metrics is the counter/gauge set spec.md §8 names, supplemented by
// audio_queue_overflow and last_segment_timestamp from
// original_source/app/models/metrics.py.
type Metrics struct {
	FramesCaptured       int64
	FramesDropped        int64
	EventsProcessed      int64
	EventsDropped        int64
	SegmentsCommitted    int64
	ReconnectCount       int64
	AudioQueueOverflow   bool
	LastSegmentTimestamp time.Time
	LastError            string
}

type metricsTracker struct {
	mu sync.RWMutex
	m  Metrics
}

func (t *metricsTracker) snapshot() Metrics {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.m
}

func (t *metricsTracker) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m = Metrics{}
}

func (t *metricsTracker) recordEvent(evt normalize.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m.EventsProcessed++
	if evt.Type == normalize.EventFinal {
		t.m.LastSegmentTimestamp = time.Now()
	}
}

func (t *metricsTracker) recordSegmentCommitted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m.SegmentsCommitted++
}

func (t *metricsTracker) recordLastError(err string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m.LastError = err
}

func (t *metricsTracker) syncFromAudio(captured, dropped int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m.FramesCaptured = captured
	t.m.FramesDropped = dropped
	if dropped > 0 {
		t.m.AudioQueueOverflow = true
	}
}

func (t *metricsTracker) syncReconnectCount(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m.ReconnectCount = n
}

func (t *metricsTracker) syncEventsDropped(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m.EventsDropped = n
}
