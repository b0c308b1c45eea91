// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clio-mediator/clio-mediator/internal/config"
	"github.com/clio-mediator/clio-mediator/internal/pipeline/aggregator"
	"github.com/clio-mediator/clio-mediator/internal/pipeline/audio"
	"github.com/clio-mediator/clio-mediator/internal/pipeline/broadcast"
	"github.com/clio-mediator/clio-mediator/internal/pipeline/normalize"
	"github.com/clio-mediator/clio-mediator/internal/pipeline/upstream"
	"github.com/clio-mediator/clio-mediator/pkg/commons"
)

// Supervisor wires the five pipeline components and drives the state
// machine of spec.md §4.F. start()/stop() are serialized by mu; state
// reads go through an atomic.Value so the control API never blocks on
// the pipeline goroutines.
type Supervisor struct {
	cfg         *config.Config
	logger      commons.Logger
	audioSource audio.Source
	upstream    *upstream.Link
	aggregator  *aggregator.Aggregator
	broadcaster *broadcast.Broadcaster

	mu     sync.Mutex
	state  atomic.Value
	cancel context.CancelFunc
	group  *errgroup.Group

	metrics metricsTracker

	audioQ chan []byte
	eventQ chan normalize.Event
}

func New(cfg *config.Config, logger commons.Logger, audioSource audio.Source) *Supervisor {
	s := &Supervisor{
		cfg:         cfg,
		logger:      logger,
		audioSource: audioSource,
		upstream:    upstream.New(cfg.Upstream, logger),
		aggregator:  aggregator.New(cfg.Aggregation, logger),
		broadcaster: broadcast.New(cfg.Broadcast, logger),
	}
	s.state.Store(StateStopped)
	return s
}

func (s *Supervisor) State() State {
	return s.state.Load().(State)
}

func (s *Supervisor) Aggregator() *aggregator.Aggregator   { return s.aggregator }
func (s *Supervisor) Broadcaster() *broadcast.Broadcaster { return s.broadcaster }

// Start transitions STOPPED|ERROR -> STARTING -> RUNNING|DEGRADED, resets
// the aggregator state, allocates fresh queues and launches the three
// pipeline tasks under one errgroup.Group, exactly
// spec.md §4.F's wiring ("ERROR -> STARTING on start() (fresh
// attempt)").
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.State() {
	case StateStopped, StateError:
	default:
		return fmt.Errorf("supervisor: cannot start from state %s", s.State())
	}
	s.state.Store(StateStarting)
	s.aggregator.Reset()

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	g, gctx := errgroup.WithContext(runCtx)
	s.group = g

	audioCap := s.cfg.Queues.AudioQueueCapacity
	eventCap := s.cfg.Queues.EventQueueCapacity
	s.audioQ = make(chan []byte, audioCap)
	s.eventQ = make(chan normalize.Event, eventCap)

	g.Go(func() error { return s.runAudio(gctx) })
	g.Go(func() error { return s.runUpstream(gctx) })
	g.Go(func() error { return s.runAggregator(gctx) })
	g.Go(func() error { return s.watchConnection(gctx) })

	go s.awaitAudioReady(gctx)
	go s.awaitCompletion()
	return nil
}

// awaitAudioReady implements spec.md §4.F's STARTING -> RUNNING gate
// ("when AudioSource reports running within 1 s") and its DEGRADED
// fallback ("not yet running after 1 s but no hard failure — the
// aggregator/link continue trying").
func (s *Supervisor) awaitAudioReady(ctx context.Context) {
	const gate = time.Second
	const poll = 20 * time.Millisecond

	deadline := time.NewTimer(gate)
	defer deadline.Stop()
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.State() != StateStarting {
				return
			}
			if s.audioSource.Stats().Running {
				s.state.Store(StateRunning)
				return
			}
		case <-deadline.C:
			if s.State() == StateStarting {
				s.state.Store(StateDegraded)
			}
			return
		}
	}
}

// Stop transitions to STOPPING, cancels every task, and waits for them
// to unwind before settling on STOPPED (or ERROR if a task failed on
// the way down). Idempotent from STOPPED (spec.md §4.F/§6).
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.State()
	if prev == StateStopped {
		return nil
	}

	s.state.Store(StateStopping)
	s.audioSource.Stop()
	if s.cancel != nil {
		s.cancel()
	}

	// A prior ERROR already means the task group finished with its
	// terminal failure recorded in last_error; re-waiting on it would
	// just re-surface that same stale error instead of letting stop()
	// settle on STOPPED.
	if s.group != nil && prev != StateError {
		if err := s.group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			s.state.Store(StateError)
			s.metrics.recordLastError(err.Error())
			return err
		}
	}
	s.state.Store(StateStopped)
	return nil
}

// Reset discards aggregator state and metrics between runs
// (original_source/app/services/pipeline.py:reset), only valid from
// STOPPED.
func (s *Supervisor) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State() != StateStopped {
		return errors.New("supervisor: reset is only valid from STOPPED")
	}
	s.aggregator.Reset()
	s.metrics.reset()
	return nil
}

func (s *Supervisor) Metrics() Metrics {
	return s.metrics.snapshot()
}

func (s *Supervisor) runAudio(ctx context.Context) error {
	err := s.audioSource.Start(ctx, s.audioQ)
	if err != nil {
		s.fail(fmt.Errorf("audio: %w", err))
	}
	return err
}

func (s *Supervisor) runUpstream(ctx context.Context) error {
	err := s.upstream.Run(ctx, s.audioQ, s.eventQ)
	if err != nil {
		s.fail(fmt.Errorf("upstream: %w", err))
	}
	return err
}

func (s *Supervisor) runAggregator(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-s.eventQ:
			if !ok {
				return nil
			}
			s.aggregator.ProcessEvent(evt)
			s.broadcaster.Publish(evt)
			s.metrics.recordEvent(evt)
			if evt.Type == normalize.EventFinal {
				s.metrics.recordSegmentCommitted()
			}
		}
	}
}

// watchConnection toggles RUNNING <-> DEGRADED based on the upstream
// session's connectedness and the audio source's running state,
// without itself ending the task group.
func (s *Supervisor) watchConnection(ctx context.Context) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.metrics.syncFromAudio(s.audioSource.Stats().FramesCaptured, s.audioSource.Stats().FramesDropped)
			s.metrics.syncReconnectCount(s.upstream.ReconnectCount())
			s.metrics.syncEventsDropped(s.upstream.EventsDropped())

			healthy := s.upstream.Connected() && s.audioSource.Stats().Running
			switch s.State() {
			case StateRunning:
				if !healthy {
					s.state.Store(StateDegraded)
				}
			case StateDegraded:
				if healthy {
					s.state.Store(StateRunning)
				}
			}
		}
	}
}

func (s *Supervisor) awaitCompletion() {
	err := s.group.Wait()
	if s.State() == StateStopping {
		return // Stop() already owns the terminal transition
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		s.state.Store(StateError)
		s.metrics.recordLastError(err.Error())
		s.logger.Errorf("supervisor: pipeline task failed: %v", err)
		return
	}
	s.state.Store(StateStopped)
}

func (s *Supervisor) fail(err error) {
	s.metrics.recordLastError(err.Error())
	s.logger.Errorf("supervisor: %v", err)
}
