// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package upstream owns the single WebSocket session held with the
// transcription service: handshake, steady-state audio send / event
// receive, and reconnect-with-backoff (spec.md §4.B).
package upstream

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/clio-mediator/clio-mediator/internal/config"
	"github.com/clio-mediator/clio-mediator/internal/pipeline/normalize"
	"github.com/clio-mediator/clio-mediator/pkg/commons"
)

// errWait and errDisconnect are internal sentinels recvLoop uses to tell
// Run why the session ended, without those being treated as link
// failures worth logging as errors.
var (
	errWait       = errors.New("upstream: WAIT observed")
	errDisconnect = errors.New("upstream: remote DISCONNECT observed")
)

// Link owns one upstream WebSocket session at a time and reconnects it
// for the lifetime of Run, grounded on whisperlive_client.py.
type Link struct {
	cfg        config.UpstreamConfig
	logger     commons.Logger
	normalizer *normalize.Normalizer

	mu             sync.Mutex
	conn           *websocket.Conn
	reconnectCount int64
	eventsDropped  int64
}

func New(cfg config.UpstreamConfig, logger commons.Logger) *Link {
	return &Link{
		cfg:        cfg,
		logger:     logger,
		normalizer: normalize.New(logger),
	}
}

// Run dials, hands shakes, and streams audioIn -> upstream,
// upstream -> eventsOut until ctx is cancelled or the reconnect budget
// (spec.md §4.B, max_reconnect_attempts) is exhausted.
func (l *Link) Run(ctx context.Context, audioIn <-chan []byte, eventsOut chan<- normalize.Event) error {
	policy := newReconnectPolicy(l.cfg)
	maxAttempts := l.cfg.MaxReconnectAttempts
	if maxAttempts <= 0 {
		maxAttempts = 10
	}

	attempts := 0
	waitTriggered := false
	firstConnect := true

	for {
		if ctx.Err() != nil {
			return nil
		}

		conn, waited, err := l.connect(ctx)
		if err != nil {
			attempts++
			if attempts > maxAttempts {
				return fmt.Errorf("%w: %v", ErrTransportExhausted, err)
			}
			l.logger.Warnf("upstream: connect failed (attempt %d/%d): %v", attempts, maxAttempts, err)
			if !sleepCtx(ctx, policy.Next(waitTriggered)) {
				return nil
			}
			waitTriggered = false
			continue
		}
		if waited {
			attempts++
			if attempts > maxAttempts {
				return fmt.Errorf("%w: server kept waiting", ErrTransportExhausted)
			}
			if !sleepCtx(ctx, policy.Next(true)) {
				return nil
			}
			waitTriggered = true
			continue
		}

		if !firstConnect {
			atomic.AddInt64(&l.reconnectCount, 1)
		}
		firstConnect = false
		attempts = 0
		policy.ResetOnSuccess()
		l.setConn(conn)

		sessionWaited, runErr := l.runSession(ctx, conn, audioIn, eventsOut)
		l.closeConn()
		waitTriggered = sessionWaited

		if ctx.Err() != nil {
			return nil
		}
		if runErr != nil {
			l.logger.Warnf("upstream: session ended: %v", runErr)
		}

		attempts++
		if attempts > maxAttempts {
			return fmt.Errorf("%w: %v", ErrTransportExhausted, runErr)
		}
		if !sleepCtx(ctx, policy.Next(waitTriggered)) {
			return nil
		}
	}
}

// connect dials and performs the handshake. waited reports a WAIT
// response: the connection is already closed in that case and the
// caller should retry with the gentler backoff.
func (l *Link) connect(ctx context.Context) (conn *websocket.Conn, waited bool, err error) {
	dialer := websocket.Dialer{HandshakeTimeout: l.cfg.HandshakeTimeout}
	if dialer.HandshakeTimeout <= 0 {
		dialer.HandshakeTimeout = 10 * time.Second
	}

	conn, _, err = dialer.DialContext(ctx, l.cfg.WSURL(), nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: dial: %v", ErrTransportRejected, err)
	}

	waited, err = handshake(conn, l.cfg)
	if err != nil {
		conn.Close()
		return nil, false, err
	}
	if waited {
		conn.Close()
		return nil, true, nil
	}
	return conn, false, nil
}

// runSession drives concurrent send/receive goroutines until the remote
// disconnects, a WAIT arrives, ctx is cancelled, or a transport error
// occurs.
func (l *Link) runSession(ctx context.Context, conn *websocket.Conn, audioIn <-chan []byte, eventsOut chan<- normalize.Event) (waitTriggered bool, err error) {
	g, egctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sendAudio(egctx, conn, audioIn, l.cfg.AudioFormat == "float32") })
	g.Go(func() error { return l.recvEvents(egctx, conn, eventsOut) })

	err = g.Wait()
	switch {
	case errors.Is(err, errWait):
		return true, nil
	case errors.Is(err, errDisconnect):
		return false, nil
	default:
		return false, err
	}
}

// sendAudio streams audioIn frames to conn, converting int16 PCM to
// normalized little-endian float32 when the handshake announced
// audio_format=float32 (spec.md §4.B step 4 / §6), grounded on
// whisperlive_client.py:_audio_sender's
// `np.frombuffer(data, int16).astype(float32)/32768.0` conversion.
func sendAudio(ctx context.Context, conn *websocket.Conn, audioIn <-chan []byte, float32Wire bool) error {
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.TextMessage, []byte("END_OF_AUDIO"))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil
		case frame, ok := <-audioIn:
			if !ok {
				return nil
			}
			payload := frame
			if float32Wire {
				payload = int16LEToFloat32LE(frame)
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
				return fmt.Errorf("upstream: writing audio frame: %w", err)
			}
		}
	}
}

// int16LEToFloat32LE converts little-endian int16 PCM samples to
// little-endian float32 samples normalized to [-1, 1] (divide by
// 32768.0, matching the original's int16->float32 cast).
func int16LEToFloat32LE(frame []byte) []byte {
	n := len(frame) / 2
	out := make([]byte, n*4)
	for i := 0; i < n; i++ {
		sample := int16(binary.LittleEndian.Uint16(frame[i*2 : i*2+2]))
		f := float32(sample) / 32768.0
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], math.Float32bits(f))
	}
	return out
}

func (l *Link) recvEvents(ctx context.Context, conn *websocket.Conn, eventsOut chan<- normalize.Event) error {
	index := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("upstream: reading message: %w", err)
		}

		events, err := l.normalizer.Normalize(raw, index)
		index++
		if err != nil {
			l.logger.Warnf("upstream: dropping malformed message: %v", err)
			continue
		}

		for _, evt := range events {
			switch evt.Type {
			case normalize.EventWait:
				return errWait
			case normalize.EventDisconnect:
				return errDisconnect
			}
			select {
			case eventsOut <- evt:
			default:
				atomic.AddInt64(&l.eventsDropped, 1)
				l.logger.Warnf("upstream: eventQ full, dropping %s event", evt.Type)
			}
		}
	}
}

func (l *Link) setConn(conn *websocket.Conn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.conn = conn
}

func (l *Link) closeConn() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil {
		l.conn.Close()
		l.conn = nil
	}
}

// Connected reports whether a session is currently established.
func (l *Link) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn != nil
}

// ReconnectCount returns the number of successful reconnects
// (spec.md §8), excluding the initial connect.
func (l *Link) ReconnectCount() int64 {
	return atomic.LoadInt64(&l.reconnectCount)
}

// EventsDropped returns the number of inbound events dropped because
// eventQ was full (spec.md §5/§7's BackpressureOverflow kind).
func (l *Link) EventsDropped() int64 {
	return atomic.LoadInt64(&l.eventsDropped)
}
