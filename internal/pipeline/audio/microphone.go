// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package audio

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/clio-mediator/clio-mediator/pkg/commons"
)

// MicrophoneSource reads fixed-size chunks from a Device and pushes them
// onto audioQ until ctx is cancelled, mirroring
// audio_capture.py:_capture_microphone's read loop.
type MicrophoneSource struct {
	device     Device
	sampleRate int
	channels   int
	chunkSize  int
	logger     commons.Logger

	captured int64
	dropped  int64
	running  int32
	stop     chan struct{}
}

func NewMicrophoneSource(device Device, sampleRate, channels, chunkSize int, logger commons.Logger) *MicrophoneSource {
	if device == nil {
		device = NopDevice{}
	}
	return &MicrophoneSource{
		device:     device,
		sampleRate: sampleRate,
		channels:   channels,
		chunkSize:  chunkSize,
		logger:     logger,
		stop:       make(chan struct{}),
	}
}

func (m *MicrophoneSource) Start(ctx context.Context, out chan<- []byte) error {
	if err := m.device.Open(m.sampleRate, m.channels, m.chunkSize); err != nil {
		return fmt.Errorf("audio: opening microphone: %w", err)
	}
	atomic.StoreInt32(&m.running, 1)
	defer func() {
		atomic.StoreInt32(&m.running, 0)
		m.device.Close()
	}()

	buf := make([]byte, m.chunkSize)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-m.stop:
			return nil
		default:
		}

		n, err := m.device.Read(buf)
		if err != nil {
			m.logger.Errorf("audio: microphone read failed: %v", err)
			return fmt.Errorf("audio: reading microphone: %w", err)
		}
		atomic.AddInt64(&m.captured, 1)

		frame := make([]byte, n)
		copy(frame, buf[:n])
		select {
		case out <- frame:
		default:
			atomic.AddInt64(&m.dropped, 1)
		}
	}
}

func (m *MicrophoneSource) Stop() {
	close(m.stop)
}

func (m *MicrophoneSource) Stats() Stats {
	return Stats{
		FramesCaptured: atomic.LoadInt64(&m.captured),
		FramesDropped:  atomic.LoadInt64(&m.dropped),
		DeviceName:     m.device.Name(),
		Running:        atomic.LoadInt32(&m.running) == 1,
	}
}
