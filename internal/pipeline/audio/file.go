// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package audio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/clio-mediator/clio-mediator/pkg/commons"
)

// wavHeaderSize is the canonical 44-byte PCM WAV header; FileSource
// skips it and replays the raw sample bytes that follow.
const wavHeaderSize = 44

// FileSource replays a WAV file chunk by chunk, paced to wall-clock time
// so downstream consumers see frames at roughly the rate a live capture
// would produce them, grounded on audio_capture.py:_capture_file.
type FileSource struct {
	path       string
	sampleRate int
	channels   int
	chunkSize  int
	logger     commons.Logger

	captured int64
	dropped  int64
	running  int32
	stop     chan struct{}
}

func NewFileSource(path string, sampleRate, channels, chunkSize int, logger commons.Logger) *FileSource {
	return &FileSource{
		path:       path,
		sampleRate: sampleRate,
		channels:   channels,
		chunkSize:  chunkSize,
		logger:     logger,
		stop:       make(chan struct{}),
	}
}

func (f *FileSource) Start(ctx context.Context, out chan<- []byte) error {
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	if _, err := reader.Discard(wavHeaderSize); err != nil {
		return fmt.Errorf("%w: reading header: %v", ErrDeviceUnavailable, err)
	}

	bytesPerSample := 2 // 16-bit PCM
	frameDuration := 20 * time.Millisecond
	if f.sampleRate > 0 && f.channels > 0 {
		bytesPerSecond := f.sampleRate * f.channels * bytesPerSample
		frameDuration = time.Duration(float64(f.chunkSize) / float64(bytesPerSecond) * float64(time.Second))
	}

	atomic.StoreInt32(&f.running, 1)
	defer atomic.StoreInt32(&f.running, 0)

	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	buf := make([]byte, f.chunkSize)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-f.stop:
			return nil
		case <-ticker.C:
		}

		n, err := io.ReadFull(reader, buf)
		if n == 0 && err != nil {
			return nil // end of file: replay complete, not an error
		}
		atomic.AddInt64(&f.captured, 1)

		frame := make([]byte, n)
		copy(frame, buf[:n])
		select {
		case out <- frame:
		default:
			atomic.AddInt64(&f.dropped, 1)
		}

		if err != nil {
			return nil
		}
	}
}

func (f *FileSource) Stop() {
	close(f.stop)
}

func (f *FileSource) Stats() Stats {
	return Stats{
		FramesCaptured: atomic.LoadInt64(&f.captured),
		FramesDropped:  atomic.LoadInt64(&f.dropped),
		DeviceName:     f.path,
		Running:        atomic.LoadInt32(&f.running) == 1,
	}
}
