// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package audio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clio-mediator/clio-mediator/pkg/commons"
)

type fakeDevice struct {
	reads int
	fail  bool
}

func (d *fakeDevice) Open(_, _, _ int) error { return nil }
func (d *fakeDevice) Read(buf []byte) (int, error) {
	d.reads++
	if d.fail {
		return 0, errors.New("boom")
	}
	return len(buf), nil
}
func (d *fakeDevice) Close() error { return nil }
func (d *fakeDevice) Name() string { return "fake" }

func TestMicrophoneSource_NoDevice_ReturnsDeviceUnavailable(t *testing.T) {
	src := NewMicrophoneSource(nil, 16000, 1, 320, commons.NewNopLogger())
	err := src.Start(context.Background(), make(chan []byte, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeviceUnavailable)
}

func TestMicrophoneSource_CapturesFrames(t *testing.T) {
	dev := &fakeDevice{}
	src := NewMicrophoneSource(dev, 16000, 1, 320, commons.NewNopLogger())
	out := make(chan []byte, 10)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_ = src.Start(ctx, out)

	stats := src.Stats()
	assert.Greater(t, stats.FramesCaptured, int64(0))
	assert.False(t, stats.Running)
}

func TestMicrophoneSource_DropsOnFullQueue(t *testing.T) {
	dev := &fakeDevice{}
	src := NewMicrophoneSource(dev, 16000, 1, 320, commons.NewNopLogger())
	out := make(chan []byte) // unbuffered: every send without a receiver drops

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_ = src.Start(ctx, out)

	stats := src.Stats()
	assert.Greater(t, stats.FramesDropped, int64(0))
}

func TestFileSource_MissingFile_ReturnsDeviceUnavailable(t *testing.T) {
	src := NewFileSource("/nonexistent/path.wav", 16000, 1, 320, commons.NewNopLogger())
	err := src.Start(context.Background(), make(chan []byte, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeviceUnavailable)
}
