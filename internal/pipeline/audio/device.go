// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package audio

// Device is the narrow capture-hardware contract MicrophoneSource is
// built against. Real device binding (PortAudio or similar) is a driver
// concern outside this module's scope (spec.md §11's "audio-device
// enumeration ... out of scope"); this interface is the seam a real
// binding would implement, backed here by NopDevice for tests and for
// running without a capture driver installed.
type Device interface {
	Open(sampleRate, channels, chunkSize int) error
	Read(buf []byte) (int, error)
	Close() error
	Name() string
}

// NopDevice implements Device by refusing to open, so a MicrophoneSource
// constructed without an injected real Device fails fast with
// ErrDeviceUnavailable rather than silently producing silence.
type NopDevice struct{}

func (NopDevice) Open(_, _, _ int) error    { return ErrDeviceUnavailable }
func (NopDevice) Read(_ []byte) (int, error) { return 0, ErrDeviceUnavailable }
func (NopDevice) Close() error               { return nil }
func (NopDevice) Name() string                { return "nop" }
