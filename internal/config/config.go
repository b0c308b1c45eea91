// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package config

import (
	"strconv"
	"time"
)

// UpstreamConfig configures the single session held with the
// transcription service (spec.md §4.B, §6).
type UpstreamConfig struct {
	Host string `mapstructure:"host" validate:"required"`
	Port int    `mapstructure:"port" validate:"required,min=1,max=65535"`

	Language            string `mapstructure:"language"`
	Task                string `mapstructure:"task"`
	Model               string `mapstructure:"model"`
	UseVAD              bool   `mapstructure:"use_vad"`
	SendLastNSegments   int    `mapstructure:"send_last_n_segments" validate:"min=0"`
	AudioFormat         string `mapstructure:"audio_format" validate:"oneof=int16 float32"`
	HandshakeTimeout    time.Duration `mapstructure:"handshake_timeout"`
	ReadyTimeout        time.Duration `mapstructure:"ready_timeout"`
	MaxReconnectAttempts int          `mapstructure:"max_reconnect_attempts" validate:"min=1"`
	BackoffBase         time.Duration `mapstructure:"backoff_base"`
	BackoffMaxInterval  time.Duration `mapstructure:"backoff_max_interval"`
}

func (u UpstreamConfig) WSURL() string {
	return "ws://" + u.Host + ":" + strconv.Itoa(u.Port)
}

// AudioConfig configures frame capture (spec.md §4.A, §6).
type AudioConfig struct {
	InputMode   string `mapstructure:"input_mode" validate:"oneof=microphone file"`
	DeviceIndex int    `mapstructure:"device_index"`
	DeviceName  string `mapstructure:"device_name"`
	InputFile   string `mapstructure:"input_file"`
	SampleRate  int    `mapstructure:"sample_rate" validate:"required,min=8000"`
	Channels    int    `mapstructure:"channels" validate:"required,min=1"`
	ChunkSize   int    `mapstructure:"chunk_size" validate:"required,min=1"`
}

// AggregationConfig configures the Aggregator (spec.md §4.D, §6).
type AggregationConfig struct {
	MaxUnconsolidatedSegments int     `mapstructure:"max_unconsolidated_segments" validate:"required,min=1"`
	MaxConsolidatedLength     int     `mapstructure:"max_consolidated_length" validate:"required,min=1"`
	MaxQuestions              int     `mapstructure:"max_questions" validate:"required,min=1"`
	CommitDelaySeconds        float64 `mapstructure:"commit_delay_seconds" validate:"min=0"`
	EnforceEnglish            bool    `mapstructure:"enforce_english"`
	MinEnglishConfidence      float64 `mapstructure:"min_english_confidence" validate:"min=0,max=1"`
}

func (a AggregationConfig) CommitDelay() time.Duration {
	return time.Duration(a.CommitDelaySeconds * float64(time.Second))
}

// BroadcastConfig configures subscriber fan-out (spec.md §4.E) plus the
// optional Redis fan-out/ledger-mirror supplement (SPEC_FULL.md §6.D/E).
type BroadcastConfig struct {
	SubscriberBufferSize int           `mapstructure:"subscriber_buffer_size" validate:"required,min=1"`
	PutTimeout           time.Duration `mapstructure:"put_timeout"`
	KeepAliveInterval    time.Duration `mapstructure:"keep_alive_interval"`

	RedisEnabled bool   `mapstructure:"redis_enabled"`
	RedisAddr    string `mapstructure:"redis_addr"`
	RedisDB      int    `mapstructure:"redis_db"`
	RedisChannel string `mapstructure:"redis_channel"`
}

// ServerConfig configures the control/observability HTTP surface.
type ServerConfig struct {
	Host  string `mapstructure:"host" validate:"required"`
	Port  int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Debug bool   `mapstructure:"debug"`
}

// QueueConfig configures internal channel capacities (spec.md §5).
type QueueConfig struct {
	AudioQueueCapacity int `mapstructure:"audio_queue_capacity" validate:"required,min=1"`
	EventQueueCapacity int `mapstructure:"event_queue_capacity" validate:"required,min=1"`
}

// Config is the root configuration object, loaded by Load and validated
// with go-playground/validator before the Supervisor is constructed.
type Config struct {
	Upstream    UpstreamConfig    `mapstructure:"upstream"`
	Audio       AudioConfig       `mapstructure:"audio"`
	Aggregation AggregationConfig `mapstructure:"aggregation"`
	Broadcast   BroadcastConfig   `mapstructure:"broadcast"`
	Server      ServerConfig      `mapstructure:"server"`
	Queues      QueueConfig       `mapstructure:"queues"`
}
