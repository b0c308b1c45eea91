// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "CLIO"

// BindFlags registers the CLI flags the entry point exposes, matching
// viper's standard flag-binding idiom.
func BindFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "path to a config file (yaml/json/toml)")
	flags.String("server.host", "", "control API bind host")
	flags.Int("server.port", 0, "control API bind port")
	flags.String("upstream.host", "", "transcription service host")
	flags.Int("upstream.port", 0, "transcription service port")
	flags.String("audio.input_mode", "", "microphone or file")
	flags.String("audio.input_file", "", "path to a WAV file when input_mode=file")
	flags.Bool("server.debug", false, "enable development logging")
}

// Load builds a Config from defaults, an optional config file,
// CLIO_-prefixed environment variables and explicitly set CLI flags, in
// increasing priority (viper's precedence order).
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	defaults := Default()
	setDefaults(v, defaults)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("config: bind flags: %w", err)
		}
		if path := v.GetString("config"); path != "" {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("upstream.host", cfg.Upstream.Host)
	v.SetDefault("upstream.port", cfg.Upstream.Port)
	v.SetDefault("upstream.language", cfg.Upstream.Language)
	v.SetDefault("upstream.task", cfg.Upstream.Task)
	v.SetDefault("upstream.model", cfg.Upstream.Model)
	v.SetDefault("upstream.use_vad", cfg.Upstream.UseVAD)
	v.SetDefault("upstream.send_last_n_segments", cfg.Upstream.SendLastNSegments)
	v.SetDefault("upstream.audio_format", cfg.Upstream.AudioFormat)
	v.SetDefault("upstream.handshake_timeout", cfg.Upstream.HandshakeTimeout)
	v.SetDefault("upstream.ready_timeout", cfg.Upstream.ReadyTimeout)
	v.SetDefault("upstream.max_reconnect_attempts", cfg.Upstream.MaxReconnectAttempts)
	v.SetDefault("upstream.backoff_base", cfg.Upstream.BackoffBase)
	v.SetDefault("upstream.backoff_max_interval", cfg.Upstream.BackoffMaxInterval)

	v.SetDefault("audio.input_mode", cfg.Audio.InputMode)
	v.SetDefault("audio.device_index", cfg.Audio.DeviceIndex)
	v.SetDefault("audio.device_name", cfg.Audio.DeviceName)
	v.SetDefault("audio.input_file", cfg.Audio.InputFile)
	v.SetDefault("audio.sample_rate", cfg.Audio.SampleRate)
	v.SetDefault("audio.channels", cfg.Audio.Channels)
	v.SetDefault("audio.chunk_size", cfg.Audio.ChunkSize)

	v.SetDefault("aggregation.max_unconsolidated_segments", cfg.Aggregation.MaxUnconsolidatedSegments)
	v.SetDefault("aggregation.max_consolidated_length", cfg.Aggregation.MaxConsolidatedLength)
	v.SetDefault("aggregation.max_questions", cfg.Aggregation.MaxQuestions)
	v.SetDefault("aggregation.commit_delay_seconds", cfg.Aggregation.CommitDelaySeconds)
	v.SetDefault("aggregation.enforce_english", cfg.Aggregation.EnforceEnglish)
	v.SetDefault("aggregation.min_english_confidence", cfg.Aggregation.MinEnglishConfidence)

	v.SetDefault("broadcast.subscriber_buffer_size", cfg.Broadcast.SubscriberBufferSize)
	v.SetDefault("broadcast.put_timeout", cfg.Broadcast.PutTimeout)
	v.SetDefault("broadcast.keep_alive_interval", cfg.Broadcast.KeepAliveInterval)
	v.SetDefault("broadcast.redis_enabled", cfg.Broadcast.RedisEnabled)
	v.SetDefault("broadcast.redis_addr", cfg.Broadcast.RedisAddr)
	v.SetDefault("broadcast.redis_db", cfg.Broadcast.RedisDB)
	v.SetDefault("broadcast.redis_channel", cfg.Broadcast.RedisChannel)

	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.debug", cfg.Server.Debug)

	v.SetDefault("queues.audio_queue_capacity", cfg.Queues.AudioQueueCapacity)
	v.SetDefault("queues.event_queue_capacity", cfg.Queues.EventQueueCapacity)
}
