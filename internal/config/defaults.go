// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package config

import "time"

// Default returns a Config populated with spec.md §6's defaults.
func Default() Config {
	return Config{
		Upstream: UpstreamConfig{
			Host:                 "localhost",
			Port:                 9090,
			Language:             "en",
			Task:                 "transcribe",
			Model:                "base",
			UseVAD:               true,
			SendLastNSegments:    10,
			AudioFormat:          "float32",
			HandshakeTimeout:     10 * time.Second,
			ReadyTimeout:         30 * time.Second,
			MaxReconnectAttempts: 10,
			BackoffBase:          time.Second,
			BackoffMaxInterval:   30 * time.Second,
		},
		Audio: AudioConfig{
			InputMode:  "microphone",
			DeviceIndex: -1,
			SampleRate: 16000,
			Channels:   1,
			ChunkSize:  4096,
		},
		Aggregation: AggregationConfig{
			MaxUnconsolidatedSegments: 1000,
			MaxConsolidatedLength:     100000,
			MaxQuestions:              500,
			CommitDelaySeconds:        2.0,
			EnforceEnglish:            false,
			MinEnglishConfidence:      0.8,
		},
		Broadcast: BroadcastConfig{
			SubscriberBufferSize: 50,
			PutTimeout:           time.Second,
			KeepAliveInterval:    30 * time.Second,
			RedisEnabled:         false,
			RedisAddr:            "localhost:6379",
			RedisDB:              0,
			RedisChannel:         "clio:events",
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8001,
		},
		Queues: QueueConfig{
			AudioQueueCapacity: 150,
			EventQueueCapacity: 150,
		},
	}
}
