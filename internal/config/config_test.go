// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_PassesValidation(t *testing.T) {
	cfg := Default()
	assert.NoError(t, Validate(&cfg))
}

func TestValidate_RejectsBadPort(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	assert.Error(t, Validate(&cfg))
}

func TestValidate_RejectsBadAudioFormat(t *testing.T) {
	cfg := Default()
	cfg.Upstream.AudioFormat = "pcm24"
	assert.Error(t, Validate(&cfg))
}

func TestLoad_EnvironmentOverridesDefault(t *testing.T) {
	t.Setenv("CLIO_UPSTREAM_HOST", "whisper.internal")
	t.Setenv("CLIO_UPSTREAM_PORT", "9999")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(flags)
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load(flags)
	require.NoError(t, err)
	assert.Equal(t, "whisper.internal", cfg.Upstream.Host)
	assert.Equal(t, 9999, cfg.Upstream.Port)
}

func TestUpstreamConfig_WSURL(t *testing.T) {
	u := UpstreamConfig{Host: "localhost", Port: 9090}
	assert.Equal(t, "ws://localhost:9090", u.WSURL())
}

func TestAggregationConfig_CommitDelay(t *testing.T) {
	a := AggregationConfig{CommitDelaySeconds: 1.5}
	assert.Equal(t, 1500_000_000, int(a.CommitDelay()))
}
