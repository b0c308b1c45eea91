// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clio-mediator/clio-mediator/internal/config"
	"github.com/clio-mediator/clio-mediator/internal/pipeline/normalize"
	"github.com/clio-mediator/clio-mediator/pkg/commons"
)

func TestReconnectPolicy_NormalGrowsExponentially(t *testing.T) {
	p := newReconnectPolicy(config.UpstreamConfig{BackoffBase: 100 * time.Millisecond, BackoffMaxInterval: 2 * time.Second})
	first := p.Next(false)
	second := p.Next(false)
	// first is 100ms ±20%, second 200ms ±20%: jittered, but growth holds.
	assert.Greater(t, second, first)
}

func TestReconnectPolicy_GentleAfterWaitIsSeparateFromNormal(t *testing.T) {
	p := newReconnectPolicy(config.UpstreamConfig{BackoffBase: 100 * time.Millisecond, BackoffMaxInterval: 2 * time.Second})
	gentle := p.Next(true)
	normal := p.Next(false)
	assert.Greater(t, gentle, time.Duration(0))
	assert.Greater(t, normal, time.Duration(0))
	// The gentle step above did not advance the normal sequence, which is
	// still at its first interval (100ms ±20%).
	assert.Less(t, normal, 150*time.Millisecond)
}

func TestReconnectPolicy_ClampedToMaxInterval(t *testing.T) {
	p := newReconnectPolicy(config.UpstreamConfig{BackoffBase: time.Second, BackoffMaxInterval: 2 * time.Second})
	var last time.Duration
	for i := 0; i < 20; i++ {
		last = p.Next(false)
	}
	assert.LessOrEqual(t, last, 2*time.Second+time.Second) // MaxInterval plus jitter headroom
}

// newEchoUpstream spins a local WS server that performs the handshake
// (SERVER_READY), echoes one FINAL segment event, then waits for
// END_OF_AUDIO before closing.
func newEchoUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var hs map[string]interface{}
		require.NoError(t, conn.ReadJSON(&hs))
		require.NoError(t, conn.WriteJSON(map[string]string{"message": "SERVER_READY"}))

		_, _, err = conn.ReadMessage() // one audio frame
		if err != nil {
			return
		}

		payload, _ := json.Marshal(map[string]interface{}{
			"segments": []map[string]interface{}{
				{"start": 0.0, "end": 1.0, "text": "hello world", "completed": true, "id": 1},
			},
		})
		_ = conn.WriteMessage(websocket.TextMessage, payload)

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if string(raw) == "END_OF_AUDIO" {
				return
			}
		}
	}))
}

func TestLink_Run_HandshakeAndSegmentRoundTrip(t *testing.T) {
	srv := newEchoUpstream(t)
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	cfg := config.UpstreamConfig{
		Host:                 u.Hostname(),
		Port:                 port,
		MaxReconnectAttempts: 1,
		HandshakeTimeout:     2 * time.Second,
		ReadyTimeout:         2 * time.Second,
		BackoffBase:          10 * time.Millisecond,
		BackoffMaxInterval:   50 * time.Millisecond,
	}
	link := New(cfg, commons.NewNopLogger())

	audioIn := make(chan []byte, 1)
	eventsOut := make(chan normalize.Event, 4)
	audioIn <- []byte{0x01, 0x02}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- link.Run(ctx, audioIn, eventsOut) }()

	select {
	case evt := <-eventsOut:
		assert.Equal(t, normalize.EventFinal, evt.Type)
		assert.Equal(t, "hello world", evt.Text)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for segment event")
	}

	cancel()
	<-done
}
