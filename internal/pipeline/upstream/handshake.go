// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package upstream

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/clio-mediator/clio-mediator/internal/config"
)

// handshakeRequest is the session-open payload, grounded on
// whisperlive_client.py's connect() handshake dict.
type handshakeRequest struct {
	UID               string `json:"uid"`
	Language          string `json:"language,omitempty"`
	Task              string `json:"task,omitempty"`
	Model             string `json:"model,omitempty"`
	UseVAD            bool   `json:"use_vad"`
	SendLastNSegments int    `json:"send_last_n_segments,omitempty"`
	AudioFormat       string `json:"audio_format,omitempty"`
}

// handshake opens the session and blocks until SERVER_READY or WAIT is
// observed, or ready_timeout elapses. On WAIT it returns immediately so
// the caller can close and reconnect with the gentler backoff.
func handshake(conn *websocket.Conn, cfg config.UpstreamConfig) (waitTriggered bool, err error) {
	req := handshakeRequest{
		UID:               uuid.NewString(),
		Language:          cfg.Language,
		Task:              cfg.Task,
		Model:             cfg.Model,
		UseVAD:            cfg.UseVAD,
		SendLastNSegments: cfg.SendLastNSegments,
		AudioFormat:       cfg.AudioFormat,
	}
	if err := conn.WriteJSON(req); err != nil {
		return false, fmt.Errorf("%w: sending handshake: %v", ErrTransportRejected, err)
	}

	readyTimeout := cfg.ReadyTimeout
	if readyTimeout <= 0 {
		readyTimeout = 30 * time.Second
	}
	deadline := time.Now().Add(readyTimeout)
	if err := conn.SetReadDeadline(deadline); err != nil {
		return false, fmt.Errorf("%w: setting read deadline: %v", ErrTransportRejected, err)
	}

	for time.Now().Before(deadline) {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return false, fmt.Errorf("%w: awaiting SERVER_READY: %v", ErrTransportRejected, err)
		}

		var probe struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			continue
		}
		switch {
		case probe.Message == "SERVER_READY":
			return false, nil
		case probe.Status == "WAIT":
			return true, nil
		case probe.Message == "DISCONNECT":
			return false, fmt.Errorf("%w: disconnected during handshake", ErrTransportRejected)
		}
	}
	return false, fmt.Errorf("%w: ready_timeout elapsed", ErrTransportRejected)
}
