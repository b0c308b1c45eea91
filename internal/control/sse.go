// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package control

import (
	"io"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
)

const sseKeepAlive = 30 * time.Second

// handleSSE streams every broadcast event to the client as Server-Sent
// Events, with a keep-alive ping every 30s (spec.md §6's stream surface).
func (s *Server) handleSSE(c *gin.Context) {
	id, events := s.supervisor.Broadcaster().Subscribe()
	defer s.supervisor.Broadcaster().Unsubscribe(id)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case evt, ok := <-events:
			if !ok {
				return false
			}
			sse.Encode(w, sse.Event{Event: string(evt.Type), Data: evt})
			return true
		case <-ticker.C:
			sse.Encode(w, sse.Event{Event: "keep-alive", Data: ""})
			return true
		}
	})
}
