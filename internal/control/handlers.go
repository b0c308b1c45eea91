// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package control

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clio-mediator/clio-mediator/internal/pipeline/supervisor"
)

// StatusResponse mirrors original_source/app/models/control.py's
// StatusResponse, renamed to stay transport-agnostic.
type StatusResponse struct {
	State          supervisor.State `json:"state"`
	ReconnectCount int64            `json:"reconnect_count"`
	SubscriberCount int             `json:"subscriber_count"`
}

// HealthResponse implements SPEC_FULL.md §11's supplemented health
// detail map, grounded on app/models/control.py:HealthResponse.
type HealthResponse struct {
	Status            string            `json:"status"`
	UpstreamReady     bool              `json:"upstream_ready"`
	UpstreamConnected bool              `json:"upstream_connected"`
	Details           map[string]string `json:"details,omitempty"`
}

func (s *Server) handleStart(c *gin.Context) {
	if err := s.supervisor.Start(c.Request.Context()); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"state": s.supervisor.State()})
}

func (s *Server) handleStop(c *gin.Context) {
	if err := s.supervisor.Stop(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": s.supervisor.State()})
}

func (s *Server) handleStatus(c *gin.Context) {
	m := s.supervisor.Metrics()
	c.JSON(http.StatusOK, StatusResponse{
		State:           s.supervisor.State(),
		ReconnectCount:  m.ReconnectCount,
		SubscriberCount: s.supervisor.Broadcaster().SubscriberCount(),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	state := s.supervisor.State()
	m := s.supervisor.Metrics()

	status := "healthy"
	details := map[string]string{}
	switch state {
	case supervisor.StateError:
		status = "unhealthy"
		if m.LastError != "" {
			details["last_error"] = m.LastError
		}
	case supervisor.StateDegraded:
		status = "degraded"
		details["reason"] = "upstream session disconnected, reconnecting"
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:            status,
		UpstreamReady:     state == supervisor.StateRunning || state == supervisor.StateDegraded,
		UpstreamConnected: state == supervisor.StateRunning,
		Details:           details,
	})
}

func (s *Server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.supervisor.Metrics())
}

func (s *Server) handleUnconsolidated(c *gin.Context) {
	c.JSON(http.StatusOK, s.supervisor.Aggregator().SnapshotUnconsolidated())
}

func (s *Server) handleConsolidated(c *gin.Context) {
	c.JSON(http.StatusOK, s.supervisor.Aggregator().SnapshotConsolidated())
}

func (s *Server) handleQuestions(c *gin.Context) {
	c.JSON(http.StatusOK, s.supervisor.Aggregator().SnapshotQuestions())
}
