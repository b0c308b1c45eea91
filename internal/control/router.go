// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package control exposes the pipeline's control/observability surface
// over HTTP (spec.md's Configuration & External Interfaces sections),
// using gin exactly as the teacher wires its own HTTP APIs.
package control

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/clio-mediator/clio-mediator/internal/pipeline/supervisor"
	"github.com/clio-mediator/clio-mediator/pkg/commons"
)

// Server owns the gin.Engine and the Supervisor it controls.
type Server struct {
	supervisor *supervisor.Supervisor
	logger     commons.Logger
	engine     *gin.Engine
}

func New(sup *supervisor.Supervisor, logger commons.Logger, debug bool) *Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{supervisor: sup, logger: logger, engine: gin.New()}
	s.engine.Use(gin.Recovery())
	s.engine.Use(cors.Default())
	s.routes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) routes() {
	v1 := s.engine.Group("/v1")

	ctrl := v1.Group("/control")
	ctrl.POST("/start", s.handleStart)
	ctrl.POST("/stop", s.handleStop)
	ctrl.GET("/status", s.handleStatus)
	ctrl.GET("/health", s.handleHealth)
	ctrl.GET("/metrics", s.handleMetrics)

	transcript := v1.Group("/transcript")
	transcript.GET("/unconsolidated", s.handleUnconsolidated)
	transcript.GET("/consolidated", s.handleConsolidated)
	transcript.GET("/questions", s.handleQuestions)

	stream := v1.Group("/stream")
	stream.GET("/events", s.handleSSE)
	stream.GET("/ws", s.handleWS)
}
