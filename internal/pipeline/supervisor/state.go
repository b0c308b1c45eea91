// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package supervisor wires AudioSource, UpstreamLink, EventNormalizer,
// Aggregator and Broadcaster into the pipeline graph and drives the
// state machine of spec.md §4.F.
package supervisor

// State is one phase of the Supervisor's lifecycle (spec.md §4.F).
type State string

const (
	StateStopped  State = "STOPPED"
	StateStarting State = "STARTING"
	StateRunning  State = "RUNNING"
	StateDegraded State = "DEGRADED"
	StateStopping State = "STOPPING"
	StateError    State = "ERROR"
)
