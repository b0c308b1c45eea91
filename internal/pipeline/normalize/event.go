// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package normalize closes the transcription service's loose JSON
// messages into the tagged event union the Aggregator operates on
// (spec.md §4.C, §9 "dynamic dict events -> tagged variants").
package normalize

import "time"

// EventType is the closed set of events the Aggregator and Broadcaster
// understand.
type EventType string

const (
	EventServerReady      EventType = "SERVER_READY"
	EventDisconnect       EventType = "DISCONNECT"
	EventWait             EventType = "WAIT"
	EventError            EventType = "ERROR"
	EventLanguageDetected EventType = "LANGUAGE_DETECTED"
	EventPartial          EventType = "PARTIAL"
	EventFinal            EventType = "FINAL"
)

// Event is the normalized, per-variant payload. Not every field is set
// for every Type; see the Trigger column of spec.md §4.C.
type Event struct {
	Type      EventType
	Timestamp time.Time

	// Segment-bearing variants (PARTIAL / FINAL).
	SegmentID string
	StartTime float64
	EndTime   float64
	Text      string
	ClientUID string

	// LANGUAGE_DETECTED / segment language tagging.
	Language     string
	LanguageProb float64

	// SERVER_READY.
	Backend string

	// WAIT / ERROR free-form message.
	Message string
}
