// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package aggregator maintains the unconsolidated segment table, the
// commit-delay ledger, the consolidated-text builder and the question
// set (spec.md §4.D) — the hardest part of the pipeline.
package aggregator

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"
)

// Status is a Segment's lifecycle phase. It only ever advances forward:
// PARTIAL -> FINAL -> COMMITTED (spec.md §3 invariants).
type Status string

const (
	StatusPartial   Status = "PARTIAL"
	StatusFinal     Status = "FINAL"
	StatusCommitted Status = "COMMITTED"
)

// Segment is one transcription hypothesis unit (spec.md §3).
type Segment struct {
	SegmentID  string
	StartTime  float64
	EndTime    float64
	Text       string // already normalized
	Status     Status
	Revision   int
	Confidence *float64
	Language   *string
	IsEnglish  bool
	TextHash   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Clone returns a deep-enough copy for snapshot reads; Confidence and
// Language are themselves pointers to immutable values once set, so a
// shallow field copy is sufficient.
func (s Segment) Clone() Segment {
	return s
}

var (
	whitespaceRun   = regexp.MustCompile(`\s+`)
	spaceBeforePunc = regexp.MustCompile(` +([.,!?;:])`)
)

// NormalizeText implements spec.md §4.D.1: trim, collapse internal
// whitespace to one space, remove the space before .,!?;:
func NormalizeText(text string) string {
	text = strings.TrimSpace(text)
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = spaceBeforePunc.ReplaceAllString(text, "$1")
	return text
}

// ComputeTextHash returns the 16 hex char SHA-256 digest of the
// lowercased normalized text (spec.md §3).
func ComputeTextHash(normalizedText string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(normalizedText)))
	return hex.EncodeToString(sum[:])[:16]
}
