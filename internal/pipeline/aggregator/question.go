// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package aggregator

import (
	"strings"
	"time"
)

// Question is a segment whose text is interrogative or imperative by
// the lexical tests in spec.md §4.D.4.
type Question struct {
	QuestionID     string
	Text           string
	NormalizedText string
	SegmentIDs     []string
	FirstSeen      time.Time
	LastSeen       time.Time
	SourceTypes    []string // subset of {"interrogative", "imperative"}
	IsExplicit     bool
}

var interrogativeMarkers = map[string]bool{
	"what": true, "how": true, "why": true, "when": true,
	"where": true, "who": true, "which": true, "whose": true,
}

var imperativeMarkers = []string{
	"imagine", "describe", "show me", "tell me", "present",
	"explain", "what if", "let's say", "suppose", "consider",
}

// detectQuestionTypes implements spec.md §4.D.4's lexical tests against
// already-normalized text.
func detectQuestionTypes(normalizedText string) []string {
	lower := strings.ToLower(normalizedText)

	var types []string
	if strings.Contains(normalizedText, "?") || containsMarkerWord(lower) {
		types = append(types, "interrogative")
	}
	for _, marker := range imperativeMarkers {
		if strings.HasPrefix(lower, marker) {
			types = append(types, "imperative")
			break
		}
	}
	return types
}

func containsMarkerWord(lower string) bool {
	for _, word := range strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z') && r != '\''
	}) {
		if interrogativeMarkers[word] {
			return true
		}
	}
	return false
}

// extractQuestion implements spec.md §4.D.4: only applied to COMMITTED,
// English segments. Creates a new Question on first detection; appends
// the segment id and bumps last_seen on re-detection of the same
// question id.
func (a *Aggregator) extractQuestion(seg *Segment, now time.Time) {
	if !seg.IsEnglish {
		return
	}
	types := detectQuestionTypes(seg.Text)
	if len(types) == 0 {
		return
	}

	qid := ComputeTextHash(seg.Text)
	if existing, ok := a.questions[qid]; ok {
		if !containsString(existing.SegmentIDs, seg.SegmentID) {
			existing.SegmentIDs = append(existing.SegmentIDs, seg.SegmentID)
		}
		existing.LastSeen = now
		return
	}

	q := &Question{
		QuestionID:     qid,
		Text:           seg.Text,
		NormalizedText: strings.ToLower(strings.TrimSpace(seg.Text)),
		SegmentIDs:     []string{seg.SegmentID},
		FirstSeen:      now,
		LastSeen:       now,
		SourceTypes:    types,
		IsExplicit:     containsString(types, "interrogative"),
	}
	a.questions[qid] = q
	a.questionOrder = append(a.questionOrder, qid)
	a.enforceQuestionLimit()
}

func (a *Aggregator) enforceQuestionLimit() {
	for len(a.questions) > a.cfg.MaxQuestions {
		oldestIdx := 0
		oldestID := a.questionOrder[0]
		oldest := a.questions[oldestID]
		for i, qid := range a.questionOrder {
			q, ok := a.questions[qid]
			if !ok {
				continue
			}
			if q.FirstSeen.Before(oldest.FirstSeen) {
				oldest = q
				oldestID = qid
				oldestIdx = i
			}
		}
		delete(a.questions, oldestID)
		a.questionOrder = append(a.questionOrder[:oldestIdx], a.questionOrder[oldestIdx+1:]...)
	}
}

func containsString(items []string, target string) bool {
	for _, it := range items {
		if it == target {
			return true
		}
	}
	return false
}
