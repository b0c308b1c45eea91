// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package aggregator

import (
	"sort"
	"strings"
	"time"
)

// ConsolidatedTranscript is the monotone, append-only prose
// reconstructed from committed segments (spec.md §3).
type ConsolidatedTranscript struct {
	Text         string
	Revision     int
	SegmentCount int
	LastUpdate   time.Time
}

// consolidate runs the central routine of spec.md §4.D.3 over every
// currently committed segment, in (start_time, segment_id) order,
// skipping anything already in the ledger and anything judged an
// exact/substring/highly-overlapping duplicate of the current text.
func (a *Aggregator) consolidate(now time.Time) {
	committed := a.view.Committed()
	sort.SliceStable(committed, func(i, j int) bool {
		if committed[i].StartTime != committed[j].StartTime {
			return committed[i].StartTime < committed[j].StartTime
		}
		return committed[i].SegmentID < committed[j].SegmentID
	})

	appended := false
	for _, seg := range committed {
		if seg.TextHash == "" || a.ledger.Contains(seg.TextHash) {
			continue
		}

		nrm := strings.TrimSpace(seg.Text)
		if nrm == "" {
			continue
		}
		cur := strings.TrimSpace(a.consolidated.Text)
		curLower := strings.ToLower(cur)
		nrmLower := strings.ToLower(nrm)

		if isDuplicate(curLower, nrmLower) {
			a.ledger.Add(seg.TextHash, now)
			continue
		}

		suffix := nonOverlappingSuffix(nrm, a.consolidated.Text)
		if suffix != "" {
			if a.consolidated.Text != "" && !strings.HasSuffix(a.consolidated.Text, " ") {
				a.consolidated.Text += " "
			}
			a.consolidated.Text += suffix
			appended = true
		}
		a.ledger.Add(seg.TextHash, now)
	}

	a.consolidated.Text = strings.TrimRight(a.consolidated.Text, " \t\n\r")
	if len(a.consolidated.Text) > a.cfg.MaxConsolidatedLength {
		a.consolidated.Text = a.consolidated.Text[:a.cfg.MaxConsolidatedLength]
	}
	if appended {
		a.consolidated.Revision++
		a.consolidated.SegmentCount = len(committed)
		a.consolidated.LastUpdate = now
	}
}

// isDuplicate implements spec.md §4.D.3 step 2's skip conditions:
// exact match, substring containment, or > 0.8 word overlap ratio.
func isDuplicate(curLower, nrmLower string) bool {
	if curLower == nrmLower {
		return true
	}
	if nrmLower != "" && strings.Contains(curLower, nrmLower) {
		return true
	}
	return overlapRatio(curLower, nrmLower) > 0.8
}

// overlapRatio is |words(cur) ∩ words(nrm)| / |words(nrm)| over unique
// words, 0 if nrm has no words (spec.md §4.D.3, glossary).
func overlapRatio(curLower, nrmLower string) float64 {
	nrmSet := wordSet(nrmLower)
	if len(nrmSet) == 0 {
		return 0
	}
	curSet := wordSet(curLower)
	common := 0
	for w := range nrmSet {
		if curSet[w] {
			common++
		}
	}
	return float64(common) / float64(len(nrmSet))
}

func wordSet(s string) map[string]bool {
	words := strings.Fields(s)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// nonOverlappingSuffix computes the non-overlapping suffix of segNormalized
// relative to currentText (spec.md §4.D.3 step 3). segNormalized keeps its
// original case; only comparisons are lowercased.
func nonOverlappingSuffix(segNormalized, currentText string) string {
	segNormalized = strings.TrimSpace(segNormalized)
	if currentText == "" {
		return segNormalized
	}

	curLower := strings.ToLower(strings.TrimSpace(currentText))
	nrmLower := strings.ToLower(segNormalized)

	if strings.HasPrefix(nrmLower, curLower) {
		// nrm is a superset anchored at the start; the source drops the
		// new information here (spec.md §9 open question) — preserved.
		return ""
	}
	if strings.HasSuffix(curLower, nrmLower) {
		return ""
	}

	curWords := strings.Fields(curLower)
	nrmWordsLower := strings.Fields(nrmLower)
	nrmWordsOriginal := strings.Fields(segNormalized)

	// Find the longest run of words at the end of the current text that
	// reappears at the start of the new segment, so the two can be
	// stitched without repeating it.
	maxK := 0
	limit := len(curWords)
	if len(nrmWordsLower) < limit {
		limit = len(nrmWordsLower)
	}
	for k := limit; k >= 1; k-- {
		prefixNew := strings.Join(nrmWordsLower[:k], " ")
		suffixCur := strings.Join(curWords[len(curWords)-k:], " ")
		if prefixNew == suffixCur {
			maxK = k
			break
		}
	}

	if maxK > 0 {
		return strings.Join(nrmWordsOriginal[maxK:], " ")
	}
	return segNormalized
}
