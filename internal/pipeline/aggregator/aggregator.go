// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package aggregator

import (
	"strings"
	"sync"
	"time"

	"github.com/clio-mediator/clio-mediator/internal/config"
	"github.com/clio-mediator/clio-mediator/internal/pipeline/normalize"
	"github.com/clio-mediator/clio-mediator/pkg/commons"
)

// Aggregator is the single-goroutine owner of the transcript pipeline's
// hardest state: the unconsolidated segment table, the commit-delay
// ledger, the consolidated-text builder and the question set
// (spec.md §4.D). ProcessEvent is the sole mutation entrypoint and must
// only ever be called from one goroutine at a time; external readers
// use the Snapshot* methods, which take a read lock against that same
// goroutine's writes.
type Aggregator struct {
	cfg    config.AggregationConfig
	logger commons.Logger
	nowFn  func() time.Time

	mu            sync.RWMutex
	view          *UnconsolidatedView
	commitDelay   *CommitDelayLedger
	ledger        *Ledger
	consolidated  ConsolidatedTranscript
	questions     map[string]*Question
	questionOrder []string
}

func New(cfg config.AggregationConfig, logger commons.Logger) *Aggregator {
	return &Aggregator{
		cfg:         cfg,
		logger:      logger,
		nowFn:       time.Now,
		view:        NewUnconsolidatedView(),
		commitDelay: NewCommitDelayLedger(),
		ledger:      NewLedger(cfg.MaxUnconsolidatedSegments * 4),
		questions:   make(map[string]*Question),
	}
}

// ProcessEvent applies one normalized event (spec.md §4.D.2). Only
// PARTIAL and FINAL change aggregator state; LANGUAGE_DETECTED is only
// logged when it names a non-English language, and every other event
// type is a no-op here (the Supervisor still forwards it straight to the
// Broadcaster).
func (a *Aggregator) ProcessEvent(evt normalize.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.nowFn()
	switch evt.Type {
	case normalize.EventPartial, normalize.EventFinal:
		a.handleSegmentEvent(evt, now)
	case normalize.EventLanguageDetected:
		if !a.isEnglish(evt.Language, evt.LanguageProb) {
			a.logger.Warnf("aggregator: non-English detected: %s (confidence %.2f)", evt.Language, evt.LanguageProb)
		}
	}
}

func (a *Aggregator) handleSegmentEvent(evt normalize.Event, now time.Time) {
	id := evt.SegmentID
	if id == "" {
		return
	}

	text := NormalizeText(evt.Text)
	isFinal := evt.Type == normalize.EventFinal
	isEnglish := a.isEnglish(evt.Language, evt.LanguageProb)

	existing, ok := a.view.Get(id)

	// Step 1: identical text re-observed.
	if ok && existing.Text == text {
		if isFinal && existing.Status != StatusCommitted {
			if a.commitDelay.ShouldCommit(id, now, a.cfg.CommitDelay()) {
				existing.Status = StatusCommitted
				existing.UpdatedAt = now
				a.consolidate(now)
				a.extractQuestion(existing, now)
			}
		}
		return
	}

	newStatus := StatusPartial
	if isFinal {
		newStatus = StatusFinal
	}

	if ok {
		// Step 2: known id, text differs.
		seg := &Segment{
			SegmentID:  id,
			StartTime:  evt.StartTime,
			EndTime:    evt.EndTime,
			Text:       text,
			Status:     newStatus,
			Revision:   existing.Revision + 1,
			Confidence: existing.Confidence,
			Language:   languagePtr(evt.Language),
			IsEnglish:  isEnglish,
			CreatedAt:  existing.CreatedAt,
			UpdatedAt:  now,
		}
		seg.TextHash = ComputeTextHash(seg.Text)
		if seg.Revision > existing.Revision {
			a.view.Update(seg)
		}
	} else {
		// Step 3: new id.
		seg := &Segment{
			SegmentID: id,
			StartTime: evt.StartTime,
			EndTime:   evt.EndTime,
			Text:      text,
			Status:    newStatus,
			Revision:  1,
			Language:  languagePtr(evt.Language),
			IsEnglish: isEnglish,
			CreatedAt: now,
			UpdatedAt: now,
		}
		seg.TextHash = ComputeTextHash(seg.Text)
		a.view.Insert(seg)
	}

	// Step 4: enforce window size. Forget commit-delay bookkeeping for
	// evicted ids so the ledger doesn't grow unbounded with segments no
	// longer in the view (original's _commit_timestamps/_segment_text_cache
	// eviction).
	for _, evictedID := range a.view.EvictOldest(a.cfg.MaxUnconsolidatedSegments) {
		a.commitDelay.Forget(evictedID)
	}

	// Step 5: commit + consolidate + extract if eligible.
	if isFinal {
		if cur, ok := a.view.Get(id); ok && cur.Status == StatusFinal {
			if a.commitDelay.ShouldCommit(id, now, a.cfg.CommitDelay()) {
				cur.Status = StatusCommitted
				cur.UpdatedAt = now
				a.consolidate(now)
				a.extractQuestion(cur, now)
			}
		}
	}
}

// isEnglish implements spec.md §4.D.5's language gate.
func (a *Aggregator) isEnglish(language string, confidence float64) bool {
	if !a.cfg.EnforceEnglish {
		return true
	}
	if language == "" {
		return true
	}
	lower := strings.ToLower(language)
	if lower == "en" || lower == "english" {
		return true
	}
	if confidence >= a.cfg.MinEnglishConfidence {
		return false
	}
	return true
}

func languagePtr(language string) *string {
	if language == "" {
		return nil
	}
	return &language
}

// SnapshotUnconsolidated returns a point-in-time copy of the live
// segment window, in insertion order.
func (a *Aggregator) SnapshotUnconsolidated() []Segment {
	a.mu.RLock()
	defer a.mu.RUnlock()
	segs := a.view.List()
	out := make([]Segment, len(segs))
	for i, s := range segs {
		out[i] = s.Clone()
	}
	return out
}

// SnapshotConsolidated returns a point-in-time copy of the consolidated
// transcript.
func (a *Aggregator) SnapshotConsolidated() ConsolidatedTranscript {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.consolidated
}

// SnapshotQuestions returns the question set ordered by first_seen.
func (a *Aggregator) SnapshotQuestions() []Question {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Question, 0, len(a.questions))
	for _, qid := range a.questionOrder {
		if q, ok := a.questions[qid]; ok {
			out = append(out, *q)
		}
	}
	return out
}

// Reset discards all aggregator state, used by Supervisor.Reset between
// runs (spec.md's supplemented feature, SPEC_FULL.md §11).
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.view = NewUnconsolidatedView()
	a.commitDelay = NewCommitDelayLedger()
	a.ledger = NewLedger(a.cfg.MaxUnconsolidatedSegments * 4)
	a.consolidated = ConsolidatedTranscript{}
	a.questions = make(map[string]*Question)
	a.questionOrder = nil
}

// SetNowFunc overrides the clock used for commit-delay and timestamp
// bookkeeping; exported for deterministic tests.
func (a *Aggregator) SetNowFunc(fn func() time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nowFn = fn
}
