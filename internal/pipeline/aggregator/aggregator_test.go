// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package aggregator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clio-mediator/clio-mediator/internal/config"
	"github.com/clio-mediator/clio-mediator/internal/pipeline/normalize"
	"github.com/clio-mediator/clio-mediator/pkg/commons"
)

func testAggregator(cfg config.AggregationConfig) (*Aggregator, *fakeClock) {
	if cfg.MaxUnconsolidatedSegments == 0 {
		cfg.MaxUnconsolidatedSegments = 10
	}
	if cfg.MaxQuestions == 0 {
		cfg.MaxQuestions = 10
	}
	if cfg.MaxConsolidatedLength == 0 {
		cfg.MaxConsolidatedLength = 10_000
	}
	a := New(cfg, commons.NewNopLogger())
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	a.SetNowFunc(clk.Now)
	return a, clk
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func finalEvent(id, text string) normalize.Event {
	return normalize.Event{Type: normalize.EventFinal, SegmentID: id, Text: text, Language: "en"}
}

func partialEvent(id, text string) normalize.Event {
	return normalize.Event{Type: normalize.EventPartial, SegmentID: id, Text: text, Language: "en"}
}

// commitNow drives a segment through the two-call commit-delay protocol:
// first FINAL records t0 (returns uncommitted), the clock advances past
// the delay, then a second identical FINAL actually commits it.
func commitNow(t *testing.T, a *Aggregator, clk *fakeClock, id, text string, delay time.Duration) {
	t.Helper()
	a.ProcessEvent(finalEvent(id, text))
	clk.Advance(delay + time.Millisecond)
	a.ProcessEvent(finalEvent(id, text))
}

func TestProcessEvent_PartialUpdates_RevisionMonotonic(t *testing.T) {
	a, _ := testAggregator(config.AggregationConfig{})
	a.ProcessEvent(partialEvent("s1", "hello"))
	segs := a.SnapshotUnconsolidated()
	require.Len(t, segs, 1)
	assert.Equal(t, 1, segs[0].Revision)
	assert.Equal(t, StatusPartial, segs[0].Status)

	a.ProcessEvent(partialEvent("s1", "hello world"))
	segs = a.SnapshotUnconsolidated()
	require.Len(t, segs, 1)
	assert.Equal(t, 2, segs[0].Revision)

	// Re-observing identical text is a no-op on revision.
	a.ProcessEvent(partialEvent("s1", "hello world"))
	segs = a.SnapshotUnconsolidated()
	assert.Equal(t, 2, segs[0].Revision)
}

func TestProcessEvent_FirstFinal_NeverCommitsAlone(t *testing.T) {
	a, _ := testAggregator(config.AggregationConfig{CommitDelaySeconds: 1})
	a.ProcessEvent(finalEvent("s1", "hello world"))
	segs := a.SnapshotUnconsolidated()
	require.Len(t, segs, 1)
	assert.Equal(t, StatusFinal, segs[0].Status, "first FINAL records t0 but must not commit in the same call")
}

func TestProcessEvent_CommitDelay_CommitsAfterElapsed(t *testing.T) {
	a, clk := testAggregator(config.AggregationConfig{CommitDelaySeconds: 1})
	commitNow(t, a, clk, "s1", "hello world", time.Second)

	segs := a.SnapshotUnconsolidated()
	require.Len(t, segs, 1)
	assert.Equal(t, StatusCommitted, segs[0].Status)

	consolidated := a.SnapshotConsolidated()
	assert.Equal(t, "hello world", consolidated.Text)
	assert.Equal(t, 1, consolidated.Revision)
}

func TestConsolidate_SimpleAppend(t *testing.T) {
	a, clk := testAggregator(config.AggregationConfig{CommitDelaySeconds: 0})
	commitNow(t, a, clk, "s1", "the quick brown fox", 0)
	commitNow(t, a, clk, "s2", "jumps over the lazy dog", 0)

	c := a.SnapshotConsolidated()
	assert.Contains(t, c.Text, "the quick brown fox")
	assert.Contains(t, c.Text, "jumps over the lazy dog")
}

func TestConsolidate_ExactDuplicateSuppressed(t *testing.T) {
	a, clk := testAggregator(config.AggregationConfig{CommitDelaySeconds: 0})
	commitNow(t, a, clk, "s1", "hello world", 0)
	before := a.SnapshotConsolidated()

	commitNow(t, a, clk, "s2", "hello world", 0)
	after := a.SnapshotConsolidated()

	assert.Equal(t, before.Text, after.Text)
	assert.Equal(t, before.Revision, after.Revision, "exact duplicate must not bump revision")
}

func TestConsolidate_SubstringDuplicateSuppressed(t *testing.T) {
	a, clk := testAggregator(config.AggregationConfig{CommitDelaySeconds: 0})
	commitNow(t, a, clk, "s1", "the quick brown fox jumps over the lazy dog", 0)
	before := a.SnapshotConsolidated()

	commitNow(t, a, clk, "s2", "brown fox jumps", 0)
	after := a.SnapshotConsolidated()

	assert.Equal(t, before.Text, after.Text)
}

func TestConsolidate_OverlappingSuffixTrimmed(t *testing.T) {
	a, clk := testAggregator(config.AggregationConfig{CommitDelaySeconds: 0})
	commitNow(t, a, clk, "s1", "the quick brown fox", 0)
	commitNow(t, a, clk, "s2", "brown fox jumps over the lazy dog", 0)

	c := a.SnapshotConsolidated()
	assert.Equal(t, "the quick brown fox jumps over the lazy dog", c.Text)
}

func TestConsolidate_RevisionIncrementsOnlyWhenTextChanges(t *testing.T) {
	a, clk := testAggregator(config.AggregationConfig{CommitDelaySeconds: 0})
	commitNow(t, a, clk, "s1", "alpha beta", 0)
	r1 := a.SnapshotConsolidated().Revision

	commitNow(t, a, clk, "s2", "alpha beta", 0)
	r2 := a.SnapshotConsolidated().Revision
	assert.Equal(t, r1, r2)

	commitNow(t, a, clk, "s3", "gamma delta", 0)
	r3 := a.SnapshotConsolidated().Revision
	assert.Greater(t, r3, r2)
}

func TestWindowEviction_EvictsSmallestCreatedAt(t *testing.T) {
	a, clk := testAggregator(config.AggregationConfig{MaxUnconsolidatedSegments: 2})
	a.ProcessEvent(partialEvent("s1", "one"))
	clk.Advance(time.Second)
	a.ProcessEvent(partialEvent("s2", "two"))
	clk.Advance(time.Second)
	a.ProcessEvent(partialEvent("s3", "three"))

	segs := a.SnapshotUnconsolidated()
	require.Len(t, segs, 2)
	ids := []string{segs[0].SegmentID, segs[1].SegmentID}
	assert.NotContains(t, ids, "s1")
	assert.Contains(t, ids, "s2")
	assert.Contains(t, ids, "s3")
}

func TestExtractQuestion_InterrogativeCommittedEnglish(t *testing.T) {
	a, clk := testAggregator(config.AggregationConfig{CommitDelaySeconds: 0})
	commitNow(t, a, clk, "s1", "what time is it", 0)

	qs := a.SnapshotQuestions()
	require.Len(t, qs, 1)
	assert.True(t, qs[0].IsExplicit)
	assert.Contains(t, qs[0].SourceTypes, "interrogative")
}

func TestExtractQuestion_ImperativePrompt(t *testing.T) {
	a, clk := testAggregator(config.AggregationConfig{CommitDelaySeconds: 0})
	commitNow(t, a, clk, "s1", "describe the process", 0)

	qs := a.SnapshotQuestions()
	require.Len(t, qs, 1)
	assert.Contains(t, qs[0].SourceTypes, "imperative")
	assert.False(t, qs[0].IsExplicit)
}

func TestExtractQuestion_NotAppliedToPartial(t *testing.T) {
	a, _ := testAggregator(config.AggregationConfig{})
	a.ProcessEvent(partialEvent("s1", "what time is it"))
	assert.Empty(t, a.SnapshotQuestions())
}

func TestExtractQuestion_SubstringMarkerDoesNotMatch(t *testing.T) {
	a, clk := testAggregator(config.AggregationConfig{CommitDelaySeconds: 0})
	// "somewhat" contains "what" as a substring but not as a whole word.
	commitNow(t, a, clk, "s1", "this is somewhat unusual", 0)
	assert.Empty(t, a.SnapshotQuestions())
}

func TestExtractQuestion_FIFOEvictionOverLimit(t *testing.T) {
	a, clk := testAggregator(config.AggregationConfig{CommitDelaySeconds: 0, MaxQuestions: 1})
	commitNow(t, a, clk, "s1", "what is this", 0)
	clk.Advance(time.Second)
	commitNow(t, a, clk, "s2", "why is that", 0)

	qs := a.SnapshotQuestions()
	require.Len(t, qs, 1)
	assert.Contains(t, qs[0].Text, "why is that")
}

func TestIsEnglish_LowConfidenceForeignStaysEnglish(t *testing.T) {
	a, _ := testAggregator(config.AggregationConfig{EnforceEnglish: true, MinEnglishConfidence: 0.9})
	assert.True(t, a.isEnglish("fr", 0.5))
	assert.False(t, a.isEnglish("fr", 0.95))
	assert.True(t, a.isEnglish("en", 0.95))
}

func TestReset_ClearsAllState(t *testing.T) {
	a, clk := testAggregator(config.AggregationConfig{CommitDelaySeconds: 0})
	commitNow(t, a, clk, "s1", "what is this", 0)
	require.NotEmpty(t, a.SnapshotUnconsolidated())
	require.NotEmpty(t, a.SnapshotQuestions())

	a.Reset()
	assert.Empty(t, a.SnapshotUnconsolidated())
	assert.Empty(t, a.SnapshotQuestions())
	assert.Equal(t, ConsolidatedTranscript{}, a.SnapshotConsolidated())
}
