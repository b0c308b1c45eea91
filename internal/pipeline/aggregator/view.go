// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package aggregator

// UnconsolidatedView is the live segment window (spec.md §3). Ordered
// by insertion: a segment's position is fixed the first time its id is
// seen and never moves on later updates, only eviction removes it.
type UnconsolidatedView struct {
	order    []string
	segments map[string]*Segment
}

func NewUnconsolidatedView() *UnconsolidatedView {
	return &UnconsolidatedView{segments: make(map[string]*Segment)}
}

func (v *UnconsolidatedView) Get(id string) (*Segment, bool) {
	s, ok := v.segments[id]
	return s, ok
}

// Insert adds a segment never seen before, appending it to the
// insertion order.
func (v *UnconsolidatedView) Insert(seg *Segment) {
	v.segments[seg.SegmentID] = seg
	v.order = append(v.order, seg.SegmentID)
}

// Update replaces an existing segment in place, enforcing the
// monotone-revision invariant (spec.md §3): an update carrying an
// equal-or-lower revision is ignored. Returns whether the update
// applied.
func (v *UnconsolidatedView) Update(seg *Segment) bool {
	existing, ok := v.segments[seg.SegmentID]
	if !ok {
		return false
	}
	if seg.Revision <= existing.Revision {
		return false
	}
	v.segments[seg.SegmentID] = seg
	return true
}

// Len returns the number of live segments.
func (v *UnconsolidatedView) Len() int {
	return len(v.order)
}

// EvictOldest removes segments with the smallest CreatedAt until the
// view is within max (spec.md §3: "evict the segment with the smallest
// created_at"). Returns the evicted segment ids.
func (v *UnconsolidatedView) EvictOldest(max int) []string {
	var evicted []string
	for len(v.order) > max {
		oldestIdx := 0
		oldestID := v.order[0]
		oldest := v.segments[oldestID]
		for i, id := range v.order {
			s := v.segments[id]
			if s.CreatedAt.Before(oldest.CreatedAt) {
				oldest = s
				oldestID = id
				oldestIdx = i
			}
		}
		delete(v.segments, oldestID)
		v.order = append(v.order[:oldestIdx], v.order[oldestIdx+1:]...)
		evicted = append(evicted, oldestID)
	}
	return evicted
}

// List returns all live segments in insertion order.
func (v *UnconsolidatedView) List() []*Segment {
	out := make([]*Segment, 0, len(v.order))
	for _, id := range v.order {
		out = append(out, v.segments[id])
	}
	return out
}

// Committed returns the segments currently in StatusCommitted.
func (v *UnconsolidatedView) Committed() []*Segment {
	var out []*Segment
	for _, id := range v.order {
		s := v.segments[id]
		if s.Status == StatusCommitted {
			out = append(out, s)
		}
	}
	return out
}
