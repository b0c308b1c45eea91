// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/clio-mediator/clio-mediator/pkg/commons"
)

// Normalizer turns one raw inbound JSON message from the upstream
// transport into zero or more typed Events (spec.md §4.C). It holds no
// state of its own; synthesized segment ids need an index, which the
// caller (UpstreamLink) threads through via Normalize.
type Normalizer struct {
	logger commons.Logger
}

func New(logger commons.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize decodes raw and emits the closed event set. index is the
// ordinal of raw within the session, used only to synthesize a segment
// id when the upstream message carries none.
func (n *Normalizer) Normalize(raw []byte, index int) ([]Event, error) {
	var msg rawMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		n.logger.Warnf("normalize: invalid JSON, dropping message: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var events []Event

	switch {
	case msg.Message == "SERVER_READY":
		events = append(events, Event{Type: EventServerReady, Backend: msg.Backend, ClientUID: msg.UID})
	case msg.Message == "DISCONNECT":
		events = append(events, Event{Type: EventDisconnect, ClientUID: msg.UID})
	case msg.Status == "WAIT":
		events = append(events, Event{Type: EventWait, Message: msg.Message})
	case msg.Language != "":
		prob := 0.0
		if msg.LanguageProb != nil {
			prob = *msg.LanguageProb
		}
		events = append(events, Event{Type: EventLanguageDetected, Language: msg.Language, LanguageProb: prob})
	}

	for i, seg := range msg.Segments {
		evtType := EventPartial
		if seg.Completed {
			evtType = EventFinal
		}
		prob := 0.0
		if msg.LanguageProb != nil {
			prob = *msg.LanguageProb
		}
		events = append(events, Event{
			Type:         evtType,
			SegmentID:    segmentID(seg, index+i),
			StartTime:    seg.Start,
			EndTime:      seg.End,
			Text:         strings.TrimSpace(seg.Text),
			ClientUID:    msg.UID,
			Language:     msg.Language,
			LanguageProb: prob,
		})
	}

	if msg.Status == "ERROR" {
		events = append(events, Event{Type: EventError, Message: msg.Message})
	}

	return events, nil
}

// segmentID uses the upstream-assigned id when present, else synthesizes
// one from (start_time, index) per spec.md §4.C / §9's "opaque string"
// resolution of the int-vs-string ambiguity.
func segmentID(seg rawSegment, index int) string {
	if seg.ID != nil {
		return strconv.Itoa(*seg.ID)
	}
	return fmt.Sprintf("%.3f_%d", seg.Start, index)
}
