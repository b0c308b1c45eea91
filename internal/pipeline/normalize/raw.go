// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package normalize

// rawSegment mirrors the per-segment shape the transcription service
// emits (spec.md §6): {id:int, start:float, end:float, text:string,
// completed:bool}.
type rawSegment struct {
	ID        *int    `json:"id"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Text      string  `json:"text"`
	Completed bool    `json:"completed"`
}

// rawMessage mirrors the loose inbound JSON object described in
// spec.md §6: {uid, message, status, language, language_prob,
// segments[], translated_segments[], backend}.
type rawMessage struct {
	UID                string       `json:"uid"`
	Message            string       `json:"message"`
	Status             string       `json:"status"`
	Language           string       `json:"language"`
	LanguageProb       *float64     `json:"language_prob"`
	Segments           []rawSegment `json:"segments"`
	TranslatedSegments []rawSegment `json:"translated_segments"`
	Backend            string       `json:"backend"`
}
