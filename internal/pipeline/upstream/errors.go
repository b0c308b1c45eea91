// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package upstream

import "errors"

// ErrTransportRejected is returned when the transcription service
// refuses the session at handshake time (no SERVER_READY/WAIT observed
// within ready_timeout, or the dial itself fails).
var ErrTransportRejected = errors.New("upstream: transport rejected session")

// ErrTransportExhausted is returned when the reconnect policy's attempt
// budget (spec.md §4.B, max_reconnect_attempts) is spent without a
// successful reconnect.
var ErrTransportExhausted = errors.New("upstream: reconnect attempts exhausted")
