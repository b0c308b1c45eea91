// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package aggregator

import "errors"

// ErrAggregatorLogic is the AggregatorLogic error kind from spec.md §7:
// an unexpected condition while processing an event. The event is
// dropped, last_error is set by the caller, and the loop continues.
var ErrAggregatorLogic = errors.New("aggregator: internal logic error")
