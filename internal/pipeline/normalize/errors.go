// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package normalize

import "errors"

// ErrMalformed is the ProtocolMalformed error kind from spec.md §7: bad
// JSON or an unrecognized shape. The caller drops the raw message and
// counts it; the session continues.
var ErrMalformed = errors.New("normalize: malformed upstream message")
