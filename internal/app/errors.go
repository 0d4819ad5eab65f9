package service

import (
	"errors"

	"github.com/okian/wordstat-proxy/internal/domain/types"
)

// Sentinel kinds for dispatch errors. These are surfaced to callers as
// HTTP 400 rather than as envelopes.
var (
	ErrMissingParams = errors.New(types.MsgParamsRequired)
)
