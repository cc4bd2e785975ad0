package session

import "errors"

// ErrNilClient is returned by New when no provider client is supplied.
var ErrNilClient = errors.New("session: provider client is required")

var errNoResponse = errors.New("provider returned no response")
