package qcreative

import "github.com/pkg/errors"

/*
The error classes every component reports through. Callers classify failures
with errors.Is against these sentinels; the wrapped message carries the detail.
*/
var (
	// ErrConfiguration marks a malformed topology, config or record file.
	ErrConfiguration = errors.New("configuration error")

	// ErrBackend marks an execution backend that is unavailable, rejected a
	// program or returned malformed counts.
	ErrBackend = errors.New("backend error")

	// ErrEncoding marks input that cannot be encoded into a program.
	ErrEncoding = errors.New("encoding precondition violated")

	// ErrBreakerOpen is returned while a guarded backend is cooling down.
	ErrBreakerOpen = errors.Wrap(ErrBackend, "circuit breaker open")
)
