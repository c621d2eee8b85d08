package cpu

import "github.com/pkg/errors"

// Error kinds of the CPU backend. True failures are classified by kind so
// callers can tell misconfiguration from misuse; "pattern did not match" and
// "descriptor not applicable" are booleans, never errors.
var (
	// ErrConfiguration marks unsupported precisions, layouts or otherwise
	// invalid compile-time parameters. Raised at descriptor-selection or
	// executor-construction time, never deferred to execution.
	ErrConfiguration = errors.New("configuration error")

	// ErrSequencing marks calls made out of order, like executing a node
	// that was never prepared, or a cache builder producing no executor.
	ErrSequencing = errors.New("sequencing error")

	// ErrNotReady marks an executor invoked before its plan was compiled.
	ErrNotReady = errors.New("executor not ready")
)
