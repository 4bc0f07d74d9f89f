package producer

import "errors"

// Error kinds raised by the producer core.
var (
	// ErrWindowInvalid is raised by Setup when start/stop are reversed
	// or fall outside the container's [min_ts_ns, max_ts_ns] bounds.
	ErrWindowInvalid = errors.New("producer: window invalid")

	// ErrContainerMalformed is raised by Setup when a container's
	// column groups have mismatched lengths or are not sorted by
	// timestamp ascending.
	ErrContainerMalformed = errors.New("producer: container malformed")
)
