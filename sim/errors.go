package sim

import "errors"

var (
	// ErrInvalidConfig is returned for invalid parameters: non-positive
	// participant or simulation counts, empty factor or arm sets, unknown
	// method names. It is surfaced at call time and never retried.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrDegenerateStatistics is returned when a ratio or CDF would be
	// computed over zero observations.
	ErrDegenerateStatistics = errors.New("degenerate statistics")
)
