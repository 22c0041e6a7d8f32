package balance

import "errors"

// Recoverable conditions reported in result diagnostics. Optimizers never
// fail; they degrade and record one of these.
var (
	// ErrInsufficientRoster indicates the roster was too small for the
	// requested team size or count and the request was shrunk.
	ErrInsufficientRoster = errors.New("insufficient roster")
	// ErrDegenerateOptimization indicates no trial satisfied the size
	// constraints and a contiguous split was used instead.
	ErrDegenerateOptimization = errors.New("degenerate optimization")
)
