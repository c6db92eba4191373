package compiler

// Construction limits
const (
	// DefaultMaxStates is the number of states a construction may discover
	// before it gives up with ErrStateLimit.
	DefaultMaxStates = 10000
)

// Generated code constants
const (
	// DeadState is the value the generated Step function returns when no
	// transition covers the input rune.
	DeadState = -1
)
