package history

import "errors"

var (
	// ErrCannotStoreAtBeginningOfTime indicates a store at the sentinel marker
	ErrCannotStoreAtBeginningOfTime = errors.New("history: cannot store values at the beginning of time")

	// ErrCannotSetDefaultAfterStart indicates default seeding after history was recorded
	ErrCannotSetDefaultAfterStart = errors.New("history: cannot set a default value after the start of time")

	// ErrNoPriorValue indicates a roll-back on an archive without past values
	ErrNoPriorValue = errors.New("history: no prior value registered")

	// ErrNoFutureValue indicates a roll-forward on an archive without future values
	ErrNoFutureValue = errors.New("history: no future value registered")

	// ErrIndexOutOfRange indicates a list access outside of the list bounds
	ErrIndexOutOfRange = errors.New("history: index out of range")

	// ErrDuplicateKey indicates an add of a key that is already present
	ErrDuplicateKey = errors.New("history: duplicate key")

	// ErrVertexNotFound indicates an edge refers to a vertex that is not in the graph
	ErrVertexNotFound = errors.New("history: vertex not found")
)
