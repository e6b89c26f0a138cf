package timeline

import "errors"

var (
	// ErrAlreadyCreated indicates an object was added to the timeline twice
	ErrAlreadyCreated = errors.New("timeline: object has already been created")

	// ErrAlreadyRemoved indicates a removal of an object that is not alive
	ErrAlreadyRemoved = errors.New("timeline: object has already been removed")

	// ErrObjectNeverCreated indicates an operation that needs a live instance
	ErrObjectNeverCreated = errors.New("timeline: object has never been created")

	// ErrUnknownToTimeline indicates a lookup of an ID that was never enrolled
	ErrUnknownToTimeline = errors.New("timeline: object is unknown to the timeline")

	// ErrUnknownTimeMarker indicates a lookup of an unregistered marker name or position
	ErrUnknownTimeMarker = errors.New("timeline: unknown time marker")

	// ErrInvalidTimeMarker indicates a roll in the wrong direction or out of range
	ErrInvalidTimeMarker = errors.New("timeline: invalid time marker")

	// ErrRollBackBlocked indicates a dependency vetoed a roll-back
	ErrRollBackBlocked = errors.New("timeline: roll-back blocked by dependency")

	// ErrRollForwardBlocked indicates a dependency vetoed a roll-forward
	ErrRollForwardBlocked = errors.New("timeline: roll-forward blocked by dependency")

	// ErrUnknownHistoryMemberType indicates the catalog cannot build a member type
	ErrUnknownHistoryMemberType = errors.New("timeline: unknown history member type")

	// ErrUnknownMember indicates a builder asked for a member the definition does not declare
	ErrUnknownMember = errors.New("timeline: unknown member")

	// ErrDuplicateMarkName indicates a mark name that is already in use
	ErrDuplicateMarkName = errors.New("timeline: duplicate mark name")

	// ErrObjectTypeMismatch indicates a member or object was requested as the wrong type
	ErrObjectTypeMismatch = errors.New("timeline: object type mismatch")

	// ErrChangeSetClosed indicates use of a change-set after it was closed
	ErrChangeSetClosed = errors.New("timeline: change-set is closed")
)
