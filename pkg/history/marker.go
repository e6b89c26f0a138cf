// ABOUTME: Points on the timeline and identities of history-enabled objects
// ABOUTME: Markers are only created as successors of an existing marker

package history

import (
	"fmt"
	"strconv"
	"sync/atomic"
)

// Marker is an immutable point on the timeline. Markers are totally ordered by
// their position; the optional name is a tag and does not take part in
// comparisons.
type Marker struct {
	pos  uint64
	name string
}

// BeginningOfTime precedes every other marker. No value can be stored at it
// except a container default.
var BeginningOfTime = Marker{}

// Next returns the successor of m.
func (m Marker) Next() Marker {
	return Marker{pos: m.pos + 1}
}

// NextNamed returns the successor of m tagged with name.
func (m Marker) NextNamed(name string) Marker {
	return Marker{pos: m.pos + 1, name: name}
}

// Name returns the tag of the marker, or "" when it has none.
func (m Marker) Name() string {
	return m.name
}

// Position returns the ordinal of the marker on the timeline.
func (m Marker) Position() uint64 {
	return m.pos
}

// Compare returns -1, 0 or +1 depending on whether m is before, at or after other.
func (m Marker) Compare(other Marker) int {
	switch {
	case m.pos < other.pos:
		return -1
	case m.pos > other.pos:
		return 1
	default:
		return 0
	}
}

// Before reports whether m is strictly before other.
func (m Marker) Before(other Marker) bool { return m.pos < other.pos }

// After reports whether m is strictly after other.
func (m Marker) After(other Marker) bool { return m.pos > other.pos }

// Equal reports whether m and other denote the same point in time.
func (m Marker) Equal(other Marker) bool { return m.pos == other.pos }

// IsBeginningOfTime reports whether m is the sentinel marker.
func (m Marker) IsBeginningOfTime() bool { return m.pos == 0 }

func (m Marker) String() string {
	if m.name == "" {
		return fmt.Sprintf("marker[%d]", m.pos)
	}
	return fmt.Sprintf("marker[%d:%s]", m.pos, m.name)
}

// ID identifies an object enrolled in a timeline. The same ID may be carried
// by several object instances over time when an object is resurrected.
type ID uint64

// NoID is never issued.
const NoID ID = 0

var lastID atomic.Uint64

// NewID issues a process-wide unique, monotonically increasing ID.
func NewID() ID {
	return ID(lastID.Add(1))
}

// IsValid reports whether id was issued by NewID.
func (id ID) IsValid() bool {
	return id != NoID
}

func (id ID) String() string {
	return "history-" + strconv.FormatUint(uint64(id), 10)
}

// ParseID parses the output of ID.String or a bare number.
func ParseID(s string) (ID, error) {
	if len(s) > len("history-") && s[:len("history-")] == "history-" {
		s = s[len("history-"):]
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return NoID, fmt.Errorf("parse history id %q: %w", s, err)
	}
	return ID(v), nil
}

// Object is implemented by every value that is tracked by a timeline.
type Object interface {
	HistoryID() ID
}

// ValueAtTime pairs a value with the marker it was stored at.
type ValueAtTime[T any] struct {
	Time  Marker
	Value T
}
