// ABOUTME: Veto dependencies, travellers and optional object capabilities
// ABOUTME: Dependencies are recorded per mark and checked before any roll

package timeline

import "github.com/nainya/timestore/pkg/history"

// ChangeBlocker selects the time directions a dependency can veto.
type ChangeBlocker int

const (
	BlockNone ChangeBlocker = iota
	BlockRollBack
	BlockRollForward
	BlockBoth
)

func (b ChangeBlocker) String() string {
	switch b {
	case BlockNone:
		return "none"
	case BlockRollBack:
		return "roll-back"
	case BlockRollForward:
		return "roll-forward"
	case BlockBoth:
		return "both"
	default:
		return "unknown"
	}
}

// BlocksRollBack reports whether b applies to roll-backs.
func (b ChangeBlocker) BlocksRollBack() bool {
	return b == BlockRollBack || b == BlockBoth
}

// BlocksRollForward reports whether b applies to roll-forwards.
func (b ChangeBlocker) BlocksRollForward() bool {
	return b == BlockRollForward || b == BlockBoth
}

// Dependency is a veto attached to the interval ending at the mark it was
// recorded with. A roll that crosses that mark in a blocked direction is
// refused when CanExecuteChange returns false.
type Dependency struct {
	CanExecuteChange func() bool
	Blocks           ChangeBlocker
}

func (d Dependency) vetoes(rollBack bool) bool {
	if rollBack && !d.Blocks.BlocksRollBack() {
		return false
	}
	if !rollBack && !d.Blocks.BlocksRollForward() {
		return false
	}
	return d.CanExecuteChange != nil && !d.CanExecuteChange()
}

// Traveller carries a payload across a roll. It is delivered to the live
// instance of Owner after the roll completes.
type Traveller struct {
	Owner   history.ID
	Payload any
}

// Removable is implemented by objects that want to know when their instance
// is dropped by the timeline.
type Removable interface {
	BeforeRemoval()
}

// TravellerReceiver is implemented by objects that accept travellers.
type TravellerReceiver interface {
	ReceiveTraveller(Traveller)
}
