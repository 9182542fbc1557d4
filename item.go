package helio

import (
	"github.com/google/uuid"
	"github.com/itsbrex/helio-workstation/tree"
)

// TrackedItem is the contract every versioned entity implements. Two items
// sharing a UUID are two versions of the same entity; diff and checkout only
// make sense between such pairs.
//
// The delta slots are registered at construction and their count and type
// set never change for the item's lifetime; only payload content does.
// Callers serialize access externally: ResetStateTo must not race with any
// other mutation of the same item, while read-only calls against immutable
// snapshots may run concurrently.
type TrackedItem interface {
	// UUID is the stable identity correlating versions across time and peers.
	UUID() uuid.UUID

	// NumDeltas is the number of registered delta slots.
	NumDeltas() int

	// Delta returns the slot at the index with its description freshly
	// recomputed from live state. Bounds are the caller's responsibility.
	Delta(index int) *Delta

	// DeltaData serializes the current live value of the slot's facet into
	// an independent payload tree owned by the caller. It never mutates the
	// item; an unregistered index yields ErrDeltaOutOfRange.
	DeltaData(index int) (*tree.Node, error)

	// DiffLogic returns the comparison/merge policy for the item's kind.
	DiffLogic() *Logic

	// ResetStateTo applies every recognized delta of the other item to the
	// local live state, in the other's order, with undo recording
	// suppressed. Unrecognized delta types are skipped.
	ResetStateTo(other TrackedItem) error
}
