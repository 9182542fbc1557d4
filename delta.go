// Package helio implements the document-local version-control primitive:
// tracked items expose their mutable state as a fixed set of named,
// independently serializable deltas; diff logic computes the deltas that
// differ between two versions of the same item; the checkout protocol
// applies a foreign version's deltas back onto live state.
package helio

import "fmt"

// DeltaType identifies one named slice of a tracked item's state.
// The namespace is closed per entity kind and stable across versions;
// consumers skip tags they do not recognize.
type DeltaType string

const (
	TrackPath       DeltaType = "trackPath"
	TrackColour     DeltaType = "trackColour"
	TrackInstrument DeltaType = "trackInstrument"
	TrackController DeltaType = "trackController"
	EventsAdded     DeltaType = "eventsAdded"
	ClipsAdded      DeltaType = "clipsAdded"
)

// Delta is one registered slot of a tracked item. The type is fixed at
// construction; the description is a cosmetic cache, recomputed from live
// state whenever the slot is queried, and never takes part in equality.
type Delta struct {
	typ         DeltaType
	description string
}

func NewDelta(typ DeltaType) *Delta {
	return &Delta{typ: typ}
}

func (d *Delta) Type() DeltaType {
	return d.typ
}

func (d *Delta) Has(typ DeltaType) bool {
	return d.typ == typ
}

func (d *Delta) Description() string {
	return d.description
}

func (d *Delta) SetDescription(text string) {
	d.description = text
}

// CountDescription renders the usual "{n} events" / "empty sequence"
// summary for collection slots.
func CountDescription(n int, noun, whenEmpty string) string {
	if n == 0 {
		return whenEmpty
	}
	return fmt.Sprintf("%d %s", n, noun)
}
