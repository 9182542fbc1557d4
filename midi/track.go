package midi

import (
	"github.com/google/uuid"

	helio "github.com/itsbrex/helio-workstation"
	"github.com/itsbrex/helio-workstation/tree"
	"github.com/itsbrex/helio-workstation/utils"
)

// ChangeListener observes a track's live state. Beat-range changes caused by
// a checkout are batched: one notification at the end, not one per delta.
type ChangeListener interface {
	TrackPropertyChanged(property string)
	BeatRangeChanged(firstBeat, lastBeat float64)
}

// UndoEntry records one user-driven edit. Checkout-driven writes never
// produce entries.
type UndoEntry struct {
	Property string
	Before   string
	After    string
}

// midiTrack carries the facets and machinery common to every track kind:
// identity, the scalar facets, the registered delta slots, the undo journal
// and the listener set.
//
// Mutations come in two distinct modes. The exported setters are user edits:
// they record undo and notify. The unexported checkout setters are reached
// only through ResetStateTo: undo recording is suppressed, notifications
// still fire for real changes. Both modes suppress no-op writes before
// touching state.
type midiTrack struct {
	id           uuid.UUID
	name         string
	colour       Colour
	instrumentID string

	deltas []*helio.Delta

	undo      []UndoEntry
	listeners []ChangeListener

	resetting           bool
	firstBeat, lastBeat float64

	logger utils.Logger
}

func newMidiTrack(name string) midiTrack {
	return midiTrack{
		id:     uuid.New(),
		name:   name,
		colour: DefaultColour,
		logger: utils.NopLogger{},
	}
}

func (t *midiTrack) UUID() uuid.UUID      { return t.id }
func (t *midiTrack) Name() string         { return t.name }
func (t *midiTrack) Colour() Colour       { return t.colour }
func (t *midiTrack) InstrumentID() string { return t.instrumentID }

func (t *midiTrack) BeatRange() (first, last float64) {
	return t.firstBeat, t.lastBeat
}

// IsResetting reports whether a checkout is applying foreign state right
// now; observers can use it to tell checkout-driven notifications from
// user edits.
func (t *midiTrack) IsResetting() bool {
	return t.resetting
}

func (t *midiTrack) NumDeltas() int { return len(t.deltas) }

func (t *midiTrack) AddListener(l ChangeListener) {
	t.listeners = append(t.listeners, l)
}

// UndoHistory returns the journal of user edits, oldest first.
func (t *midiTrack) UndoHistory() []UndoEntry {
	return t.undo
}

func (t *midiTrack) SetLogger(logger utils.Logger) {
	t.logger = logger
}

func (t *midiTrack) notifyProperty(property string) {
	for _, l := range t.listeners {
		l.TrackPropertyChanged(property)
	}
}

func (t *midiTrack) notifyBeatRange() {
	for _, l := range t.listeners {
		l.BeatRangeChanged(t.firstBeat, t.lastBeat)
	}
}

func (t *midiTrack) recordUndo(property, before, after string) {
	t.undo = append(t.undo, UndoEntry{Property: property, Before: before, After: after})
}

// User edits.

func (t *midiTrack) SetName(name string) {
	if name == t.name {
		return
	}
	t.recordUndo("path", t.name, name)
	t.name = name
	t.notifyProperty("path")
}

func (t *midiTrack) SetColour(colour Colour) {
	if colour == t.colour {
		return
	}
	t.recordUndo("colour", t.colour.String(), colour.String())
	t.colour = colour
	t.notifyProperty("colour")
}

func (t *midiTrack) SetInstrumentID(instrumentID string) {
	if instrumentID == t.instrumentID {
		return
	}
	t.recordUndo("instrument", t.instrumentID, instrumentID)
	t.instrumentID = instrumentID
	t.notifyProperty("instrument")
}

// Checkout mode: same writes without undo recording. Each reports whether
// the state actually changed.

func (t *midiTrack) checkoutName(name string) bool {
	if name == t.name {
		return false
	}
	t.name = name
	t.notifyProperty("path")
	return true
}

func (t *midiTrack) checkoutColour(colour Colour) bool {
	if colour == t.colour {
		return false
	}
	t.colour = colour
	t.notifyProperty("colour")
	return true
}

func (t *midiTrack) checkoutInstrumentID(instrumentID string) bool {
	if instrumentID == t.instrumentID {
		return false
	}
	t.instrumentID = instrumentID
	t.notifyProperty("instrument")
	return true
}

// Scalar delta (serialize, reset) pairs shared by all track kinds.

func (t *midiTrack) serializePathDelta() *tree.Node {
	return tree.New(string(helio.TrackPath)).SetProperty("delta", t.name)
}

func (t *midiTrack) serializeColourDelta() *tree.Node {
	return tree.New(string(helio.TrackColour)).SetProperty("delta", t.colour.String())
}

func (t *midiTrack) serializeInstrumentDelta() *tree.Node {
	return tree.New(string(helio.TrackInstrument)).SetProperty("delta", t.instrumentID)
}

func (t *midiTrack) resetPathDelta(state *tree.Node) bool {
	return t.checkoutName(state.StringProp("delta", ""))
}

func (t *midiTrack) resetColourDelta(state *tree.Node) bool {
	colour, err := ParseColour(state.StringProp("delta", ""))
	if err != nil {
		t.logger.Warn("skipping colour delta with a bad value",
			"id", t.id.String(), "value", state.StringProp("delta", ""))
		return false
	}
	return t.checkoutColour(colour)
}

func (t *midiTrack) resetInstrumentDelta(state *tree.Node) bool {
	return t.checkoutInstrumentID(state.StringProp("delta", ""))
}

func uuidFromDoc(doc *tree.Node) (uuid.UUID, error) {
	return uuid.Parse(doc.StringProp("id", ""))
}
