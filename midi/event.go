package midi

import (
	"errors"

	"github.com/google/uuid"
	"github.com/itsbrex/helio-workstation/tree"
)

// Serialized child tags; these are owned by the event model, the
// version-control engine never looks inside them.
const (
	TagAutomationEvent = "automationEvent"
	TagNote            = "note"
	TagClip            = "clip"
)

var ErrWrongEventTag = errors.New("midi: wrong event tag")

// newEntityID is the identity stamped on every event and clip; deltas of
// collection facets are unioned by it.
func newEntityID() string {
	return uuid.NewString()[:8]
}

// AutomationEvent is one point of an automation curve.
type AutomationEvent struct {
	ID        string
	Beat      float64
	Value     float64
	Curvature float64
}

func (e AutomationEvent) Serialize() *tree.Node {
	return tree.New(TagAutomationEvent).
		SetProperty("id", e.ID).
		SetProperty("beat", e.Beat).
		SetProperty("value", e.Value).
		SetProperty("curve", e.Curvature)
}

// checkoutAutomationEvent reconstructs an event during checkout; it is the
// entity-specific constructor the reset path uses for collection payloads.
func checkoutAutomationEvent(state *tree.Node) (AutomationEvent, error) {
	if !state.Has(TagAutomationEvent) {
		return AutomationEvent{}, ErrWrongEventTag
	}
	return AutomationEvent{
		ID:        state.StringProp("id", ""),
		Beat:      state.FloatProp("beat", 0),
		Value:     state.FloatProp("value", 0),
		Curvature: state.FloatProp("curve", 0.5),
	}, nil
}

// Note is one note of a piano roll sequence.
type Note struct {
	ID       string
	Key      int64
	Beat     float64
	Length   float64
	Velocity float64
}

func (n Note) Serialize() *tree.Node {
	return tree.New(TagNote).
		SetProperty("id", n.ID).
		SetProperty("key", n.Key).
		SetProperty("beat", n.Beat).
		SetProperty("len", n.Length).
		SetProperty("vel", n.Velocity)
}

func checkoutNote(state *tree.Node) (Note, error) {
	if !state.Has(TagNote) {
		return Note{}, ErrWrongEventTag
	}
	return Note{
		ID:       state.StringProp("id", ""),
		Key:      state.IntProp("key", 60),
		Beat:     state.FloatProp("beat", 0),
		Length:   state.FloatProp("len", 1),
		Velocity: state.FloatProp("vel", 1),
	}, nil
}
