package midi

import (
	"fmt"

	helio "github.com/itsbrex/helio-workstation"
	"github.com/itsbrex/helio-workstation/tree"
	"github.com/itsbrex/helio-workstation/utils"
)

const KindAutomationTrack = "automationTrack"

var automationLogic = helio.NewLogic(KindAutomationTrack,
	helio.Rule{Type: helio.TrackPath, Policy: helio.LastWriter},
	helio.Rule{Type: helio.TrackColour, Policy: helio.LastWriter},
	helio.Rule{Type: helio.TrackInstrument, Policy: helio.LastWriter},
	helio.Rule{Type: helio.TrackController, Policy: helio.LastWriter},
	helio.Rule{Type: helio.EventsAdded, Policy: helio.UnionByIdentity, IdentityKey: "id"},
	helio.Rule{Type: helio.ClipsAdded, Policy: helio.UnionByIdentity, IdentityKey: "id"},
)

func init() {
	helio.RegisterLogic(automationLogic)
	helio.RegisterLogic(pianoLogic)
}

// AutomationTrack is a track holding one automation curve and the pattern of
// clips it plays through.
type AutomationTrack struct {
	midiTrack

	controllerNumber int64
	events           []AutomationEvent
	clips            []Clip
}

func NewAutomationTrack(name string) *AutomationTrack {
	t := &AutomationTrack{midiTrack: newMidiTrack(name)}
	t.deltas = []*helio.Delta{
		helio.NewDelta(helio.TrackPath),
		helio.NewDelta(helio.TrackColour),
		helio.NewDelta(helio.TrackInstrument),
		helio.NewDelta(helio.TrackController),
		helio.NewDelta(helio.EventsAdded),
		helio.NewDelta(helio.ClipsAdded),
	}
	return t
}

func (t *AutomationTrack) ControllerNumber() int64 {
	return t.controllerNumber
}

func (t *AutomationTrack) Events() []AutomationEvent {
	return t.events
}

func (t *AutomationTrack) Clips() []Clip {
	return t.clips
}

// SetControllerNumber is a user edit; see midiTrack for the two mutation
// modes.
func (t *AutomationTrack) SetControllerNumber(cc int64) {
	if cc == t.controllerNumber {
		return
	}
	t.recordUndo("controller",
		fmt.Sprint(t.controllerNumber), fmt.Sprint(cc))
	t.controllerNumber = cc
	t.notifyProperty("controller")
}

func (t *AutomationTrack) checkoutControllerNumber(cc int64) bool {
	if cc == t.controllerNumber {
		return false
	}
	t.controllerNumber = cc
	t.notifyProperty("controller")
	return true
}

// AddEvent appends an automation event as a user edit. A zero ID gets a
// fresh identity.
func (t *AutomationTrack) AddEvent(event AutomationEvent) AutomationEvent {
	if event.ID == "" {
		event.ID = newEntityID()
	}
	t.recordUndo("events", helio.CountDescription(len(t.events), "events", "empty sequence"),
		helio.CountDescription(len(t.events)+1, "events", "empty sequence"))
	t.events = append(t.events, event)
	t.updateBeatRange(true)
	return event
}

func (t *AutomationTrack) AddClip(clip Clip) Clip {
	if clip.ID == "" {
		clip.ID = newEntityID()
	}
	t.recordUndo("clips", helio.CountDescription(len(t.clips), "clips", "empty pattern"),
		helio.CountDescription(len(t.clips)+1, "clips", "empty pattern"))
	t.clips = append(t.clips, clip)
	t.updateBeatRange(true)
	return clip
}

func (t *AutomationTrack) updateBeatRange(notify bool) {
	first, last := 0.0, 0.0
	started := false
	for _, e := range t.events {
		if !started {
			first, last, started = e.Beat, e.Beat, true
			continue
		}
		first = utils.Min(first, e.Beat)
		last = utils.Max(last, e.Beat)
	}
	for _, c := range t.clips {
		if !started {
			first, last, started = c.Beat, c.Beat, true
			continue
		}
		first = utils.Min(first, c.Beat)
		last = utils.Max(last, c.Beat)
	}
	if first == t.firstBeat && last == t.lastBeat {
		return
	}
	t.firstBeat, t.lastBeat = first, last
	if notify {
		t.notifyBeatRange()
	}
}

// TrackedItem contract.

func (t *AutomationTrack) Delta(index int) *helio.Delta {
	d := t.deltas[index]
	switch {
	case d.Has(helio.EventsAdded):
		d.SetDescription(helio.CountDescription(len(t.events), "events", "empty sequence"))
	case d.Has(helio.ClipsAdded):
		d.SetDescription(helio.CountDescription(len(t.clips), "clips", "empty pattern"))
	}
	return d
}

func (t *AutomationTrack) DeltaData(index int) (*tree.Node, error) {
	if index < 0 || index >= len(t.deltas) {
		return nil, helio.ErrDeltaOutOfRange
	}
	switch t.deltas[index].Type() {
	case helio.TrackPath:
		return t.serializePathDelta(), nil
	case helio.TrackColour:
		return t.serializeColourDelta(), nil
	case helio.TrackInstrument:
		return t.serializeInstrumentDelta(), nil
	case helio.TrackController:
		return t.serializeControllerDelta(), nil
	case helio.EventsAdded:
		return t.serializeEventsDelta(), nil
	case helio.ClipsAdded:
		return t.serializeClipsDelta(), nil
	}
	return nil, helio.ErrDeltaOutOfRange
}

func (t *AutomationTrack) DiffLogic() *helio.Logic {
	return automationLogic
}

// ResetStateTo runs the checkout protocol: every recognized delta of the
// foreign version is applied to live state in the foreign order, undo
// suppressed, each reset self-contained. Unknown types and payloads whose
// tag disagrees with their delta are skipped, never misapplied. If any
// collection facet was replaced, observers get a single batched beat-range
// notification at the end.
func (t *AutomationTrack) ResetStateTo(other helio.TrackedItem) error {
	t.resetting = true
	defer func() { t.resetting = false }()

	boundsDirty := false
	for i := 0; i < other.NumDeltas(); i++ {
		typ := other.Delta(i).Type()
		state, err := other.DeltaData(i)
		if err != nil {
			return err
		}
		if !state.Has(string(typ)) {
			t.logger.Warn("payload tag mismatch, skipping delta",
				"id", t.id.String(), "type", string(typ), "tag", state.Tag)
			helio.CheckoutDeltas.WithLabelValues(string(typ), helio.CheckoutSkipped).Inc()
			continue
		}
		changed := false
		switch typ {
		case helio.TrackPath:
			changed = t.resetPathDelta(state)
		case helio.TrackColour:
			changed = t.resetColourDelta(state)
		case helio.TrackInstrument:
			changed = t.resetInstrumentDelta(state)
		case helio.TrackController:
			changed = t.resetControllerDelta(state)
		case helio.EventsAdded:
			t.resetEventsDelta(state)
			changed, boundsDirty = true, true
		case helio.ClipsAdded:
			t.resetClipsDelta(state)
			changed, boundsDirty = true, true
		default:
			t.logger.Debug("skipping unrecognized delta type",
				"id", t.id.String(), "type", string(typ))
			helio.CheckoutDeltas.WithLabelValues(string(typ), helio.CheckoutSkipped).Inc()
			continue
		}
		result := helio.CheckoutNoop
		if changed {
			result = helio.CheckoutApplied
		}
		helio.CheckoutDeltas.WithLabelValues(string(typ), result).Inc()
	}
	if boundsDirty {
		t.updateBeatRange(false)
		t.notifyBeatRange()
	}
	return nil
}

// Deltas.

func (t *AutomationTrack) serializeControllerDelta() *tree.Node {
	return tree.New(string(helio.TrackController)).SetProperty("delta", t.controllerNumber)
}

func (t *AutomationTrack) serializeEventsDelta() *tree.Node {
	state := tree.New(string(helio.EventsAdded))
	for _, e := range t.events {
		state.AppendChild(e.Serialize())
	}
	return state
}

func (t *AutomationTrack) serializeClipsDelta() *tree.Node {
	state := tree.New(string(helio.ClipsAdded))
	for _, c := range t.clips {
		state.AppendChild(c.Serialize())
	}
	return state
}

func (t *AutomationTrack) resetControllerDelta(state *tree.Node) bool {
	return t.checkoutControllerNumber(state.IntProp("delta", 0))
}

// resetEventsDelta replaces the whole facet: clear, reconstruct each child
// through the checkout constructor, recompute bounds without notifying.
func (t *AutomationTrack) resetEventsDelta(state *tree.Node) {
	t.events = t.events[:0]
	for _, child := range state.ChildrenWithTag(TagAutomationEvent) {
		event, err := checkoutAutomationEvent(child)
		if err != nil {
			continue
		}
		t.events = append(t.events, event)
	}
	t.updateBeatRange(false)
}

func (t *AutomationTrack) resetClipsDelta(state *tree.Node) {
	t.clips = t.clips[:0]
	for _, child := range state.ChildrenWithTag(TagClip) {
		clip, err := checkoutClip(child)
		if err != nil {
			continue
		}
		t.clips = append(t.clips, clip)
	}
	t.updateBeatRange(false)
}

// Whole-entity document, distinct from the delta payloads: identity, kind,
// name, core properties, then the full live sequence and pattern.

func (t *AutomationTrack) Serialize() *tree.Node {
	doc := tree.New("trackNode").
		SetProperty("id", t.id.String()).
		SetProperty("type", KindAutomationTrack).
		SetProperty("name", t.name).
		SetProperty("colour", t.colour.String()).
		SetProperty("instrument", t.instrumentID).
		SetProperty("controller", t.controllerNumber)
	seq := tree.New("automationSequence")
	for _, e := range t.events {
		seq.AppendChild(e.Serialize())
	}
	pattern := tree.New("pattern")
	for _, c := range t.clips {
		pattern.AppendChild(c.Serialize())
	}
	return doc.AppendChild(seq).AppendChild(pattern)
}

func (t *AutomationTrack) Deserialize(doc *tree.Node) error {
	if !doc.Has("trackNode") || doc.StringProp("type", "") != KindAutomationTrack {
		return helio.ErrPayloadMismatch
	}
	id, err := uuidFromDoc(doc)
	if err != nil {
		return err
	}
	t.id = id
	t.name = doc.StringProp("name", t.name)
	if colour, err := ParseColour(doc.StringProp("colour", "")); err == nil {
		t.colour = colour
	}
	t.instrumentID = doc.StringProp("instrument", "")
	t.controllerNumber = doc.IntProp("controller", 0)
	t.events = t.events[:0]
	t.clips = t.clips[:0]
	for _, seq := range doc.ChildrenWithTag("automationSequence") {
		t.resetEventsDeltaChildren(seq)
	}
	for _, pattern := range doc.ChildrenWithTag("pattern") {
		t.resetClipsDeltaChildren(pattern)
	}
	t.updateBeatRange(false)
	return nil
}

func (t *AutomationTrack) resetEventsDeltaChildren(seq *tree.Node) {
	for _, child := range seq.ChildrenWithTag(TagAutomationEvent) {
		if event, err := checkoutAutomationEvent(child); err == nil {
			t.events = append(t.events, event)
		}
	}
}

func (t *AutomationTrack) resetClipsDeltaChildren(pattern *tree.Node) {
	for _, child := range pattern.ChildrenWithTag(TagClip) {
		if clip, err := checkoutClip(child); err == nil {
			t.clips = append(t.clips, clip)
		}
	}
}
