package midi

import (
	helio "github.com/itsbrex/helio-workstation"
	"github.com/itsbrex/helio-workstation/tree"
	"github.com/itsbrex/helio-workstation/utils"
)

const KindPianoTrack = "pianoTrack"

var pianoLogic = helio.NewLogic(KindPianoTrack,
	helio.Rule{Type: helio.TrackPath, Policy: helio.LastWriter},
	helio.Rule{Type: helio.TrackColour, Policy: helio.LastWriter},
	helio.Rule{Type: helio.TrackInstrument, Policy: helio.LastWriter},
	helio.Rule{Type: helio.EventsAdded, Policy: helio.UnionByIdentity, IdentityKey: "id"},
	helio.Rule{Type: helio.ClipsAdded, Policy: helio.UnionByIdentity, IdentityKey: "id"},
)

// PianoTrack is a piano roll track; its event facet holds notes.
type PianoTrack struct {
	midiTrack

	notes []Note
	clips []Clip
}

func NewPianoTrack(name string) *PianoTrack {
	t := &PianoTrack{midiTrack: newMidiTrack(name)}
	t.deltas = []*helio.Delta{
		helio.NewDelta(helio.TrackPath),
		helio.NewDelta(helio.TrackColour),
		helio.NewDelta(helio.TrackInstrument),
		helio.NewDelta(helio.EventsAdded),
		helio.NewDelta(helio.ClipsAdded),
	}
	return t
}

func (t *PianoTrack) Notes() []Note {
	return t.notes
}

func (t *PianoTrack) Clips() []Clip {
	return t.clips
}

func (t *PianoTrack) AddNote(note Note) Note {
	if note.ID == "" {
		note.ID = newEntityID()
	}
	t.recordUndo("events", helio.CountDescription(len(t.notes), "events", "empty sequence"),
		helio.CountDescription(len(t.notes)+1, "events", "empty sequence"))
	t.notes = append(t.notes, note)
	t.updateBeatRange(true)
	return note
}

func (t *PianoTrack) AddClip(clip Clip) Clip {
	if clip.ID == "" {
		clip.ID = newEntityID()
	}
	t.recordUndo("clips", helio.CountDescription(len(t.clips), "clips", "empty pattern"),
		helio.CountDescription(len(t.clips)+1, "clips", "empty pattern"))
	t.clips = append(t.clips, clip)
	t.updateBeatRange(true)
	return clip
}

func (t *PianoTrack) updateBeatRange(notify bool) {
	first, last := 0.0, 0.0
	started := false
	for _, n := range t.notes {
		if !started {
			first, last, started = n.Beat, n.Beat+n.Length, true
			continue
		}
		first = utils.Min(first, n.Beat)
		last = utils.Max(last, n.Beat+n.Length)
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

func (t *PianoTrack) Delta(index int) *helio.Delta {
	d := t.deltas[index]
	switch {
	case d.Has(helio.EventsAdded):
		d.SetDescription(helio.CountDescription(len(t.notes), "events", "empty sequence"))
	case d.Has(helio.ClipsAdded):
		d.SetDescription(helio.CountDescription(len(t.clips), "clips", "empty pattern"))
	}
	return d
}

func (t *PianoTrack) DeltaData(index int) (*tree.Node, error) {
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
	case helio.EventsAdded:
		return t.serializeNotesDelta(), nil
	case helio.ClipsAdded:
		return t.serializeClipsDelta(), nil
	}
	return nil, helio.ErrDeltaOutOfRange
}

func (t *PianoTrack) DiffLogic() *helio.Logic {
	return pianoLogic
}

func (t *PianoTrack) ResetStateTo(other helio.TrackedItem) error {
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
		case helio.EventsAdded:
			t.resetNotesDelta(state)
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

func (t *PianoTrack) serializeNotesDelta() *tree.Node {
	state := tree.New(string(helio.EventsAdded))
	for _, n := range t.notes {
		state.AppendChild(n.Serialize())
	}
	return state
}

func (t *PianoTrack) serializeClipsDelta() *tree.Node {
	state := tree.New(string(helio.ClipsAdded))
	for _, c := range t.clips {
		state.AppendChild(c.Serialize())
	}
	return state
}

func (t *PianoTrack) resetNotesDelta(state *tree.Node) {
	t.notes = t.notes[:0]
	for _, child := range state.ChildrenWithTag(TagNote) {
		note, err := checkoutNote(child)
		if err != nil {
			continue
		}
		t.notes = append(t.notes, note)
	}
	t.updateBeatRange(false)
}

func (t *PianoTrack) resetClipsDelta(state *tree.Node) {
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

// Whole-entity document.

func (t *PianoTrack) Serialize() *tree.Node {
	doc := tree.New("trackNode").
		SetProperty("id", t.id.String()).
		SetProperty("type", KindPianoTrack).
		SetProperty("name", t.name).
		SetProperty("colour", t.colour.String()).
		SetProperty("instrument", t.instrumentID)
	seq := tree.New("pianoSequence")
	for _, n := range t.notes {
		seq.AppendChild(n.Serialize())
	}
	pattern := tree.New("pattern")
	for _, c := range t.clips {
		pattern.AppendChild(c.Serialize())
	}
	return doc.AppendChild(seq).AppendChild(pattern)
}

func (t *PianoTrack) Deserialize(doc *tree.Node) error {
	if !doc.Has("trackNode") || doc.StringProp("type", "") != KindPianoTrack {
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
	t.notes = t.notes[:0]
	t.clips = t.clips[:0]
	for _, seq := range doc.ChildrenWithTag("pianoSequence") {
		for _, child := range seq.ChildrenWithTag(TagNote) {
			if note, err := checkoutNote(child); err == nil {
				t.notes = append(t.notes, note)
			}
		}
	}
	for _, pattern := range doc.ChildrenWithTag("pattern") {
		for _, child := range pattern.ChildrenWithTag(TagClip) {
			if clip, err := checkoutClip(child); err == nil {
				t.clips = append(t.clips, clip)
			}
		}
	}
	t.updateBeatRange(false)
	return nil
}
