package midi

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	helio "github.com/itsbrex/helio-workstation"
	"github.com/itsbrex/helio-workstation/tree"
)

type recordingListener struct {
	properties []string
	beatRanges int
}

func (r *recordingListener) TrackPropertyChanged(property string) {
	r.properties = append(r.properties, property)
}

func (r *recordingListener) BeatRangeChanged(first, last float64) {
	r.beatRanges++
}

func makeTrack() *AutomationTrack {
	track := NewAutomationTrack("Projects/Song/Tempo")
	track.SetColour(Colour{A: 0xff, R: 0xde, G: 0x93, B: 0x5f})
	track.SetInstrumentID("fm-synth-01")
	track.SetControllerNumber(11)
	track.AddEvent(AutomationEvent{ID: "a", Beat: 1, Value: 0.25})
	track.AddEvent(AutomationEvent{ID: "b", Beat: 3, Value: 0.75})
	track.AddClip(Clip{ID: "c1", Beat: 0})
	return track
}

func assertSameState(t *testing.T, want, got *AutomationTrack) {
	t.Helper()
	assert.Equal(t, want.Name(), got.Name())
	assert.Equal(t, want.Colour(), got.Colour())
	assert.Equal(t, want.InstrumentID(), got.InstrumentID())
	assert.Equal(t, want.ControllerNumber(), got.ControllerNumber())
	assert.Equal(t, want.Events(), got.Events())
	assert.Equal(t, want.Clips(), got.Clips())
}

func TestResetRoundTrip(t *testing.T) {
	track := makeTrack()
	snap, err := helio.Capture(track)
	require.NoError(t, err)

	fresh := NewAutomationTrack("untitled")
	require.NoError(t, fresh.ResetStateTo(snap))
	assertSameState(t, track, fresh)
}

func TestResetIsIdempotent(t *testing.T) {
	track := makeTrack()
	snap, err := helio.Capture(track)
	require.NoError(t, err)

	first := NewAutomationTrack("untitled")
	require.NoError(t, first.ResetStateTo(snap))
	require.NoError(t, first.ResetStateTo(snap))
	assertSameState(t, track, first)
}

func TestCollectionResetReplacesWholeFacet(t *testing.T) {
	track := makeTrack() // events {a, b}

	payload := tree.New(string(helio.EventsAdded)).
		AppendChild(AutomationEvent{ID: "c", Beat: 5}.Serialize()).
		AppendChild(AutomationEvent{ID: "d", Beat: 7}.Serialize())
	snap := helio.NewSnapshot(track.UUID(), KindAutomationTrack).
		Add(helio.EventsAdded, payload)

	require.NoError(t, track.ResetStateTo(snap))

	require.Len(t, track.Events(), 2)
	assert.Equal(t, "c", track.Events()[0].ID)
	assert.Equal(t, "d", track.Events()[1].ID)
	first, last := track.BeatRange()
	assert.Equal(t, 0.0, first) // clip at beat 0 still there
	assert.Equal(t, 7.0, last)
}

func TestDiffUnionsEventsByIdentity(t *testing.T) {
	track := makeTrack() // events {a, b}

	theirEvents := tree.New(string(helio.EventsAdded)).
		AppendChild(AutomationEvent{ID: "a", Beat: 1, Value: 0.9}.Serialize()).
		AppendChild(AutomationEvent{ID: "c", Beat: 5}.Serialize())
	theirs := helio.NewSnapshot(track.UUID(), KindAutomationTrack).
		Add(helio.EventsAdded, theirEvents)

	candidates, err := helio.Diff(track, theirs)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	payload, ok := candidates[0].Find(helio.EventsAdded)
	require.True(t, ok)
	require.Equal(t, 3, payload.NumChildren())
	assert.Equal(t, "a", payload.Child(0).StringProp("id", ""))
	assert.Equal(t, "b", payload.Child(1).StringProp("id", ""))
	assert.Equal(t, "c", payload.Child(2).StringProp("id", ""))
	assert.Equal(t, 0.9, payload.Child(0).FloatProp("value", 0)) // theirs won
}

func TestUnknownDeltaTypeSkippedOnReset(t *testing.T) {
	track := makeTrack()

	snap := helio.NewSnapshot(track.UUID(), KindAutomationTrack).
		Add("granularSpray", tree.New("granularSpray").SetProperty("delta", "0.3")).
		Add(helio.TrackPath, tree.New(string(helio.TrackPath)).SetProperty("delta", "Projects/Song/Lead"))

	require.NoError(t, track.ResetStateTo(snap))
	assert.Equal(t, "Projects/Song/Lead", track.Name())
	// the rest of the state untouched
	assert.Len(t, track.Events(), 2)
	assert.Equal(t, int64(11), track.ControllerNumber())
}

type mismatchedItem struct {
	*helio.Snapshot
}

func (m mismatchedItem) DeltaData(index int) (*tree.Node, error) {
	// claims trackColour, delivers a path payload
	return tree.New(string(helio.TrackPath)).SetProperty("delta", "ffffffff"), nil
}

func TestMismatchedPayloadNeverApplied(t *testing.T) {
	track := makeTrack()
	colour := track.Colour()
	name := track.Name()

	snap := helio.NewSnapshot(track.UUID(), KindAutomationTrack).
		Add(helio.TrackColour, nil)

	require.NoError(t, track.ResetStateTo(mismatchedItem{snap}))
	assert.Equal(t, colour, track.Colour())
	assert.Equal(t, name, track.Name())
}

func TestNoopColourResetIsSuppressed(t *testing.T) {
	track := makeTrack()
	undoLen := len(track.UndoHistory())

	listener := &recordingListener{}
	track.AddListener(listener)

	snap := helio.NewSnapshot(track.UUID(), KindAutomationTrack).
		Add(helio.TrackColour,
			tree.New(string(helio.TrackColour)).SetProperty("delta", track.Colour().String()))

	require.NoError(t, track.ResetStateTo(snap))
	assert.Empty(t, listener.properties)
	assert.Zero(t, listener.beatRanges)
	assert.Len(t, track.UndoHistory(), undoLen)
}

func TestCheckoutSuppressesUndo(t *testing.T) {
	track := makeTrack()
	undoLen := len(track.UndoHistory())

	snap := helio.NewSnapshot(track.UUID(), KindAutomationTrack).
		Add(helio.TrackPath, tree.New(string(helio.TrackPath)).SetProperty("delta", "renamed")).
		Add(helio.TrackController, tree.New(string(helio.TrackController)).SetProperty("delta", int64(74)))

	require.NoError(t, track.ResetStateTo(snap))
	assert.Equal(t, "renamed", track.Name())
	assert.Equal(t, int64(74), track.ControllerNumber())
	assert.Len(t, track.UndoHistory(), undoLen)

	// while a user edit does get journaled
	track.SetName("user renamed")
	assert.Len(t, track.UndoHistory(), undoLen+1)
}

func TestBeatRangeNotifiedOnceForBatchedCheckout(t *testing.T) {
	track := makeTrack()
	listener := &recordingListener{}
	track.AddListener(listener)

	events := tree.New(string(helio.EventsAdded)).
		AppendChild(AutomationEvent{ID: "x", Beat: 16}.Serialize())
	clips := tree.New(string(helio.ClipsAdded)).
		AppendChild(Clip{ID: "y", Beat: 8}.Serialize())
	snap := helio.NewSnapshot(track.UUID(), KindAutomationTrack).
		Add(helio.EventsAdded, events).
		Add(helio.ClipsAdded, clips)

	require.NoError(t, track.ResetStateTo(snap))
	assert.Equal(t, 1, listener.beatRanges)
}

func TestResettingStateIsVisibleToObservers(t *testing.T) {
	track := makeTrack()

	var seen []bool
	track.AddListener(&funcListener{onProperty: func(string) {
		seen = append(seen, track.IsResetting())
	}})

	track.SetName("user edit")
	require.Equal(t, []bool{false}, seen)

	snap := helio.NewSnapshot(track.UUID(), KindAutomationTrack).
		Add(helio.TrackPath, tree.New(string(helio.TrackPath)).SetProperty("delta", "checkout edit"))
	require.NoError(t, track.ResetStateTo(snap))
	require.Equal(t, []bool{false, true}, seen)
	assert.False(t, track.IsResetting())
}

type funcListener struct {
	onProperty func(property string)
}

func (f *funcListener) TrackPropertyChanged(property string) {
	if f.onProperty != nil {
		f.onProperty(property)
	}
}

func (f *funcListener) BeatRangeChanged(first, last float64) {}

func TestDeltaDescriptionsRegenerate(t *testing.T) {
	track := NewAutomationTrack("untitled")

	eventsSlot, clipsSlot := -1, -1
	for i := 0; i < track.NumDeltas(); i++ {
		switch track.deltas[i].Type() {
		case helio.EventsAdded:
			eventsSlot = i
		case helio.ClipsAdded:
			clipsSlot = i
		}
	}
	require.GreaterOrEqual(t, eventsSlot, 0)
	require.GreaterOrEqual(t, clipsSlot, 0)

	assert.Equal(t, "empty sequence", track.Delta(eventsSlot).Description())
	assert.Equal(t, "empty pattern", track.Delta(clipsSlot).Description())

	track.AddEvent(AutomationEvent{Beat: 1})
	track.AddEvent(AutomationEvent{Beat: 2})
	track.AddClip(Clip{Beat: 0})
	assert.Equal(t, "2 events", track.Delta(eventsSlot).Description())
	assert.Equal(t, "1 clips", track.Delta(clipsSlot).Description())
}

func TestDeltaDataIsPureAndBoundsChecked(t *testing.T) {
	track := makeTrack()
	snapA, err := helio.Capture(track)
	require.NoError(t, err)
	snapB, err := helio.Capture(track)
	require.NoError(t, err)
	for i := 0; i < snapA.NumDeltas(); i++ {
		a, _ := snapA.DeltaData(i)
		b, _ := snapB.DeltaData(i)
		assert.True(t, a.Equal(b))
	}

	_, err = track.DeltaData(track.NumDeltas())
	assert.ErrorIs(t, err, helio.ErrDeltaOutOfRange)
	_, err = track.DeltaData(-1)
	assert.ErrorIs(t, err, helio.ErrDeltaOutOfRange)
}

func TestWholeDocumentRoundTrip(t *testing.T) {
	track := makeTrack()
	doc := track.Serialize()

	fresh := NewAutomationTrack("untitled")
	require.NoError(t, fresh.Deserialize(doc))
	assert.Equal(t, track.UUID(), fresh.UUID())
	assertSameState(t, track, fresh)
}

func TestPianoTrackRoundTripAndBounds(t *testing.T) {
	track := NewPianoTrack("Projects/Song/Keys")
	track.SetInstrumentID("grand-piano")
	track.AddNote(Note{ID: "n1", Key: 60, Beat: 0, Length: 2, Velocity: 0.8})
	track.AddNote(Note{ID: "n2", Key: 64, Beat: 4, Length: 1, Velocity: 0.6})
	track.AddClip(Clip{ID: "c1", Beat: 8})

	first, last := track.BeatRange()
	assert.Equal(t, 0.0, first)
	assert.Equal(t, 8.0, last)

	snap, err := helio.Capture(track)
	require.NoError(t, err)

	fresh := NewPianoTrack("untitled")
	require.NoError(t, fresh.ResetStateTo(snap))
	assert.Equal(t, track.Name(), fresh.Name())
	assert.Equal(t, track.InstrumentID(), fresh.InstrumentID())
	assert.Equal(t, track.Notes(), fresh.Notes())
	assert.Equal(t, track.Clips(), fresh.Clips())

	doc := track.Serialize()
	reloaded := NewPianoTrack("untitled")
	require.NoError(t, reloaded.Deserialize(doc))
	assert.Equal(t, track.UUID(), reloaded.UUID())
	assert.Equal(t, track.Notes(), reloaded.Notes())
}

func TestColourRoundTrip(t *testing.T) {
	colour := Colour{A: 0xff, R: 0xde, G: 0x93, B: 0x5f}
	parsed, err := ParseColour(colour.String())
	require.NoError(t, err)
	assert.Equal(t, colour, parsed)

	_, err = ParseColour("nothex!!")
	assert.ErrorIs(t, err, ErrBadColour)
	_, err = ParseColour("fff")
	assert.ErrorIs(t, err, ErrBadColour)
}

func TestTrackSnapshotsInStore(t *testing.T) {
	store, err := helio.OpenStore(t.TempDir(), helio.StoreOptions{Src: 0x1a})
	require.NoError(t, err)
	defer store.Close()

	track := makeTrack()
	require.NoError(t, store.SaveSnapshot(track))

	// local edits after the save...
	track.SetName("Projects/Song/Detuned")
	track.SetControllerNumber(74)

	// ...roll back on checkout
	require.NoError(t, store.Checkout(track))
	assert.Equal(t, "Projects/Song/Tempo", track.Name())
	assert.Equal(t, int64(11), track.ControllerNumber())

	ids, err := store.ListItems()
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{track.UUID()}, ids)
}
