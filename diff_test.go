package helio

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsbrex/helio-workstation/tree"
)

const testKind = "testTrack"

var testLogic = NewLogic(testKind,
	Rule{Type: TrackPath, Policy: LastWriter},
	Rule{Type: TrackColour, Policy: LastWriter},
	Rule{Type: EventsAdded, Policy: UnionByIdentity, IdentityKey: "id"},
)

func init() {
	RegisterLogic(testLogic)
}

func event(id string, beat float64) *tree.Node {
	return tree.New("automationEvent").
		SetProperty("id", id).
		SetProperty("beat", beat)
}

func scalar(typ DeltaType, value string) *tree.Node {
	return tree.New(string(typ)).SetProperty("delta", value)
}

func testSnapshot(id uuid.UUID, colour string, events ...*tree.Node) *Snapshot {
	seq := tree.New(string(EventsAdded))
	for _, e := range events {
		seq.AppendChild(e)
	}
	return NewSnapshot(id, testKind).
		Add(TrackPath, scalar(TrackPath, "Projects/Song/Lead")).
		Add(TrackColour, scalar(TrackColour, colour)).
		Add(EventsAdded, seq)
}

func TestSelfDiffIsEmpty(t *testing.T) {
	id := uuid.New()
	mine := testSnapshot(id, "ffaabbcc", event("a", 1), event("b", 2))

	candidates, err := testLogic.Diff(mine, mine)
	require.NoError(t, err)
	assert.Empty(t, candidates)

	// equal content in two distinct snapshots diffs empty too
	other := testSnapshot(id, "ffaabbcc", event("a", 1), event("b", 2))
	candidates, err = testLogic.Diff(mine, other)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestDiffIdentityMismatch(t *testing.T) {
	mine := testSnapshot(uuid.New(), "ffaabbcc")
	theirs := testSnapshot(uuid.New(), "ffaabbcc")

	_, err := testLogic.Diff(mine, theirs)
	assert.ErrorIs(t, err, ErrIdentityMismatch)
}

func TestScalarLastWriterWins(t *testing.T) {
	id := uuid.New()
	mine := testSnapshot(id, "ffaabbcc")
	theirs := testSnapshot(id, "ff112233")

	candidates, err := testLogic.Diff(mine, theirs)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	result := candidates[0]
	assert.Equal(t, id, result.UUID())
	assert.Equal(t, 1, result.NumDeltas())

	payload, ok := result.Find(TrackColour)
	require.True(t, ok)
	assert.Equal(t, "ff112233", payload.StringProp("delta", ""))
}

func TestUnionByIdentityMerge(t *testing.T) {
	id := uuid.New()
	mine := testSnapshot(id, "ffaabbcc", event("a", 1), event("b", 2))
	theirs := testSnapshot(id, "ffaabbcc", event("a", 8), event("c", 3))

	candidates, err := testLogic.Diff(mine, theirs)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	payload, ok := candidates[0].Find(EventsAdded)
	require.True(t, ok)
	require.Equal(t, 3, payload.NumChildren())

	// mine's order first, theirs-only entries appended
	assert.Equal(t, "a", payload.Child(0).StringProp("id", ""))
	assert.Equal(t, "b", payload.Child(1).StringProp("id", ""))
	assert.Equal(t, "c", payload.Child(2).StringProp("id", ""))

	// theirs wins the identity collision
	assert.Equal(t, 8.0, payload.Child(0).FloatProp("beat", 0))
}

func TestDiffDoesNotMutateInputs(t *testing.T) {
	id := uuid.New()
	mine := testSnapshot(id, "ffaabbcc", event("a", 1))
	theirs := testSnapshot(id, "ff112233", event("b", 2))

	mineBefore, theirsBefore := mine.Copy(), theirs.Copy()

	_, err := testLogic.Diff(mine, theirs)
	require.NoError(t, err)

	for i := 0; i < mine.NumDeltas(); i++ {
		a, _ := mine.DeltaData(i)
		b, _ := mineBefore.DeltaData(i)
		assert.True(t, a.Equal(b))
	}
	for i := 0; i < theirs.NumDeltas(); i++ {
		a, _ := theirs.DeltaData(i)
		b, _ := theirsBefore.DeltaData(i)
		assert.True(t, a.Equal(b))
	}
}

func TestUnknownDeltaTypeIgnoredByDiff(t *testing.T) {
	id := uuid.New()
	mine := testSnapshot(id, "ffaabbcc")
	theirs := testSnapshot(id, "ffaabbcc").
		Add("wavetableMorph", tree.New("wavetableMorph").SetProperty("delta", "saw"))

	candidates, err := testLogic.Diff(mine, theirs)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestSnapshotDescriptionsRegenerate(t *testing.T) {
	id := uuid.New()
	snap := testSnapshot(id, "ffaabbcc")

	assert.Equal(t, "empty sequence", snap.Delta(2).Description())

	payload, _ := snap.Find(EventsAdded)
	payload.AppendChild(event("a", 1))
	payload.AppendChild(event("b", 2))
	assert.Equal(t, "2 events", snap.Delta(2).Description())
}
