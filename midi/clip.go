package midi

import "github.com/itsbrex/helio-workstation/tree"

// Clip is one instance of the track's pattern placed on the timeline.
type Clip struct {
	ID   string
	Beat float64
}

func (c Clip) Serialize() *tree.Node {
	return tree.New(TagClip).
		SetProperty("id", c.ID).
		SetProperty("beat", c.Beat)
}

func checkoutClip(state *tree.Node) (Clip, error) {
	if !state.Has(TagClip) {
		return Clip{}, ErrWrongEventTag
	}
	return Clip{
		ID:   state.StringProp("id", ""),
		Beat: state.FloatProp("beat", 0),
	}, nil
}
