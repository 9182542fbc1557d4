package helio

import (
	"github.com/google/uuid"
	"github.com/itsbrex/helio-workstation/tree"
)

// Snapshot is a TrackedItem-shaped value: an identity, an entity kind and a
// list of delta payloads detached from any live entity. Diff results, stored
// versions and foreign states fed to checkout are all snapshots.
type Snapshot struct {
	id     uuid.UUID
	kind   string
	deltas []*Delta
	data   []*tree.Node
}

func NewSnapshot(id uuid.UUID, kind string) *Snapshot {
	return &Snapshot{id: id, kind: kind}
}

// Capture copies every delta payload of a live item into a snapshot.
func Capture(item TrackedItem) (*Snapshot, error) {
	kind := ""
	if logic := item.DiffLogic(); logic != nil {
		kind = logic.Kind()
	}
	snap := NewSnapshot(item.UUID(), kind)
	for i := 0; i < item.NumDeltas(); i++ {
		data, err := item.DeltaData(i)
		if err != nil {
			return nil, err
		}
		snap.Add(item.Delta(i).Type(), data)
	}
	return snap, nil
}

// Add appends a delta slot holding the payload. The payload's root tag must
// be the delta type itself; Add keeps them consistent by retagging.
func (s *Snapshot) Add(typ DeltaType, payload *tree.Node) *Snapshot {
	if payload == nil {
		payload = tree.New(string(typ))
	}
	payload.Tag = string(typ)
	s.deltas = append(s.deltas, NewDelta(typ))
	s.data = append(s.data, payload)
	return s
}

// Find returns the payload for the type, if the snapshot carries that slot.
func (s *Snapshot) Find(typ DeltaType) (*tree.Node, bool) {
	for i, d := range s.deltas {
		if d.Has(typ) {
			return s.data[i], true
		}
	}
	return nil, false
}

func (s *Snapshot) Kind() string {
	return s.kind
}

func (s *Snapshot) Copy() *Snapshot {
	dup := NewSnapshot(s.id, s.kind)
	for i, d := range s.deltas {
		dup.Add(d.Type(), s.data[i].Copy())
	}
	return dup
}

// TrackedItem

func (s *Snapshot) UUID() uuid.UUID {
	return s.id
}

func (s *Snapshot) NumDeltas() int {
	return len(s.deltas)
}

func (s *Snapshot) Delta(index int) *Delta {
	d := s.deltas[index]
	payload := s.data[index]
	switch d.Type() {
	case EventsAdded:
		d.SetDescription(CountDescription(payload.NumChildren(), "events", "empty sequence"))
	case ClipsAdded:
		d.SetDescription(CountDescription(payload.NumChildren(), "clips", "empty pattern"))
	default:
		d.SetDescription(payload.StringProp("delta", ""))
	}
	return d
}

func (s *Snapshot) DeltaData(index int) (*tree.Node, error) {
	if index < 0 || index >= len(s.data) {
		return nil, ErrDeltaOutOfRange
	}
	return s.data[index].Copy(), nil
}

func (s *Snapshot) DiffLogic() *Logic {
	logic, _ := LogicFor(s.kind)
	return logic
}

// ResetStateTo adopts the other item's payloads for every slot type this
// snapshot also carries; foreign types are skipped.
func (s *Snapshot) ResetStateTo(other TrackedItem) error {
	for i := 0; i < other.NumDeltas(); i++ {
		typ := other.Delta(i).Type()
		for j, d := range s.deltas {
			if !d.Has(typ) {
				continue
			}
			data, err := other.DeltaData(i)
			if err != nil {
				return err
			}
			if !data.Has(string(typ)) {
				continue
			}
			s.data[j] = data
			break
		}
	}
	return nil
}
