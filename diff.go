package helio

import (
	"github.com/itsbrex/helio-workstation/tree"
)

// MergePolicy decides which payload a synthesized transition delta carries
// when two versions disagree on a facet.
type MergePolicy int

const (
	// LastWriter takes theirs' payload wholesale; the facet is a scalar.
	LastWriter MergePolicy = iota
	// UnionByIdentity unions the payloads' children keyed by each child's
	// own identity property, theirs winning on collision.
	UnionByIdentity
)

// Rule binds one delta type to its comparison and merge behavior.
type Rule struct {
	Type DeltaType

	Policy MergePolicy

	// IdentityKey names the child property that identifies collection
	// elements. Only meaningful with UnionByIdentity.
	IdentityKey string
}

// Logic is the per-entity-kind diff/merge policy. It is immutable after
// construction, so one instance serves any number of concurrent diffs.
type Logic struct {
	kind  string
	rules []Rule
	index map[DeltaType]Rule
}

func NewLogic(kind string, rules ...Rule) *Logic {
	index := make(map[DeltaType]Rule, len(rules))
	for _, r := range rules {
		index[r.Type] = r
	}
	return &Logic{kind: kind, rules: rules, index: index}
}

func (l *Logic) Kind() string {
	return l.kind
}

func (l *Logic) Rule(typ DeltaType) (Rule, bool) {
	r, ok := l.index[typ]
	return r, ok
}

// Diff compares two versions of the same entity and returns the merge
// candidates: TrackedItem-shaped snapshots carrying exactly the deltas that
// differ, payloads resolved by the per-type policy. A self-diff returns no
// candidates. Neither input is mutated.
func (l *Logic) Diff(mine, theirs TrackedItem) ([]*Snapshot, error) {
	if mine.UUID() != theirs.UUID() {
		return nil, ErrIdentityMismatch
	}

	ours := make(map[DeltaType]*tree.Node, mine.NumDeltas())
	for i := 0; i < mine.NumDeltas(); i++ {
		data, err := mine.DeltaData(i)
		if err != nil {
			return nil, err
		}
		ours[mine.Delta(i).Type()] = data
	}

	result := NewSnapshot(mine.UUID(), l.kind)
	for i := 0; i < theirs.NumDeltas(); i++ {
		typ := theirs.Delta(i).Type()
		rule, known := l.index[typ]
		if !known {
			continue
		}
		theirData, err := theirs.DeltaData(i)
		if err != nil {
			return nil, err
		}
		myData, shared := ours[typ]
		if shared && myData.Hash() == theirData.Hash() && myData.Equal(theirData) {
			continue
		}
		result.Add(typ, l.resolve(rule, myData, theirData))
	}

	DiffsComputed.WithLabelValues(l.kind).Inc()
	if result.NumDeltas() == 0 {
		return nil, nil
	}
	return []*Snapshot{result}, nil
}

func (l *Logic) resolve(rule Rule, mine, theirs *tree.Node) *tree.Node {
	switch rule.Policy {
	case UnionByIdentity:
		return unionChildren(rule, mine, theirs)
	default:
		return theirs.Copy()
	}
}

// unionChildren keeps mine's children in order, substituting theirs' version
// on identity collision, then appends theirs-only children in their order.
func unionChildren(rule Rule, mine, theirs *tree.Node) *tree.Node {
	merged := tree.New(string(rule.Type))

	foreign := make(map[string]*tree.Node, theirs.NumChildren())
	for _, c := range theirs.Children() {
		foreign[c.StringProp(rule.IdentityKey, "")] = c
	}

	seen := make(map[string]bool, mine.NumChildren())
	for _, c := range mine.Children() {
		id := c.StringProp(rule.IdentityKey, "")
		seen[id] = true
		if winner, ok := foreign[id]; ok {
			merged.AppendChild(winner.Copy())
		} else {
			merged.AppendChild(c.Copy())
		}
	}
	for _, c := range theirs.Children() {
		if !seen[c.StringProp(rule.IdentityKey, "")] {
			merged.AppendChild(c.Copy())
		}
	}
	return merged
}

// Diff is the entry point used when only the items are at hand; the logic
// comes from mine's kind.
func Diff(mine, theirs TrackedItem) ([]*Snapshot, error) {
	logic := mine.DiffLogic()
	if logic == nil {
		return nil, ErrKindUnknown
	}
	return logic.Diff(mine, theirs)
}
