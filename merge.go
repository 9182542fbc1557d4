package helio

import (
	"io"

	"github.com/itsbrex/helio-workstation/tree"
)

// PebbleMergeAdaptor feeds concurrently written delta values through the
// delta type's merge policy, so out-of-order saves of the same facet
// converge inside the store. Scalar facets keep the latest write; collection
// facets union their children by identity, newer entries winning.
type PebbleMergeAdaptor struct {
	typ  DeltaType
	old  bool
	vals [][]byte
}

func (a *PebbleMergeAdaptor) MergeNewer(value []byte) error {
	target := make([]byte, len(value))
	copy(target, value)
	a.vals = append(a.vals, target)
	return nil
}

func (a *PebbleMergeAdaptor) MergeOlder(value []byte) error {
	target := make([]byte, len(value))
	copy(target, value)
	a.vals = append(a.vals, target)
	a.old = true
	return nil
}

func (a *PebbleMergeAdaptor) Finish(includesBase bool) (res []byte, cl io.Closer, err error) {
	if a.old {
		reverse(a.vals)
	}
	if len(a.vals) == 0 {
		return nil, nil, nil
	}
	rule, _ := RuleFor(a.typ)
	switch rule.Policy {
	case UnionByIdentity:
		return unionMerge(rule, a.vals), nil, nil
	default:
		return lwwMerge(a.vals), nil, nil
	}
}

func reverse(vals [][]byte) {
	for i, j := 0, len(vals)-1; i < j; i, j = i+1, j-1 {
		vals[i], vals[j] = vals[j], vals[i]
	}
}

// unionMerge folds stamped collection payloads oldest to newest: later
// children replace same-identity earlier ones, new ones append in order.
// The result carries the highest stamp seen.
func unionMerge(rule Rule, vals [][]byte) []byte {
	merged := tree.New(string(rule.Type))
	var best Stamp
	slots := make(map[string]int)
	for _, rec := range vals {
		stamp, payload, err := UnsealValue(rec)
		if err != nil {
			continue
		}
		node, _, err := tree.UnmarshalTLV(payload)
		if err != nil || !node.Has(string(rule.Type)) {
			continue
		}
		if stamp.Rev > best.Rev || (stamp.Rev == best.Rev && stamp.Src > best.Src) {
			best = stamp
		}
		for _, c := range node.Children() {
			id := c.StringProp(rule.IdentityKey, "")
			if at, ok := slots[id]; ok {
				merged.Children()[at] = c.Copy()
			} else {
				slots[id] = merged.NumChildren()
				merged.AppendChild(c.Copy())
			}
		}
	}
	return SealValue(best, merged.MarshalTLV())
}
