package helio

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// Read-mostly registries: entity kinds register their diff logic once at
// startup, diffs and the store merge operator look rules up on every
// operation.
var (
	logics = xsync.NewMapOf[string, *Logic]()
	rules  = xsync.NewMapOf[DeltaType, Rule]()
)

// RegisterLogic publishes the kind's diff logic, making its delta-type rules
// visible to Diff, snapshot loading and the store merge operator.
func RegisterLogic(logic *Logic) {
	logics.Store(logic.kind, logic)
	for _, r := range logic.rules {
		rules.Store(r.Type, r)
	}
}

func LogicFor(kind string) (*Logic, bool) {
	return logics.Load(kind)
}

// RuleFor resolves a delta type's merge rule across all registered kinds.
// Unregistered types fall back to last-writer-wins.
func RuleFor(typ DeltaType) (Rule, bool) {
	if r, ok := rules.Load(typ); ok {
		return r, true
	}
	return Rule{Type: typ, Policy: LastWriter}, false
}
