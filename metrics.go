package helio

import "github.com/prometheus/client_golang/prometheus"

var SnapshotsSaved = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "helio",
	Subsystem: "vcs",
	Name:      "snapshots_saved",
}, []string{"kind"})

var SnapshotsLoaded = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "helio",
	Subsystem: "vcs",
	Name:      "snapshots_loaded",
}, []string{"kind"})

var DiffsComputed = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "helio",
	Subsystem: "vcs",
	Name:      "diffs_computed",
}, []string{"kind"})

var CheckoutDeltas = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "helio",
	Subsystem: "vcs",
	Name:      "checkout_deltas",
}, []string{"type", "result"})

// Checkout delta outcomes.
const (
	CheckoutApplied = "applied"
	CheckoutNoop    = "noop"
	CheckoutSkipped = "skipped"
)

// Collectors returns the engine's own metrics; store-level pebble metrics
// come from NewStoreCollector.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		SnapshotsSaved, SnapshotsLoaded, DiffsComputed, CheckoutDeltas,
	}
}
