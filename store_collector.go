package helio

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StoreCollector exposes the health of the store's pebble instance:
// compaction pressure, memtable usage and WAL volume.
type StoreCollector struct {
	store *Store

	compactionCount *prometheus.Desc
	compactionDebt  *prometheus.Desc
	memtableSize    *prometheus.Desc
	memtableCount   *prometheus.Desc
	walSize         *prometheus.Desc
	walBytesWritten *prometheus.Desc
	diskUsage       *prometheus.Desc
}

func NewStoreCollector(store *Store) *StoreCollector {
	return &StoreCollector{
		store: store,

		compactionCount: prometheus.NewDesc(
			"helio_store_compaction_count_total",
			"Total number of pebble compactions performed",
			nil, nil,
		),
		compactionDebt: prometheus.NewDesc(
			"helio_store_compaction_estimated_debt_bytes",
			"Estimated number of bytes pending compaction",
			nil, nil,
		),
		memtableSize: prometheus.NewDesc(
			"helio_store_memtable_size_bytes",
			"Current size of the memtables",
			nil, nil,
		),
		memtableCount: prometheus.NewDesc(
			"helio_store_memtable_count",
			"Number of memtables",
			nil, nil,
		),
		walSize: prometheus.NewDesc(
			"helio_store_wal_size_bytes",
			"Current size of the write-ahead log",
			nil, nil,
		),
		walBytesWritten: prometheus.NewDesc(
			"helio_store_wal_bytes_written_total",
			"Total bytes written to the write-ahead log",
			nil, nil,
		),
		diskUsage: prometheus.NewDesc(
			"helio_store_disk_usage_bytes",
			"Total disk space used by the store",
			nil, nil,
		),
	}
}

func (sc *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- sc.compactionCount
	ch <- sc.compactionDebt
	ch <- sc.memtableSize
	ch <- sc.memtableCount
	ch <- sc.walSize
	ch <- sc.walBytesWritten
	ch <- sc.diskUsage
}

func (sc *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	if sc.store.db == nil {
		return
	}
	metrics := sc.store.db.Metrics()

	ch <- prometheus.MustNewConstMetric(
		sc.compactionCount,
		prometheus.CounterValue,
		float64(metrics.Compact.Count),
	)
	ch <- prometheus.MustNewConstMetric(
		sc.compactionDebt,
		prometheus.GaugeValue,
		float64(metrics.Compact.EstimatedDebt),
	)
	ch <- prometheus.MustNewConstMetric(
		sc.memtableSize,
		prometheus.GaugeValue,
		float64(metrics.MemTable.Size),
	)
	ch <- prometheus.MustNewConstMetric(
		sc.memtableCount,
		prometheus.GaugeValue,
		float64(metrics.MemTable.Count),
	)
	ch <- prometheus.MustNewConstMetric(
		sc.walSize,
		prometheus.GaugeValue,
		float64(metrics.WAL.Size),
	)
	ch <- prometheus.MustNewConstMetric(
		sc.walBytesWritten,
		prometheus.CounterValue,
		float64(metrics.WAL.BytesWritten),
	)
	ch <- prometheus.MustNewConstMetric(
		sc.diskUsage,
		prometheus.GaugeValue,
		float64(metrics.DiskSpaceUsage()),
	)
}
