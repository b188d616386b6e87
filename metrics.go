package coldb

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    addRowCounter prometheus.Counter
//	    syncHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordSync(duration time.Duration, err error) {
//	    p.syncHistogram.Observe(duration.Seconds())
//	}
type MetricsCollector interface {
	// RecordAddRow is called after each coldb Table.AddRow. InsertDone
	// does not record a metric.
	RecordAddRow(duration time.Duration, err error)

	// RecordOptimize is called after each Table.Optimize pass. converted is
	// the number of STRING columns rewritten as STRING_ENUM.
	RecordOptimize(converted int, duration time.Duration, err error)

	// RecordFind records one query Find evaluation. Nothing in coldb calls
	// it: query.Node.Find does not report to a MetricsCollector.
	RecordFind(duration time.Duration, found bool)

	// RecordSync is called after each backend Sync/flush.
	RecordSync(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAddRow(time.Duration, error)        {}
func (NoopMetricsCollector) RecordOptimize(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordFind(time.Duration, bool)           {}
func (NoopMetricsCollector) RecordSync(time.Duration, error)          {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AddRowCount      atomic.Int64
	AddRowErrors     atomic.Int64
	AddRowTotalNanos atomic.Int64
	OptimizeCount    atomic.Int64
	OptimizeConverts atomic.Int64
	FindCount        atomic.Int64
	FindHits         atomic.Int64
	SyncCount        atomic.Int64
	SyncErrors       atomic.Int64
}

// RecordAddRow implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAddRow(duration time.Duration, err error) {
	b.AddRowCount.Add(1)
	b.AddRowTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AddRowErrors.Add(1)
	}
}

// RecordOptimize implements MetricsCollector.
func (b *BasicMetricsCollector) RecordOptimize(converted int, duration time.Duration, err error) {
	b.OptimizeCount.Add(1)
	b.OptimizeConverts.Add(int64(converted))
}

// RecordFind implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFind(duration time.Duration, found bool) {
	b.FindCount.Add(1)
	if found {
		b.FindHits.Add(1)
	}
}

// RecordSync implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSync(duration time.Duration, err error) {
	b.SyncCount.Add(1)
	if err != nil {
		b.SyncErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddRowCount:      b.AddRowCount.Load(),
		AddRowErrors:     b.AddRowErrors.Load(),
		AddRowAvgNanos:   b.getAvgAddRowNanos(),
		OptimizeCount:    b.OptimizeCount.Load(),
		OptimizeConverts: b.OptimizeConverts.Load(),
		FindCount:        b.FindCount.Load(),
		FindHits:         b.FindHits.Load(),
		SyncCount:        b.SyncCount.Load(),
		SyncErrors:       b.SyncErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgAddRowNanos() int64 {
	count := b.AddRowCount.Load()
	if count == 0 {
		return 0
	}
	return b.AddRowTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AddRowCount      int64
	AddRowErrors     int64
	AddRowAvgNanos   int64
	OptimizeCount    int64
	OptimizeConverts int64
	FindCount        int64
	FindHits         int64
	SyncCount        int64
	SyncErrors       int64
}
