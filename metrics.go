package binmatrix

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
//	    reads      prometheus.Counter
//	    readLatency prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordRead(duration time.Duration, err error) {
//	    p.reads.Inc()
//	    p.readLatency.Observe(duration.Seconds())
//	}
type MetricsCollector interface {
	// RecordRead is called after each scalar read (Read, At).
	RecordRead(duration time.Duration, err error)

	// RecordWrite is called after each scalar write (Write, Set).
	RecordWrite(duration time.Duration, err error)

	// RecordBulkRead is called after ReadMany and ReadGrid.
	// count is the number of elements requested.
	RecordBulkRead(count int, duration time.Duration, err error)

	// RecordBulkWrite is called after WriteGrid and Fill.
	// count is the number of elements requested, written the number that
	// reached the file before an error (if any).
	RecordBulkWrite(count, written int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRead(time.Duration, error)                {}
func (NoopMetricsCollector) RecordWrite(time.Duration, error)               {}
func (NoopMetricsCollector) RecordBulkRead(int, time.Duration, error)       {}
func (NoopMetricsCollector) RecordBulkWrite(int, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ReadCount          atomic.Int64
	ReadErrors         atomic.Int64
	ReadTotalNanos     atomic.Int64
	WriteCount         atomic.Int64
	WriteErrors        atomic.Int64
	WriteTotalNanos    atomic.Int64
	BulkReadCount      atomic.Int64
	BulkReadElements   atomic.Int64
	BulkReadErrors     atomic.Int64
	BulkWriteCount     atomic.Int64
	BulkWriteElements  atomic.Int64
	BulkWriteWritten   atomic.Int64
	BulkWriteErrors    atomic.Int64
	BulkWriteTotalNano atomic.Int64
}

// RecordRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRead(duration time.Duration, err error) {
	b.ReadCount.Add(1)
	b.ReadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ReadErrors.Add(1)
	}
}

// RecordWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWrite(duration time.Duration, err error) {
	b.WriteCount.Add(1)
	b.WriteTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.WriteErrors.Add(1)
	}
}

// RecordBulkRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBulkRead(count int, duration time.Duration, err error) {
	b.BulkReadCount.Add(1)
	b.BulkReadElements.Add(int64(count))
	if err != nil {
		b.BulkReadErrors.Add(1)
	}
}

// RecordBulkWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBulkWrite(count, written int, duration time.Duration, err error) {
	b.BulkWriteCount.Add(1)
	b.BulkWriteElements.Add(int64(count))
	b.BulkWriteWritten.Add(int64(written))
	b.BulkWriteTotalNano.Add(duration.Nanoseconds())
	if err != nil {
		b.BulkWriteErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ReadCount:         b.ReadCount.Load(),
		ReadErrors:        b.ReadErrors.Load(),
		ReadAvgNanos:      avg(b.ReadTotalNanos.Load(), b.ReadCount.Load()),
		WriteCount:        b.WriteCount.Load(),
		WriteErrors:       b.WriteErrors.Load(),
		WriteAvgNanos:     avg(b.WriteTotalNanos.Load(), b.WriteCount.Load()),
		BulkReadCount:     b.BulkReadCount.Load(),
		BulkReadElements:  b.BulkReadElements.Load(),
		BulkReadErrors:    b.BulkReadErrors.Load(),
		BulkWriteCount:    b.BulkWriteCount.Load(),
		BulkWriteElements: b.BulkWriteElements.Load(),
		BulkWriteWritten:  b.BulkWriteWritten.Load(),
		BulkWriteErrors:   b.BulkWriteErrors.Load(),
		BulkWriteAvgNanos: avg(b.BulkWriteTotalNano.Load(), b.BulkWriteCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ReadCount         int64
	ReadErrors        int64
	ReadAvgNanos      int64
	WriteCount        int64
	WriteErrors       int64
	WriteAvgNanos     int64
	BulkReadCount     int64
	BulkReadElements  int64
	BulkReadErrors    int64
	BulkWriteCount    int64
	BulkWriteElements int64
	BulkWriteWritten  int64
	BulkWriteErrors   int64
	BulkWriteAvgNanos int64
}
