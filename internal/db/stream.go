package db

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

var queryDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "propinsight",
		Subsystem: "db",
		Name:      "query_duration_seconds",
		Help:      "Duration of analytics queries, from execution until the cursor is released.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	},
	[]string{"query", "outcome"},
)

// Collectors returns the Prometheus collectors owned by this package.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{queryDuration}
}

// stream runs query and yields one scanned row at a time. The cursor,
// and with it the pooled connection, is acquired when iteration starts
// and released on every exit path: exhaustion, a scan or driver error,
// or the consumer breaking out early. The sequence is single-pass.
func stream[T any](ctx context.Context, db *gorm.DB, name, query string, args []any, fix func(*T)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		start := time.Now()
		outcome := "ok"
		defer func() {
			queryDuration.WithLabelValues(name, outcome).Observe(time.Since(start).Seconds())
		}()

		rows, err := db.WithContext(ctx).Raw(query, args...).Rows()
		if err != nil {
			outcome = "error"
			yield(zero, fmt.Errorf("%s: %w", name, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var row T
			if err := db.ScanRows(rows, &row); err != nil {
				outcome = "error"
				yield(zero, fmt.Errorf("%s: scan: %w", name, err))
				return
			}
			if fix != nil {
				fix(&row)
			}
			if !yield(row, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			outcome = "error"
			yield(zero, fmt.Errorf("%s: %w", name, err))
		}
	}
}

// Collect drains seq into a slice and stops at the first error. The
// result is never nil so it encodes as a JSON array.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	out := make([]T, 0)
	for row, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// SeqOf returns a sequence over rows, for callers and tests that
// already hold the data.
func SeqOf[T any](rows ...T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, r := range rows {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// ErrSeq returns a sequence that yields err once.
func ErrSeq[T any](err error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		yield(zero, err)
	}
}
