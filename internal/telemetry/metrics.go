// Package telemetry provides OpenTelemetry instrumentation for the share engine.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// PublishMetricsMeterName is the name used for the publish metrics meter
	PublishMetricsMeterName = "github.com/medibook/share-engine/publish"

	// ResolveMetricsMeterName is the name used for the resolution metrics meter
	ResolveMetricsMeterName = "github.com/medibook/share-engine/resolve"

	// ConflictMetricsMeterName is the name used for the conflict metrics meter
	ConflictMetricsMeterName = "github.com/medibook/share-engine/conflict"
)

// PublishMetrics holds the OpenTelemetry instruments for publish operations
type PublishMetrics struct {
	publishDuration metric.Float64Histogram
	recordsTotal    metric.Int64Counter
}

// NewPublishMetrics creates a new PublishMetrics instance with the given meter
// provider. If provider is nil, it returns nil (no-op metrics).
func NewPublishMetrics(provider metric.MeterProvider) (*PublishMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(PublishMetricsMeterName)

	publishDuration, err := meter.Float64Histogram(
		"mbk_share_publish_duration_seconds",
		metric.WithDescription("Duration of publish-and-share operations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60),
	)
	if err != nil {
		return nil, err
	}

	recordsTotal, err := meter.Int64Counter(
		"mbk_share_records_published_total",
		metric.WithDescription("Number of records published to the remote store"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	return &PublishMetrics{
		publishDuration: publishDuration,
		recordsTotal:    recordsTotal,
	}, nil
}

// RecordPublish records the outcome of one publish-and-share operation
func (m *PublishMetrics) RecordPublish(ctx context.Context, zone string, duration time.Duration, records int, success bool) {
	if m == nil || m.publishDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("zone", zone),
		attribute.Bool("success", success),
	}

	m.publishDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	if success {
		m.recordsTotal.Add(ctx, int64(records), metric.WithAttributes(attribute.String("zone", zone)))
	}
}

// ResolveMetrics holds the OpenTelemetry instruments for participant resolution
type ResolveMetrics struct {
	failuresTotal metric.Int64Counter
}

// NewResolveMetrics creates a new ResolveMetrics instance with the given meter
// provider. If provider is nil, it returns nil (no-op metrics).
func NewResolveMetrics(provider metric.MeterProvider) (*ResolveMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(ResolveMetricsMeterName)

	failuresTotal, err := meter.Int64Counter(
		"mbk_share_resolution_failures_total",
		metric.WithDescription("Number of contacts that failed to resolve"),
		metric.WithUnit("{contact}"),
	)
	if err != nil {
		return nil, err
	}

	return &ResolveMetrics{failuresTotal: failuresTotal}, nil
}

// RecordFailures records contacts that could not be resolved
func (m *ResolveMetrics) RecordFailures(ctx context.Context, count int) {
	if m == nil || m.failuresTotal == nil {
		return
	}
	m.failuresTotal.Add(ctx, int64(count))
}

// ConflictMetrics holds the OpenTelemetry instruments for conflict detection
type ConflictMetrics struct {
	conflictsTotal metric.Int64Counter
}

// NewConflictMetrics creates a new ConflictMetrics instance with the given
// meter provider. If provider is nil, it returns nil (no-op metrics).
func NewConflictMetrics(provider metric.MeterProvider) (*ConflictMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(ConflictMetricsMeterName)

	conflictsTotal, err := meter.Int64Counter(
		"mbk_share_conflicts_detected_total",
		metric.WithDescription("Number of optimistic-concurrency conflicts surfaced to callers"),
		metric.WithUnit("{conflict}"),
	)
	if err != nil {
		return nil, err
	}

	return &ConflictMetrics{conflictsTotal: conflictsTotal}, nil
}

// RecordConflict records one surfaced change-tag conflict
func (m *ConflictMetrics) RecordConflict(ctx context.Context, recordType string) {
	if m == nil || m.conflictsTotal == nil {
		return
	}
	m.conflictsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("record_type", recordType)))
}
