// Package telemetry holds the OpenTelemetry instruments shared by core services.
// Instruments come from the global providers, which are no-ops unless the
// process installs an SDK.
package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName identifies this module's tracer and meter.
const InstrumentationName = "github.com/custodia-labs/rankpulse"

// Tracer returns the module tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// Metrics holds the counters recorded by core services.
type Metrics struct {
	// ResultsDropped counts retrieval hits below the similarity threshold.
	ResultsDropped metric.Int64Counter

	// ChunksIngested counts chunks written by ingest.
	ChunksIngested metric.Int64Counter

	// ReportsGenerated counts daily report runs, tagged by outcome.
	ReportsGenerated metric.Int64Counter
}

// NewMetrics creates the counters from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(InstrumentationName)

	dropped, err := meter.Int64Counter(
		"rag.results.dropped",
		metric.WithDescription("Retrieval results dropped below the similarity threshold"),
	)
	if err != nil {
		return nil, err
	}

	ingested, err := meter.Int64Counter(
		"rag.chunks.ingested",
		metric.WithDescription("Report chunks embedded and stored"),
	)
	if err != nil {
		return nil, err
	}

	generated, err := meter.Int64Counter(
		"report.daily.generated",
		metric.WithDescription("Daily report runs"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ResultsDropped:   dropped,
		ChunksIngested:   ingested,
		ReportsGenerated: generated,
	}, nil
}

// Default returns counters from the global meter provider, falling back
// to no-op counters if creation fails.
func Default() *Metrics {
	m, err := NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return Noop()
	}
	return m
}

// Noop returns counters that record nothing.
func Noop() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider())
	return m
}
