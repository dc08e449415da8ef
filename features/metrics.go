package features

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope for analysis metrics
const meterName = "github.com/RyanBlaney/sonido-voice/features"

// analysisBuckets are histogram boundaries in seconds for one file's analysis
var analysisBuckets = []float64{
	0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// Metrics holds the analysis instruments. All fields are safe for
// concurrent use.
type Metrics struct {
	// AnalysisDuration tracks single-file analysis latency
	AnalysisDuration metric.Float64Histogram

	// Files counts analyzed files. Use with attribute.String("status", ...)
	Files metric.Int64Counter

	// DroppedFrames counts cepstral frames without a usable quefrency band
	DroppedFrames metric.Int64Counter
}

// NewMetrics creates the analysis instruments on mp
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.AnalysisDuration, err = m.Float64Histogram("sonido_voice.analysis.duration",
		metric.WithDescription("Latency of single-file voice analysis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(analysisBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Files, err = m.Int64Counter("sonido_voice.files",
		metric.WithDescription("Total analyzed files by status."),
	); err != nil {
		return nil, err
	}
	if met.DroppedFrames, err = m.Int64Counter("sonido_voice.cpps.dropped_frames",
		metric.WithDescription("Cepstral frames dropped for an empty quefrency band."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics builds instruments on the global provider, which is a no-op
// until the application installs one
func defaultMetrics() *Metrics {
	m, err := NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return nil
	}
	return m
}

// RecordFile records one file outcome
func (m *Metrics) RecordFile(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.Files.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordAnalysis records the duration of one analysis and its dropped frames
func (m *Metrics) RecordAnalysis(ctx context.Context, seconds float64, dropped int) {
	if m == nil {
		return
	}
	m.AnalysisDuration.Record(ctx, seconds)
	if dropped > 0 {
		m.DroppedFrames.Add(ctx, int64(dropped))
	}
}
