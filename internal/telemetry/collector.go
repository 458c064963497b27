package telemetry

import (
	"context"
	"maps"
	"slices"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Collector is an in-process MeterProvider whose counters can be read back,
// used for the end-of-run summary.
type Collector struct {
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
	previous metric.MeterProvider
	once     sync.Once
}

// Install sets a new Collector as the global MeterProvider and rebinds the
// recorder instruments to it. Install before recording starts; Shutdown
// restores the previous provider.
func Install() *Collector {
	reader := sdkmetric.NewManualReader()
	c := &Collector{
		reader:   reader,
		provider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		previous: otel.GetMeterProvider(),
	}
	otel.SetMeterProvider(c.provider)
	instOnce = sync.Once{}
	return c
}

// Totals returns the sum of every int64 counter, keyed by metric name.
func (c *Collector) Totals(ctx context.Context) (map[string]int64, error) {
	var rm metricdata.ResourceMetrics
	if err := c.reader.Collect(ctx, &rm); err != nil {
		return nil, err
	}
	totals := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				totals[m.Name] += dp.Value
			}
		}
	}
	return totals, nil
}

// Names returns the metric names in totals, sorted.
func Names(totals map[string]int64) []string {
	return slices.Sorted(maps.Keys(totals))
}

// Shutdown stops the provider and restores the previous global
// MeterProvider. It is safe to call more than once.
func (c *Collector) Shutdown(ctx context.Context) error {
	var err error
	c.once.Do(func() {
		err = c.provider.Shutdown(ctx)
		otel.SetMeterProvider(c.previous)
		instOnce = sync.Once{}
	})
	return err
}
