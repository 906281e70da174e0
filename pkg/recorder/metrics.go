package recorder

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/drivetime/drivetime/log"
)

type recorderMetrics struct {
	started    metric.Int64Counter
	completed  metric.Int64Counter
	cancelled  metric.Int64Counter
	saved      metric.Int64Counter
	saveFailed metric.Int64Counter
}

func newRecorderMetrics(l *log.Logger) *recorderMetrics {
	meter := otel.GetMeterProvider().Meter("drivetime.recorder")
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name,
			metric.WithDescription(desc),
			metric.WithUnit("{count}"))
		if err != nil {
			l.Error("failed to register metric",
				log.String("metric", name),
				log.ErrorField(err))
		}
		return c
	}
	return &recorderMetrics{
		started:    counter("drivetime.drives.started", "Number of started drives"),
		completed:  counter("drivetime.drives.completed", "Number of completed drives"),
		cancelled:  counter("drivetime.drives.cancelled", "Number of cancelled drives"),
		saved:      counter("drivetime.trips.saved", "Number of saved trips"),
		saveFailed: counter("drivetime.trips.save_failed", "Number of failed trip saves"),
	}
}

func (m *recorderMetrics) inc(c metric.Int64Counter, routeID string) {
	if c == nil {
		return
	}
	c.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("route", routeID)))
}
