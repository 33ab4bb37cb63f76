package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// UnitInstrumenter wraps provider units with a span and OTel metrics. One
// unit is a single provider's full attempt loop within one lookup.
type UnitInstrumenter struct {
	tracer       trace.Tracer
	unitsActive  metric.Int64UpDownCounter
	unitDuration metric.Float64Histogram
	unitsTotal   metric.Int64Counter
}

// NewUnitInstrumenter creates the provider-unit instrumenter.
func NewUnitInstrumenter(tracer trace.Tracer, meter metric.Meter, serviceName string) (*UnitInstrumenter, error) {
	unitsActive, err := meter.Int64UpDownCounter(
		fmt.Sprintf("definitie_%s_provider_units_active", serviceName),
		metric.WithDescription("Provider units currently running"),
	)
	if err != nil {
		return nil, err
	}

	unitDuration, err := meter.Float64Histogram(
		fmt.Sprintf("definitie_%s_provider_unit_duration_seconds", serviceName),
		metric.WithDescription("Provider unit duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	unitsTotal, err := meter.Int64Counter(
		fmt.Sprintf("definitie_%s_provider_units_total", serviceName),
		metric.WithDescription("Total provider units processed"),
	)
	if err != nil {
		return nil, err
	}

	return &UnitInstrumenter{
		tracer:       tracer,
		unitsActive:  unitsActive,
		unitDuration: unitDuration,
		unitsTotal:   unitsTotal,
	}, nil
}

// InstrumentUnit runs fn inside a span and records unit metrics.
func (u *UnitInstrumenter) InstrumentUnit(ctx context.Context, providerID string, fn func(context.Context) error) error {
	u.unitsActive.Add(ctx, 1)
	defer u.unitsActive.Add(ctx, -1)

	ctx, span := u.tracer.Start(ctx, fmt.Sprintf("provider.%s", providerID),
		trace.WithAttributes(
			attribute.String("provider.id", providerID),
		),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
	}

	attrs := metric.WithAttributes(
		attribute.String("provider.id", providerID),
		attribute.String("status", status),
	)
	u.unitDuration.Record(ctx, duration, attrs)
	u.unitsTotal.Add(ctx, 1, attrs)

	return err
}
