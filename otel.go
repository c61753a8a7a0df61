package webmail

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/rbaliyan/webmail"
)

// otelInstrumentation holds OpenTelemetry instrumentation for the webmail service.
type otelInstrumentation struct {
	enabled bool

	// Tracing
	tracingEnabled bool
	tracer         trace.Tracer

	// Metrics
	metricsEnabled bool

	composeLatency metric.Float64Histogram
	composeCount   metric.Int64Counter
	composeErrors  metric.Int64Counter
	getLatency     metric.Float64Histogram
	getCount       metric.Int64Counter
	getErrors      metric.Int64Counter
	listLatency    metric.Float64Histogram
	listCount      metric.Int64Counter
	listErrors     metric.Int64Counter
	updateLatency  metric.Float64Histogram
	updateCount    metric.Int64Counter
	updateErrors   metric.Int64Counter
	deleteLatency  metric.Float64Histogram
	deleteCount    metric.Int64Counter
	deleteErrors   metric.Int64Counter
}

// newOtelInstrumentation creates new OTel instrumentation from options.
func newOtelInstrumentation(opts *options) (*otelInstrumentation, error) {
	o := &otelInstrumentation{
		enabled:        opts.tracingEnabled || opts.metricsEnabled,
		tracingEnabled: opts.tracingEnabled,
		metricsEnabled: opts.metricsEnabled,
	}

	if !o.enabled {
		return o, nil
	}

	if opts.tracingEnabled {
		tp := opts.tracerProvider
		if tp == nil {
			tp = otel.GetTracerProvider()
		}
		o.tracer = tp.Tracer(instrumentationName)
	}

	if opts.metricsEnabled {
		mp := opts.meterProvider
		if mp == nil {
			mp = otel.GetMeterProvider()
		}
		if err := o.initMetrics(mp); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// initMetrics initializes all metric instruments.
func (o *otelInstrumentation) initMetrics(mp metric.MeterProvider) error {
	meter := mp.Meter(instrumentationName)

	var err error

	// Compose metrics
	o.composeLatency, err = meter.Float64Histogram(
		"webmail.compose.duration",
		metric.WithDescription("Duration of compose operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	o.composeCount, err = meter.Int64Counter(
		"webmail.compose.count",
		metric.WithDescription("Number of messages composed"),
	)
	if err != nil {
		return err
	}

	o.composeErrors, err = meter.Int64Counter(
		"webmail.compose.errors",
		metric.WithDescription("Number of compose errors"),
	)
	if err != nil {
		return err
	}

	// Get metrics
	o.getLatency, err = meter.Float64Histogram(
		"webmail.get.duration",
		metric.WithDescription("Duration of get operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	o.getCount, err = meter.Int64Counter(
		"webmail.get.count",
		metric.WithDescription("Number of get operations"),
	)
	if err != nil {
		return err
	}

	o.getErrors, err = meter.Int64Counter(
		"webmail.get.errors",
		metric.WithDescription("Number of get errors"),
	)
	if err != nil {
		return err
	}

	// List metrics
	o.listLatency, err = meter.Float64Histogram(
		"webmail.list.duration",
		metric.WithDescription("Duration of list operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	o.listCount, err = meter.Int64Counter(
		"webmail.list.count",
		metric.WithDescription("Number of list operations"),
	)
	if err != nil {
		return err
	}

	o.listErrors, err = meter.Int64Counter(
		"webmail.list.errors",
		metric.WithDescription("Number of list errors"),
	)
	if err != nil {
		return err
	}

	// Update metrics
	o.updateLatency, err = meter.Float64Histogram(
		"webmail.update.duration",
		metric.WithDescription("Duration of flag update operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	o.updateCount, err = meter.Int64Counter(
		"webmail.update.count",
		metric.WithDescription("Number of flag update operations"),
	)
	if err != nil {
		return err
	}

	o.updateErrors, err = meter.Int64Counter(
		"webmail.update.errors",
		metric.WithDescription("Number of flag update errors"),
	)
	if err != nil {
		return err
	}

	// Delete metrics
	o.deleteLatency, err = meter.Float64Histogram(
		"webmail.delete.duration",
		metric.WithDescription("Duration of delete operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	o.deleteCount, err = meter.Int64Counter(
		"webmail.delete.count",
		metric.WithDescription("Number of delete operations"),
	)
	if err != nil {
		return err
	}

	o.deleteErrors, err = meter.Int64Counter(
		"webmail.delete.errors",
		metric.WithDescription("Number of delete errors"),
	)
	if err != nil {
		return err
	}

	return nil
}

// startSpan starts a new span if tracing is enabled.
// Caller should call the returned function with the operation error when done.
func (o *otelInstrumentation) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	if !o.tracingEnabled || o.tracer == nil {
		return ctx, func(error) {}
	}
	ctx, span := o.tracer.Start(ctx, name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

// recordCompose records compose operation metrics.
func (o *otelInstrumentation) recordCompose(ctx context.Context, duration time.Duration, participantCount int, err error) {
	if !o.metricsEnabled {
		return
	}

	attrs := metric.WithAttributes(
		attribute.Int("participant_count", participantCount),
	)

	o.composeLatency.Record(ctx, duration.Seconds(), attrs)
	o.composeCount.Add(ctx, 1, attrs)
	if err != nil {
		o.composeErrors.Add(ctx, 1, attrs)
	}
}

// recordGet records get operation metrics.
func (o *otelInstrumentation) recordGet(ctx context.Context, duration time.Duration, err error) {
	if !o.metricsEnabled {
		return
	}

	o.getLatency.Record(ctx, duration.Seconds())
	o.getCount.Add(ctx, 1)
	if err != nil {
		o.getErrors.Add(ctx, 1)
	}
}

// recordList records list operation metrics.
func (o *otelInstrumentation) recordList(ctx context.Context, duration time.Duration, mailbox string, resultCount int, err error) {
	if !o.metricsEnabled {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("mailbox", mailbox),
		attribute.Int("result_count", resultCount),
	)

	o.listLatency.Record(ctx, duration.Seconds(), attrs)
	o.listCount.Add(ctx, 1, attrs)
	if err != nil {
		o.listErrors.Add(ctx, 1, attrs)
	}
}

// recordUpdate records flag update operation metrics.
func (o *otelInstrumentation) recordUpdate(ctx context.Context, duration time.Duration, err error) {
	if !o.metricsEnabled {
		return
	}

	o.updateLatency.Record(ctx, duration.Seconds())
	o.updateCount.Add(ctx, 1)
	if err != nil {
		o.updateErrors.Add(ctx, 1)
	}
}

// recordDelete records delete operation metrics.
func (o *otelInstrumentation) recordDelete(ctx context.Context, duration time.Duration, err error) {
	if !o.metricsEnabled {
		return
	}

	o.deleteLatency.Record(ctx, duration.Seconds())
	o.deleteCount.Add(ctx, 1)
	if err != nil {
		o.deleteErrors.Add(ctx, 1)
	}
}
