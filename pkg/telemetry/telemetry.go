// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	serviceNamespace = "cabildo"

	batchTimeout   = time.Second
	metricInterval = time.Minute
)

// ShutdownFunc is a function that cleans up telemetry resources.
type ShutdownFunc func(context.Context) error

// Config controls telemetry exporter behavior.
type Config struct {
	Exporter     string
	OTLPEndpoint string
	OTLPInsecure bool

	// Environment tags every span and metric with the deployment
	// environment ("production", "staging"). Empty means untagged.
	Environment string

	// SampleRatio is the head-sampling ratio for root spans. Values
	// outside (0, 1) mean sample everything.
	SampleRatio float64
}

// Init initializes the OpenTelemetry SDK with stdout exporters.
func Init(serviceName, version string) (ShutdownFunc, error) {
	return InitWithConfig(serviceName, version, Config{Exporter: "stdout"})
}

// InitWithConfig initializes the OpenTelemetry SDK with the specified exporter.
func InitWithConfig(serviceName, version string, cfg Config) (ShutdownFunc, error) {
	attrs := []resource.Option{
		resource.WithAttributes(
			semconv.ServiceNamespace(serviceNamespace),
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	}
	if cfg.Environment != "" {
		attrs = append(attrs, resource.WithAttributes(
			semconv.DeploymentEnvironment(cfg.Environment)))
	}
	res, err := resource.New(context.Background(), attrs...)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	traceExporter, metricExporter, err := newExporters(cfg)
	if err != nil {
		return nil, err
	}
	tp, mp := assembleProviders(res, cfg, traceExporter, metricExporter)

	// Propagators
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	// Return global shutdown function
	return func(ctx context.Context) error {
		var errs []error
		if err := tp.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		if err := mp.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		if len(errs) > 0 {
			return fmt.Errorf("telemetry shutdown errors: %v", errs)
		}
		return nil
	}, nil
}

func newExporters(cfg Config) (trace.SpanExporter, metric.Exporter, error) {
	switch cfg.Exporter {
	case "", "stdout":
		traceExporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		metricExporter, err := stdoutmetric.New()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create metric exporter: %w", err)
		}
		return traceExporter, metricExporter, nil
	case "otlp":
		if cfg.OTLPEndpoint == "" {
			return nil, nil, fmt.Errorf("otlp endpoint is required")
		}
		return newOTLPExporters(cfg)
	default:
		return nil, nil, fmt.Errorf("unknown telemetry exporter: %s", cfg.Exporter)
	}
}

func newOTLPExporters(cfg Config) (trace.SpanExporter, metric.Exporter, error) {
	traceOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
	}
	metricOpts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
	}
	if cfg.OTLPInsecure {
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
	}

	traceExporter, err := otlptracegrpc.New(context.Background(), traceOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create otlp trace exporter: %w", err)
	}
	metricExporter, err := otlpmetricgrpc.New(context.Background(), metricOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create otlp metric exporter: %w", err)
	}
	return traceExporter, metricExporter, nil
}

func assembleProviders(res *resource.Resource, cfg Config, traceExporter trace.SpanExporter, metricExporter metric.Exporter) (*trace.TracerProvider, *metric.MeterProvider) {
	tp := trace.NewTracerProvider(
		trace.WithBatcher(traceExporter, trace.WithBatchTimeout(batchTimeout)),
		trace.WithResource(res),
		trace.WithSampler(samplerFor(cfg.SampleRatio)),
	)
	otel.SetTracerProvider(tp)

	mp := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(metricExporter, metric.WithInterval(metricInterval))),
		metric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return tp, mp
}

// samplerFor keeps sampling decisions consistent across a trace: children
// follow their parent, only root spans are ratio sampled.
func samplerFor(ratio float64) trace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return trace.AlwaysSample()
	}
	return trace.ParentBased(trace.TraceIDRatioBased(ratio))
}
