package infrastructure

import (
	"fmt"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	ServiceName    = "retailcast"
	ServiceVersion = "v1.0.0"
	MeterName      = "retailcast"
)

// MetricsProviders holds the OpenTelemetry metrics providers
type MetricsProviders struct {
	MeterProvider  *sdkmetric.MeterProvider
	Meter          metric.Meter
	PrometheusHTTP http.Handler
}

// InitializeMetrics sets up the OpenTelemetry meter provider with a
// Prometheus exporter and returns the /metrics handler.
func InitializeMetrics() (*MetricsProviders, error) {
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	// Dedicated registry so repeated initialization (tests, restarts)
	// never trips duplicate-collector registration.
	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)

	return &MetricsProviders{
		MeterProvider:  provider,
		Meter:          provider.Meter(MeterName),
		PrometheusHTTP: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}, nil
}

// BusinessMetrics holds domain-level counters
type BusinessMetrics struct {
	RequestsTotal       metric.Int64Counter
	SalesRowsLoaded     metric.Int64Counter
	ForecastsGenerated  metric.Int64Counter
	BudgetDistributions metric.Int64Counter
}

// CreateBusinessMetrics registers the domain counters on the given meter
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	requests, err := meter.Int64Counter("http_requests_total",
		metric.WithDescription("Total HTTP requests served"))
	if err != nil {
		return nil, fmt.Errorf("failed to create requests counter: %w", err)
	}

	rows, err := meter.Int64Counter("sales_rows_loaded_total",
		metric.WithDescription("Total sales records loaded into processors"))
	if err != nil {
		return nil, fmt.Errorf("failed to create rows counter: %w", err)
	}

	forecasts, err := meter.Int64Counter("forecasts_generated_total",
		metric.WithDescription("Total 365-day forecasts generated"))
	if err != nil {
		return nil, fmt.Errorf("failed to create forecasts counter: %w", err)
	}

	budgets, err := meter.Int64Counter("budget_distributions_total",
		metric.WithDescription("Total budget distributions computed"))
	if err != nil {
		return nil, fmt.Errorf("failed to create budgets counter: %w", err)
	}

	return &BusinessMetrics{
		RequestsTotal:       requests,
		SalesRowsLoaded:     rows,
		ForecastsGenerated:  forecasts,
		BudgetDistributions: budgets,
	}, nil
}
