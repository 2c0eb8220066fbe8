package observability

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	promreg "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/ncecere/billing_api/internal/config"
)

type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *metric.MeterProvider
	promExporter   *prometheus.Exporter
	promHandler    http.Handler
	shutdownFuncs  []func(context.Context) error

	httpRequestCounter *promreg.CounterVec
	httpRequestLatency *promreg.HistogramVec
	reportLatencyHist  *promreg.HistogramVec
	reportEntries      *promreg.CounterVec
	loginAttempts      *promreg.CounterVec
	directoryRefreshes *promreg.CounterVec
	directorySize      promreg.Gauge
}

const metricsNamespace = "billing_api"

func serviceName(cfg config.ObservabilityConfig) string {
	if name := strings.TrimSpace(cfg.ServiceName); name != "" {
		return name
	}
	return "billing-api"
}

func Setup(ctx context.Context, cfg config.ObservabilityConfig) (*Provider, error) {
	if !cfg.EnableOTLP && !cfg.EnableMetrics {
		return nil, nil
	}

	provider := &Provider{}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName(cfg)),
		),
	)
	if err != nil {
		return nil, err
	}

	if cfg.EnableOTLP {
		rawEndpoint := strings.TrimSpace(cfg.OTLPEndpoint)
		endpoint := rawEndpoint
		if endpoint == "" {
			endpoint = "localhost:4317"
		}
		opts := []otlptracegrpc.Option{}
		switch {
		case strings.HasPrefix(endpoint, "http://"):
			endpoint = strings.TrimPrefix(endpoint, "http://")
			opts = append(opts, otlptracegrpc.WithInsecure())
		case strings.HasPrefix(endpoint, "https://"):
			endpoint = strings.TrimPrefix(endpoint, "https://")
		default:
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		opts = append(opts, otlptracegrpc.WithEndpoint(endpoint))

		client := otlptracegrpc.NewClient(opts...)
		exporter, err := otlptrace.New(ctx, client)
		if err != nil {
			return nil, err
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(tp)
		provider.tracerProvider = tp
		provider.shutdownFuncs = append(provider.shutdownFuncs, tp.Shutdown)
	}

	if cfg.EnableMetrics {
		registry := promreg.NewRegistry()
		promExporter, err := prometheus.New(prometheus.WithRegisterer(registry))
		if err != nil {
			return nil, err
		}
		mp := metric.NewMeterProvider(
			metric.WithReader(promExporter),
			metric.WithResource(res),
		)
		otel.SetMeterProvider(mp)
		provider.meterProvider = mp
		provider.promExporter = promExporter
		provider.promHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
		provider.shutdownFuncs = append(provider.shutdownFuncs, mp.Shutdown)

		httpRequests := promreg.NewCounterVec(
			promreg.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed.",
			},
			[]string{"method", "route", "status"},
		)
		latencyBuckets := []float64{0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10}
		httpLatency := promreg.NewHistogramVec(
			promreg.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds.",
				Buckets:   latencyBuckets,
			},
			[]string{"method", "route", "status"},
		)
		reportLatency := promreg.NewHistogramVec(
			promreg.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "report_generation_duration_seconds",
				Help:      "Time spent assembling usage reports.",
				Buckets:   latencyBuckets,
			},
			[]string{"bucket", "scope", "status"},
		)
		reportEntries := promreg.NewCounterVec(
			promreg.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "report_entries_total",
				Help:      "Report entries returned, by record kind.",
			},
			[]string{"bucket", "kind"},
		)
		loginAttempts := promreg.NewCounterVec(
			promreg.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "login_attempts_total",
				Help:      "Login attempts by outcome.",
			},
			[]string{"outcome"},
		)
		directoryRefreshes := promreg.NewCounterVec(
			promreg.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "user_directory_refresh_total",
				Help:      "User directory refreshes by trigger and status.",
			},
			[]string{"trigger", "status"},
		)
		directorySize := promreg.NewGauge(promreg.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "user_directory_entries",
			Help:      "Users currently held in the user directory.",
		})
		for _, collector := range []promreg.Collector{httpRequests, httpLatency, reportLatency, reportEntries, loginAttempts, directoryRefreshes, directorySize} {
			if err := registry.Register(collector); err != nil {
				return nil, err
			}
		}
		provider.httpRequestCounter = httpRequests
		provider.httpRequestLatency = httpLatency
		provider.reportLatencyHist = reportLatency
		provider.reportEntries = reportEntries
		provider.loginAttempts = loginAttempts
		provider.directoryRefreshes = directoryRefreshes
		provider.directorySize = directorySize
	}

	return provider, nil
}

func (p *Provider) PrometheusHandler() http.Handler {
	if p == nil || p.promHandler == nil {
		return nil
	}
	return p.promHandler
}

func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	for _, fn := range p.shutdownFuncs {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provider) TracerProvider() *sdktrace.TracerProvider {
	if p == nil {
		return nil
	}
	return p.tracerProvider
}

func (p *Provider) RecordHTTPRequest(_ context.Context, method, route string, status int, duration time.Duration) {
	if p == nil {
		return
	}

	statusLabel := strconv.Itoa(status)

	if p.httpRequestCounter != nil {
		p.httpRequestCounter.WithLabelValues(method, route, statusLabel).Inc()
	}

	if p.httpRequestLatency != nil {
		p.httpRequestLatency.WithLabelValues(method, route, statusLabel).Observe(duration.Seconds())
	}
}

// RecordReport observes one report generation. usage and storage are the
// entry counts returned to the caller.
func (p *Provider) RecordReport(bucket, scope string, usage, storage int, duration time.Duration, err error) {
	if p == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	if p.reportLatencyHist != nil {
		p.reportLatencyHist.WithLabelValues(bucket, scope, status).Observe(duration.Seconds())
	}
	if p.reportEntries != nil && err == nil {
		p.reportEntries.WithLabelValues(bucket, "usage").Add(float64(usage))
		p.reportEntries.WithLabelValues(bucket, "storage").Add(float64(storage))
	}
}

func (p *Provider) RecordLogin(outcome string) {
	if p == nil || p.loginAttempts == nil {
		return
	}
	p.loginAttempts.WithLabelValues(outcome).Inc()
}

func (p *Provider) RecordDirectoryRefresh(trigger string, users int, err error) {
	if p == nil || p.directoryRefreshes == nil {
		return
	}
	if err != nil {
		p.directoryRefreshes.WithLabelValues(trigger, "error").Inc()
		return
	}
	p.directoryRefreshes.WithLabelValues(trigger, "ok").Inc()
	if p.directorySize != nil {
		p.directorySize.Set(float64(users))
	}
}
