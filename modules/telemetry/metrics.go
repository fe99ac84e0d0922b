// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPMetrics holds counters and histograms for HTTP endpoint instrumentation
type HTTPMetrics struct {
	requestCounter    metric.Int64Counter
	durationHisto     metric.Float64Histogram
	responseSizeHisto metric.Int64Histogram
}

// NewHTTPMetrics creates a new HTTPMetrics instance for a given service name
func NewHTTPMetrics(serviceName string) (*HTTPMetrics, error) {
	meter := otel.Meter(serviceName)

	requestCounter, err := meter.Int64Counter(
		"http_server_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	durationHisto, err := meter.Float64Histogram(
		"http_server_duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	responseSizeHisto, err := meter.Int64Histogram(
		"http_server_response_size",
		metric.WithDescription("HTTP response size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &HTTPMetrics{
		requestCounter:    requestCounter,
		durationHisto:     durationHisto,
		responseSizeHisto: responseSizeHisto,
	}, nil
}

// RecordRequest records a single HTTP request with its attributes
func (m *HTTPMetrics) RecordRequest(ctx context.Context, method, endpoint, statusCode string, durationMs float64, responseSize int64) {
	attrs := []attribute.KeyValue{
		attribute.String("http_method", method),
		attribute.String("http_endpoint", endpoint),
		attribute.String("http_status_code", statusCode),
	}

	m.requestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.durationHisto.Record(ctx, durationMs, metric.WithAttributes(attrs...))
	if responseSize > 0 {
		m.responseSizeHisto.Record(ctx, responseSize, metric.WithAttributes(attrs...))
	}
}

// ViewMetrics counts the outcomes of the view pipeline.
type ViewMetrics struct {
	cacheLookups metric.Int64Counter
	loads        metric.Int64Counter
	renderFails  metric.Int64Counter
	rateLimited  metric.Int64Counter
}

func NewViewMetrics(serviceName string) (*ViewMetrics, error) {
	meter := otel.Meter(serviceName)

	cacheLookups, err := meter.Int64Counter(
		"view_cache_lookups_total",
		metric.WithDescription("View cache lookups by result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	loads, err := meter.Int64Counter(
		"view_loads_total",
		metric.WithDescription("Index document reads by outcome"),
		metric.WithUnit("{load}"),
	)
	if err != nil {
		return nil, err
	}

	renderFails, err := meter.Int64Counter(
		"view_render_failures_total",
		metric.WithDescription("Template decode or render failures"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	rateLimited, err := meter.Int64Counter(
		"view_rate_limited_total",
		metric.WithDescription("Requests rejected by the view rate gate"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &ViewMetrics{
		cacheLookups: cacheLookups,
		loads:        loads,
		renderFails:  renderFails,
		rateLimited:  rateLimited,
	}, nil
}

// The methods below are safe on a nil receiver so callers can run without metrics.

func (m *ViewMetrics) CacheLookup(ctx context.Context, view string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("view", view),
		attribute.String("result", result),
	))
}

func (m *ViewMetrics) Load(ctx context.Context, view, outcome string) {
	if m == nil {
		return
	}
	m.loads.Add(ctx, 1, metric.WithAttributes(
		attribute.String("view", view),
		attribute.String("outcome", outcome),
	))
}

func (m *ViewMetrics) RenderFailure(ctx context.Context, view string) {
	if m == nil {
		return
	}
	m.renderFails.Add(ctx, 1, metric.WithAttributes(attribute.String("view", view)))
}

func (m *ViewMetrics) RateLimited(ctx context.Context, view string) {
	if m == nil {
		return
	}
	m.rateLimited.Add(ctx, 1, metric.WithAttributes(attribute.String("view", view)))
}
