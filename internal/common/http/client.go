// internal/common/http/client.go
package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"talent-sync/internal/common/logger"
	"talent-sync/internal/common/metrics"
)

const tracerName = "talent-sync/internal/common/http"

type routeKey struct{}

// WithRoute tags the request context with a low-cardinality route template
// (e.g. "/students/{id}/talents") used for span names and metric labels.
func WithRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFrom(req *http.Request) string {
	if route, ok := req.Context().Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}

// Options configures NewClientWithOptions. Zero values disable the feature.
type Options struct {
	Timeout        time.Duration
	RateLimit      float64 // requests per second
	RateBurst      int
	Transport      http.RoundTripper
	TracerProvider trace.TracerProvider
	Propagator     propagation.TextMapPropagator
	Logger         logger.Logger
}

type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	logger     logger.Logger
}

func NewClient(timeout time.Duration) *Client {
	return NewClientWithOptions(Options{Timeout: timeout})
}

func NewClientWithOptions(opts Options) *Client {
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	prop := opts.Propagator
	if prop == nil {
		prop = propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
		},
		limiter:    limiter,
		tracer:     tp.Tracer(tracerName),
		propagator: prop,
		logger:     log,
	}
}

// Do sends req. It waits for the rate limiter, wraps the call in a client
// span and records request metrics. Non-2xx responses are not errors here.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	route := routeFrom(req)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	ctx, span := c.tracer.Start(ctx, req.Method+" "+route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("http.route", route),
			attribute.String("server.address", req.URL.Host),
		),
	)
	defer span.End()

	req = req.WithContext(ctx)
	c.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.APIRequestDuration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(req.Method, route, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Debug("HTTP request failed", map[string]interface{}{
			"method": req.Method,
			"route":  route,
			"error":  err.Error(),
		})
		return nil, err
	}

	metrics.APIRequestsTotal.WithLabelValues(req.Method, route, strconv.Itoa(resp.StatusCode)).Inc()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}

	c.logger.Debug("HTTP request completed", map[string]interface{}{
		"method":     req.Method,
		"route":      route,
		"statusCode": resp.StatusCode,
		"durationMs": time.Since(start).Milliseconds(),
	})

	return resp, nil
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.Do(req.WithContext(ctx))
}
