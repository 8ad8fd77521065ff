// Package httpmetrics instruments HTTP request/response cycles.
//
// Every wrapped request follows the same four-phase contract: the
// in-progress gauge rises on entry, the start time is recorded, and a
// finalizer that runs on success, handled errors and panics records the
// request total by status class, observes the duration histogram and
// lowers the gauge again. Route labels are normalized first so path
// parameters never leak into label cardinality.
package httpmetrics

import (
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/battlearena/internal/platform/telemetry/metrics"
	"github.com/louisbranch/battlearena/internal/services/shared/route"
)

// Metric names recorded by the middleware.
const (
	RequestsTotalMetric   = "http_requests_total"
	RequestDurationMetric = "http_request_duration_seconds"
	InProgressMetric      = "http_requests_in_progress"
)

// DefaultBuckets are the request duration boundaries in seconds.
var DefaultBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Middleware wraps handlers with request instrumentation. Construct one
// per registry and reuse it for every route.
type Middleware struct {
	requests   *metrics.Counter
	duration   *metrics.Histogram
	inProgress *metrics.Gauge
	skip       map[string]struct{}
	tracer     trace.Tracer
	now        func() time.Time

	bucketOverride []float64
}

// Option configures a Middleware.
type Option func(*Middleware)

// WithSkipPaths excludes exact paths from instrumentation; the scrape
// endpoint skips itself to avoid self-counting.
func WithSkipPaths(paths ...string) Option {
	return func(mw *Middleware) {
		for _, p := range paths {
			mw.skip[p] = struct{}{}
		}
	}
}

// WithDurationBuckets overrides the duration histogram boundaries.
func WithDurationBuckets(buckets []float64) Option {
	return func(mw *Middleware) {
		mw.bucketOverride = buckets
	}
}

// New registers the HTTP metrics on reg and returns the middleware.
func New(reg *metrics.Registry, opts ...Option) (*Middleware, error) {
	mw := &Middleware{
		skip:   make(map[string]struct{}),
		tracer: otel.Tracer("battlearena/httpmetrics"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(mw)
	}

	buckets := mw.bucketOverride
	if len(buckets) == 0 {
		buckets = DefaultBuckets
	}

	var err error
	if mw.requests, err = reg.RegisterCounter(RequestsTotalMetric, "method", "route", "status"); err != nil {
		return nil, fmt.Errorf("register %s: %w", RequestsTotalMetric, err)
	}
	if mw.duration, err = reg.RegisterHistogram(RequestDurationMetric, buckets, "method", "route"); err != nil {
		return nil, fmt.Errorf("register %s: %w", RequestDurationMetric, err)
	}
	if mw.inProgress, err = reg.RegisterGauge(InProgressMetric, "method", "route"); err != nil {
		return nil, fmt.Errorf("register %s: %w", InProgressMetric, err)
	}
	return mw, nil
}

// Wrap instruments next. The finalizer is deferred so it runs on every
// exit path; panics are recorded as 5xx and re-raised.
func (mw *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, skip := mw.skip[r.URL.Path]; skip {
			next.ServeHTTP(w, r)
			return
		}

		method := r.Method
		normalized := route.Normalize(r.URL.Path)
		phases := metrics.Labels{"method": method, "route": normalized}

		ctx, span := mw.tracer.Start(r.Context(), method+" "+normalized)
		_ = mw.inProgress.Add(phases, 1)
		start := mw.now()

		sw := &statusWriter{ResponseWriter: w}
		defer func() {
			recovered := recover()
			status := sw.status()
			if recovered != nil {
				status = http.StatusInternalServerError
			}

			elapsed := mw.now().Sub(start).Seconds()
			_ = mw.requests.Inc(metrics.Labels{
				"method": method,
				"route":  normalized,
				"status": statusClass(status),
			})
			_ = mw.duration.Observe(phases, elapsed)
			_ = mw.inProgress.Add(phases, -1)

			span.SetAttributes(
				attribute.String("http.method", method),
				attribute.String("http.route", normalized),
				attribute.Int("http.status_code", status),
			)
			span.End()

			if recovered != nil {
				panic(recovered)
			}
		}()

		next.ServeHTTP(sw, r.WithContext(ctx))
	})
}

// statusClass buckets a status code into "2xx".."5xx" so the counter's
// label cardinality stays fixed.
func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "5xx"
	}
	return fmt.Sprintf("%dxx", code/100)
}

// statusWriter records the first status code written to the response.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.code == 0 {
		w.code = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.code == 0 {
		w.code = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) status() int {
	if w.code == 0 {
		return http.StatusOK
	}
	return w.code
}
