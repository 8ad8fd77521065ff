package httpmetrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/louisbranch/battlearena/internal/platform/telemetry/metrics"
)

func newTestMiddleware(t *testing.T, opts ...Option) (*metrics.Registry, *Middleware) {
	t.Helper()
	reg := metrics.NewRegistry()
	mw, err := New(reg, opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return reg, mw
}

func TestWrap_RecordsAllFourPhases(t *testing.T) {
	_, mw := newTestMiddleware(t)

	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/players/register", nil))

	labels := metrics.Labels{"method": "POST", "route": "/api/players/register"}
	if got := mw.requests.Value(metrics.Labels{"method": "POST", "route": "/api/players/register", "status": "2xx"}); got != 1 {
		t.Fatalf("requests_total = %v, want 1", got)
	}
	if got := mw.inProgress.Value(labels); got != 0 {
		t.Fatalf("in_progress = %v, want 0 after completion", got)
	}
	snap := mw.duration.Snapshot()
	if len(snap.Series) != 1 || snap.Series[0].Count != 1 {
		t.Fatalf("duration histogram should hold one sample, got %+v", snap.Series)
	}
}

func TestWrap_NormalizesRouteLabels(t *testing.T) {
	_, mw := newTestMiddleware(t)

	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	for _, path := range []string{"/api/players/1", "/api/players/2", "/api/players/300"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	}

	snap := mw.requests.Snapshot()
	if len(snap.Series) != 1 {
		t.Fatalf("raw ids must collapse into one series, got %d", len(snap.Series))
	}
	if got := mw.requests.Value(metrics.Labels{"method": "GET", "route": "/api/players/:id", "status": "2xx"}); got != 3 {
		t.Fatalf("normalized route total = %v, want 3", got)
	}
}

func TestWrap_RecordsPanicsAsServerErrors(t *testing.T) {
	_, mw := newTestMiddleware(t)

	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("panic should propagate after recording")
			}
		}()
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/leaderboard", nil))
	}()

	if got := mw.requests.Value(metrics.Labels{"method": "GET", "route": "/api/leaderboard", "status": "5xx"}); got != 1 {
		t.Fatalf("5xx total = %v, want 1", got)
	}
	if got := mw.inProgress.Value(metrics.Labels{"method": "GET", "route": "/api/leaderboard"}); got != 0 {
		t.Fatalf("in_progress = %v, want 0 after panic", got)
	}
}

func TestWrap_SkipsConfiguredPaths(t *testing.T) {
	_, mw := newTestMiddleware(t, WithSkipPaths("/metrics"))

	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/metrics", nil))

	if got := len(mw.requests.Snapshot().Series); got != 0 {
		t.Fatalf("skipped path must not be instrumented, got %d series", got)
	}
}

func TestWrap_ConcurrentRequestsAllAccounted(t *testing.T) {
	const total = 1000
	const failEvery = 20 // 5% downstream failures

	_, mw := newTestMiddleware(t)

	var mu sync.Mutex
	served := 0
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		served++
		fail := served%failEvery == 0
		mu.Unlock()
		if fail {
			http.Error(w, "downstream failure", http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	var wg sync.WaitGroup
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/stats/players", nil))
		}()
	}
	wg.Wait()

	var sum float64
	for _, class := range []string{"2xx", "3xx", "4xx", "5xx"} {
		sum += mw.requests.Value(metrics.Labels{"method": "GET", "route": "/api/stats/players", "status": class})
	}
	if sum != total {
		t.Fatalf("requests_total across classes = %v, want %d", sum, total)
	}
	if got := mw.requests.Value(metrics.Labels{"method": "GET", "route": "/api/stats/players", "status": "5xx"}); got != total/failEvery {
		t.Fatalf("5xx = %v, want %d", got, total/failEvery)
	}
	if got := mw.inProgress.Value(metrics.Labels{"method": "GET", "route": "/api/stats/players"}); got != 0 {
		t.Fatalf("in_progress = %v, want 0 once all requests complete", got)
	}
}

func TestStatusClass(t *testing.T) {
	cases := map[int]string{
		200: "2xx", 201: "2xx", 301: "3xx", 404: "4xx", 500: "5xx", 0: "5xx",
	}
	for code, want := range cases {
		if got := statusClass(code); got != want {
			t.Fatalf("statusClass(%d) = %q, want %q", code, got, want)
		}
	}
}

func TestNew_SecondMiddlewareSharesMetrics(t *testing.T) {
	reg := metrics.NewRegistry()
	if _, err := New(reg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Same registry, same schema: registration is idempotent.
	if _, err := New(reg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(reg.ExportAll(), "http_requests_total") {
		t.Fatal("exposition missing http metrics type line")
	}
}
