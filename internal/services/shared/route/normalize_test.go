package route

import (
	"net/http/httptest"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/", "/"},
		{"", "/"},
		{"/api/players/42", "/api/players/:id"},
		{"/api/players/42/", "/api/players/:id"},
		{"/api/players/register", "/api/players/register"},
		{"/api/matches/1234/participants/9", "/api/matches/:id/participants/:id"},
		{"/api/stats/players", "/api/stats/players"},
		{"/health", "/health"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.path); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestRedirectTrailingSlash(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/leaderboard/", nil)

	if !RedirectTrailingSlash(w, r) {
		t.Fatal("expected redirect for trailing slash")
	}
	if w.Code != 301 {
		t.Fatalf("status = %d, want 301", w.Code)
	}
	if got := w.Header().Get("Location"); got != "/api/leaderboard" {
		t.Fatalf("location = %q", got)
	}
}

func TestRedirectTrailingSlash_NoopWhenCanonical(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/leaderboard", nil)

	if RedirectTrailingSlash(w, r) {
		t.Fatal("canonical path should not redirect")
	}
}
