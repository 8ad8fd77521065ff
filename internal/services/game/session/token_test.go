package session

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/louisbranch/battlearena/internal/platform/errors"
)

func TestIssueAndVerify(t *testing.T) {
	mgr, err := NewManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token, err := mgr.Issue(42, "ada")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	playerID, err := mgr.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if playerID != 42 {
		t.Fatalf("player id = %d, want 42", playerID)
	}
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	issuerMgr, err := NewManager("secret-a", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	verifierMgr, err := NewManager("secret-b", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token, err := issuerMgr.Issue(7, "eve")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifierMgr.Verify(token); !errors.Is(err, apperrors.New(apperrors.CodeUnauthenticated, "")) {
		t.Fatalf("got %v, want CodeUnauthenticated", err)
	}
}

func TestVerify_RejectsExpiredToken(t *testing.T) {
	mgr, err := NewManager("test-secret", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	past := time.Now().Add(-time.Hour)
	mgr.now = func() time.Time { return past }
	token, err := mgr.Issue(7, "old")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	mgr.now = time.Now
	if _, err := mgr.Verify(token); !errors.Is(err, apperrors.New(apperrors.CodeUnauthenticated, "")) {
		t.Fatalf("got %v, want CodeUnauthenticated", err)
	}
}

func TestVerify_RejectsEmptyToken(t *testing.T) {
	mgr, err := NewManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := mgr.Verify(""); !errors.Is(err, apperrors.New(apperrors.CodeUnauthenticated, "")) {
		t.Fatalf("got %v, want CodeUnauthenticated", err)
	}
}

func TestNewManager_RequiresSecret(t *testing.T) {
	if _, err := NewManager("  ", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestFromAuthorization(t *testing.T) {
	if got := FromAuthorization("Bearer abc.def"); got != "abc.def" {
		t.Fatalf("got %q", got)
	}
	if got := FromAuthorization("Basic abc"); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
	if got := FromAuthorization(""); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}
