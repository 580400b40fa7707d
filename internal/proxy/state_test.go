package proxy

import "testing"

func TestRequestState_MarkSentIsLatched(t *testing.T) {
	s := newRequestState("test-id")

	if s.responseSent() {
		t.Fatal("responseSent() should be false before markSent")
	}
	if !s.markSent() {
		t.Fatal("first markSent() should return true")
	}
	if s.markSent() {
		t.Fatal("second markSent() should return false")
	}
	if !s.responseSent() {
		t.Fatal("responseSent() should be true after markSent")
	}
}

func TestRequestState_CleanupRunsOnce(t *testing.T) {
	s := newRequestState("test-id")

	calls := 0
	for i := 0; i < 3; i++ {
		s.cleanup(func() { calls++ })
	}

	if calls != 1 {
		t.Fatalf("cleanup ran %d times, want 1", calls)
	}
}
