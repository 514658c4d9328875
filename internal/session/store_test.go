package session

import (
	"context"
	"testing"
	"time"

	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
)

func TestStoreCreateAndGet(t *testing.T) {
	s := NewStore(4, time.Minute, false)
	sess := s.Create()
	if sess.ID == "" {
		t.Fatal("expected generated session ID")
	}

	got, ok := s.Get(context.Background(), sess.ID)
	if !ok || got.ID != sess.ID {
		t.Fatalf("session not retrievable, ok=%v", ok)
	}
	if _, ok := s.Get(context.Background(), "sess-unknown"); ok {
		t.Error("unknown session resolved")
	}
}

func TestStoreHoldsWorkingState(t *testing.T) {
	s := NewStore(4, time.Minute, false)
	sess := s.Create()

	sess.Primary = report.NewRecordSet([]string{"A"}, []report.Record{{"A": "1"}})
	sess.Config = &report.PivotConfig{Rows: []string{"A"}}
	s.Save(context.Background(), sess)

	got, _ := s.Get(context.Background(), sess.ID)
	if got.Primary.Len() != 1 {
		t.Error("uploaded records lost")
	}
	if len(got.Config.Rows) != 1 {
		t.Error("pivot config lost")
	}
}

func TestStoreEvictsBeyondCapacity(t *testing.T) {
	s := NewStore(2, time.Minute, false)
	first := s.Create()
	s.Create()
	s.Create()

	if s.Len() > 2 {
		t.Fatalf("expected LRU cap of 2, got %d", s.Len())
	}
	if _, ok := s.Get(context.Background(), first.ID); ok {
		t.Error("oldest session should be evicted without a mirror")
	}
}

func TestSessionIDsUnique(t *testing.T) {
	s := NewStore(16, time.Minute, false)
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		id := s.Create().ID
		if seen[id] {
			t.Fatalf("duplicate session ID %s", id)
		}
		seen[id] = true
	}
}
