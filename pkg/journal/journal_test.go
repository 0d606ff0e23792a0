package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Disabled(t *testing.T) {
	if _, err := Open(context.Background(), ""); !errors.Is(err, ErrDisabled) {
		t.Errorf("got %v, want ErrDisabled", err)
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Insert(ctx, Event{SessionID: "a", At: time.Now(), Kind: KindSessionStart}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	s.Close()

	s, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	events, err := s.Recent(ctx, 10)
	if err != nil || len(events) != 1 {
		t.Fatalf("got %d events, err %v", len(events), err)
	}
}

func TestRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	err := s.Insert(ctx,
		Event{SessionID: "s1", At: base, Kind: KindSessionStart},
		Event{SessionID: "s1", At: base.Add(time.Second), Kind: KindAction, Detail: "click(left)"},
		Event{SessionID: "s1", At: base.Add(2 * time.Second), Kind: KindPause, Detail: "tray"},
	)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	events, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Kind != KindPause || events[1].Detail != "click(left)" {
		t.Errorf("unexpected order: %+v", events)
	}
	if !events[1].At.Equal(base.Add(time.Second)) {
		t.Errorf("got %v, want %v", events[1].At, base.Add(time.Second))
	}
}

func TestSummary(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	s.Insert(ctx,
		Event{SessionID: "old", At: base, Kind: KindSessionStart},
		Event{SessionID: "old", At: base.Add(time.Minute), Kind: KindSessionEnd},
		Event{SessionID: "new", At: base.Add(time.Hour), Kind: KindSessionStart},
		Event{SessionID: "new", At: base.Add(time.Hour + time.Second), Kind: KindAction},
		Event{SessionID: "new", At: base.Add(time.Hour + 2*time.Second), Kind: KindAction},
		Event{SessionID: "new", At: base.Add(time.Hour + 3*time.Second), Kind: KindFailure},
	)

	latest, err := s.Summary(ctx, "")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if latest.SessionID != "new" {
		t.Errorf("got session %q, want new", latest.SessionID)
	}
	if latest.Counts[KindAction] != 2 || latest.Counts[KindFailure] != 1 {
		t.Errorf("got counts %v", latest.Counts)
	}
	if latest.Duration() != 3*time.Second {
		t.Errorf("got duration %v, want 3s", latest.Duration())
	}

	old, err := s.Summary(ctx, "old")
	if err != nil || old.Duration() != time.Minute {
		t.Errorf("old: %+v, %v", old, err)
	}

	if _, err := s.Summary(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}

	sessions, err := s.Sessions(ctx, 10)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 2 || sessions[0].SessionID != "new" {
		t.Errorf("got %+v", sessions)
	}
}

func TestSummary_Empty(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Summary(context.Background(), ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestRecorder_FlushesOnStop(t *testing.T) {
	s := openTestStore(t)
	r := NewRecorder(s, "sess", nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	r.Record(KindSessionStart, "")
	r.Record(KindAction, "click(right)")
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	sum, err := s.Summary(context.Background(), "sess")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Counts[KindAction] != 1 || sum.Counts[KindSessionStart] != 1 {
		t.Errorf("got %v", sum.Counts)
	}
}
