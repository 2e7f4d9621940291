package logging

import (
	"context"
	"sync"
	"testing"
	"time"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *captureSink) Write(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) Close(context.Context) error { return nil }

func (s *captureSink) all() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestRouterFiltersBelowMinimumSeverity(t *testing.T) {
	sink := &captureSink{}
	cfg := DefaultConfig()
	cfg.MinimumSeverity = SeverityInfo

	router, err := NewRouter(nil, cfg, []NamedSink{{Name: "capture", Sink: sink}})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	router.Publish(context.Background(), Event{Type: "threat.applied", Severity: SeverityDebug})
	router.Publish(context.Background(), Event{Type: "threat.fight_completed", Severity: SeverityInfo})
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got := sink.all()
	if len(got) != 1 || got[0].Type != "threat.fight_completed" {
		t.Fatalf("expected only the info event, got %+v", got)
	}
	stats := router.Stats()
	if stats.EventsTotal != 1 || stats.DroppedTotal != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestRouterStampsTimeAndFields(t *testing.T) {
	sink := &captureSink{}
	now := time.Unix(1700000000, 0)
	cfg := DefaultConfig()
	cfg.MinimumSeverity = SeverityDebug
	cfg.Fields = map[string]any{"gameVersion": "classic"}

	router, err := NewRouter(ClockFunc(func() time.Time { return now }), cfg, []NamedSink{{Name: "capture", Sink: sink}})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	router.Publish(context.Background(), Event{Type: "threat.applied", Severity: SeverityDebug})
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got := sink.all()
	if len(got) != 1 {
		t.Fatalf("expected one event, got %d", len(got))
	}
	if !got[0].Time.Equal(now) {
		t.Fatalf("expected clock timestamp, got %v", got[0].Time)
	}
	if got[0].Extra["gameVersion"] != "classic" {
		t.Fatalf("expected router fields in extra, got %+v", got[0].Extra)
	}
}

func TestWithFieldsDoesNotOverwriteExistingExtra(t *testing.T) {
	var captured []Event
	pub := WithFields(PublisherFunc(func(_ context.Context, ev Event) {
		captured = append(captured, ev)
	}), map[string]any{"fightId": "a", "encounter": int64(1084)})

	pub.Publish(context.Background(), Event{
		Type:  "threat.applied",
		Extra: map[string]any{"fightId": "b"},
	})
	pub.Publish(context.Background(), Event{Type: "threat.wiped"})

	if len(captured) != 2 {
		t.Fatalf("expected two events, got %d", len(captured))
	}
	if captured[0].Extra["fightId"] != "b" {
		t.Fatalf("existing extra must win: %+v", captured[0].Extra)
	}
	if captured[0].Extra["encounter"] != int64(1084) {
		t.Fatalf("missing added field: %+v", captured[0].Extra)
	}
	if captured[1].Extra["fightId"] != "a" {
		t.Fatalf("absent extra must be filled: %+v", captured[1].Extra)
	}
}

func TestWithFieldsNilPublisherIsNop(t *testing.T) {
	pub := WithFields(nil, map[string]any{"fightId": "a"})
	// Must not panic.
	pub.Publish(context.Background(), Event{Type: "threat.applied"})
}
