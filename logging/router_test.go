package logging_test

import (
	"context"
	"testing"
	"time"

	"emberfall/server/logging"
	"emberfall/server/logging/engagement"
	"emberfall/server/logging/sinks"
)

func fixedClock(t time.Time) logging.ClockFunc {
	return func() time.Time { return t }
}

func newMemoryRouter(t *testing.T, cfg logging.Config) (*logging.Router, *sinks.MemorySink) {
	t.Helper()
	cfg.EnabledSinks = []string{"memory"}
	memory := sinks.NewMemorySink()
	router, err := logging.NewRouter(fixedClock(time.Unix(1000, 0)), cfg, []logging.NamedSink{
		{Name: "memory", Sink: memory},
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return router, memory
}

func TestRouterDeliversToSink(t *testing.T) {
	router, memory := newMemoryRouter(t, logging.DefaultConfig())

	ctx := context.Background()
	engagement.TokenGranted(ctx, router, 7, logging.EntityRef{ID: "agent-1", Kind: logging.EntityKindAgent}, engagement.TokenPayload{
		Kind:  "attack",
		Score: 0.42,
	})
	if err := router.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events := memory.EventsOfType(engagement.EventTokenGranted)
	if len(events) != 1 {
		t.Fatalf("delivered token grants: got %d want 1", len(events))
	}
	event := events[0]
	if event.Tick != 7 || event.Actor.ID != "agent-1" {
		t.Fatalf("event metadata lost: %+v", event)
	}
	if event.Time.IsZero() {
		t.Fatalf("router must stamp the clock time")
	}
	if stats := router.Stats(); stats.EventsTotal != 1 || stats.DroppedTotal != 0 {
		t.Fatalf("stats: %+v", stats)
	}
}

func TestRouterFiltersBelowMinimumSeverity(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.MinimumSeverity = logging.SeverityWarn
	router, memory := newMemoryRouter(t, cfg)

	ctx := context.Background()
	router.Publish(ctx, logging.Event{Type: "perception.target_lost", Severity: logging.SeverityDebug})
	router.Publish(ctx, logging.Event{Type: "system.fault", Severity: logging.SeverityError})
	if err := router.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events := memory.Events()
	if len(events) != 1 {
		t.Fatalf("delivered events: got %d want 1", len(events))
	}
	if events[0].Type != "system.fault" {
		t.Fatalf("wrong event kept: %q", events[0].Type)
	}
}

func TestRouterIgnoresUntypedEvents(t *testing.T) {
	router, memory := newMemoryRouter(t, logging.DefaultConfig())

	router.Publish(context.Background(), logging.Event{Tick: 3})
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if events := memory.Events(); len(events) != 0 {
		t.Fatalf("untyped event delivered: %+v", events)
	}
}

func TestWithFieldsAnnotatesEvents(t *testing.T) {
	var captured []logging.Event
	base := logging.PublisherFunc(func(_ context.Context, event logging.Event) {
		captured = append(captured, event)
	})
	scoped := logging.WithFields(base, map[string]any{"arena": "test-1"})

	scoped.Publish(context.Background(), logging.Event{Type: "planning.plan_built"})
	scoped.Publish(context.Background(), logging.Event{
		Type:  "planning.plan_built",
		Extra: map[string]any{"arena": "explicit"},
	})

	if len(captured) != 2 {
		t.Fatalf("captured: got %d want 2", len(captured))
	}
	if got := captured[0].Extra["arena"]; got != "test-1" {
		t.Fatalf("scoped field: got %v want test-1", got)
	}
	if got := captured[1].Extra["arena"]; got != "explicit" {
		t.Fatalf("explicit field must win: got %v", got)
	}
}

func TestRouterSkipsDisabledSinks(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.EnabledSinks = []string{"console"}
	disabled := sinks.NewMemorySink()
	router, err := logging.NewRouter(fixedClock(time.Unix(1000, 0)), cfg, []logging.NamedSink{
		{Name: "memory", Sink: disabled},
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	router.Publish(context.Background(), logging.Event{Type: "system.boot", Severity: logging.SeverityInfo})
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if events := disabled.Events(); len(events) != 0 {
		t.Fatalf("disabled sink received events: %+v", events)
	}
}

func TestMemorySinkEvictsOldestAtCapacity(t *testing.T) {
	memory := sinks.NewMemorySinkWithCapacity(2)
	for _, name := range []logging.EventType{"a", "b", "c"} {
		if err := memory.Write(logging.Event{Type: name}); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	events := memory.Events()
	if len(events) != 2 {
		t.Fatalf("retained: got %d want 2", len(events))
	}
	if events[0].Type != "b" || events[1].Type != "c" {
		t.Fatalf("eviction order wrong: %+v", events)
	}
	if memory.Dropped() != 1 {
		t.Fatalf("dropped: got %d want 1", memory.Dropped())
	}
}

func TestPublishAfterCloseIsSafe(t *testing.T) {
	router, memory := newMemoryRouter(t, logging.DefaultConfig())
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	router.Publish(context.Background(), logging.Event{Type: "system.late", Severity: logging.SeverityInfo})
	if events := memory.Events(); len(events) != 0 {
		t.Fatalf("post-close event delivered: %+v", events)
	}
}
