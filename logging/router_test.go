package logging_test

import (
	"context"
	"log"
	"testing"
	"time"

	"roomforge/logging"
	"roomforge/logging/sinks"
)

func newTestRouter(t *testing.T, cfg logging.Config, sink logging.Sink) *logging.Router {
	t.Helper()
	router, err := logging.NewRouter(cfg, logging.SystemClock{}, log.Default(), map[string]logging.Sink{
		"memory": sink,
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return router
}

func TestRouterForwardsEventsToEnabledSink(t *testing.T) {
	sink := sinks.NewMemory()
	cfg := logging.DefaultConfig()
	cfg.EnabledSinks = []string{"memory"}
	router := newTestRouter(t, cfg, sink)

	router.Publish(context.Background(), logging.Event{
		Type:     "test.event",
		Tick:     7,
		Severity: logging.SeverityInfo,
		Category: "test",
	})
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events := sink.Events()
	if len(events) != 1 || events[0].Type != "test.event" || events[0].Tick != 7 {
		t.Fatalf("unexpected events: %+v", events)
	}
	if events[0].Time.IsZero() {
		t.Fatal("expected router to stamp event time")
	}
}

func TestRouterFiltersBelowMinSeverity(t *testing.T) {
	sink := sinks.NewMemory()
	cfg := logging.DefaultConfig()
	cfg.EnabledSinks = []string{"memory"}
	cfg.MinSeverity = logging.SeverityWarn
	router := newTestRouter(t, cfg, sink)

	router.Publish(context.Background(), logging.Event{Type: "test.debug", Severity: logging.SeverityDebug})
	router.Publish(context.Background(), logging.Event{Type: "test.warn", Severity: logging.SeverityWarn})
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events := sink.Events()
	if len(events) != 1 || events[0].Type != "test.warn" {
		t.Fatalf("expected only the warn event, got %+v", events)
	}
}

func TestRouterAppliesStaticMetadata(t *testing.T) {
	sink := sinks.NewMemory()
	cfg := logging.DefaultConfig()
	cfg.EnabledSinks = []string{"memory"}
	cfg.Metadata = map[string]string{"node": "test-node"}
	router := newTestRouter(t, cfg, sink)

	router.Publish(context.Background(), logging.Event{Type: "test.meta", Severity: logging.SeverityInfo, Time: time.Unix(1, 0)})
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events := sink.Events()
	if len(events) != 1 || events[0].Extra["node"] != "test-node" {
		t.Fatalf("expected static metadata on event, got %+v", events)
	}
}
