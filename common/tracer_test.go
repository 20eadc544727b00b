package common

import (
	"testing"
)

func TestTracerLevelAndComponentGating(t *testing.T) {
	tracer := NewTracer()
	tracer.SetLevel(TraceLevelInfo)
	tracer.EnableComponent(TraceComponentCondition)

	if !tracer.IsEnabled(TraceLevelInfo, TraceComponentCondition) {
		t.Error("expected INFO/CONDITION to be enabled")
	}
	if tracer.IsEnabled(TraceLevelDebug, TraceComponentCondition) {
		t.Error("DEBUG must be gated when the level is INFO")
	}
	if tracer.IsEnabled(TraceLevelInfo, TraceComponentFilter) {
		t.Error("FILTER was never enabled")
	}

	tracer.DisableComponent(TraceComponentCondition)
	if tracer.IsEnabled(TraceLevelInfo, TraceComponentCondition) {
		t.Error("expected CONDITION to be disabled again")
	}
}

func TestTracerEntries(t *testing.T) {
	tracer := NewTracer()
	tracer.SetLevel(TraceLevelDebug)
	tracer.EnableComponent(TraceComponentFilter)

	tracer.Debug(TraceComponentFilter, "reduced", TraceContext("rows", 10))
	tracer.Verbose(TraceComponentFilter, "dropped, level too low")
	tracer.Debug(TraceComponentSchema, "dropped, component disabled")

	entries := tracer.GetEntries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "reduced" || entries[0].Context["rows"] != 10 {
		t.Errorf("unexpected entry: %+v", entries[0])
	}

	tracer.Clear()
	if len(tracer.GetEntries()) != 0 {
		t.Error("expected no entries after Clear")
	}
}

func TestTraceContextPairs(t *testing.T) {
	ctx := TraceContext("a", 1, "b", "two", "dangling")
	if len(ctx) != 2 || ctx["a"] != 1 || ctx["b"] != "two" {
		t.Errorf("unexpected context: %+v", ctx)
	}
}
