package sched

import (
	"testing"
	"time"
)

// TestNilMetrics_NeverPanics verifies NilMetrics tolerates every Metrics
// call a real scheduler makes along its hot paths.
func TestNilMetrics_NeverPanics(t *testing.T) {
	var m NilMetrics
	m.SetRunQueueDepth(1)
	m.SetActiveThreads(1)
	m.IncTaskPanics()
	m.RecordTaskDuration(time.Second)
	m.RecordSemaphoreWait(time.Second)
	m.SetLiveTimers(1)
}

// TestDefaultPanicHandler_RecoversWithoutPropagating verifies
// HandlePanic itself never panics, which the scheduler relies on: a
// PanicHandler that panics would crash the fiber's goroutine it was
// meant to protect.
func TestDefaultPanicHandler_RecoversWithoutPropagating(t *testing.T) {
	h := NewDefaultPanicHandler()
	h.HandlePanic("boom")
	h.HandlePanic(nil)
}

// TestScheduler_RecoversTaskPanics verifies that a panicking task's
// panic is routed through the scheduler's PanicHandler instead of
// crashing the process, and that the scheduler keeps running afterward.
func TestScheduler_RecoversTaskPanics(t *testing.T) {
	// Arrange
	var handled []any
	cfg := &Config{PanicHandler: panicRecorder(func(v any) { handled = append(handled, v) })}
	sc := New(cfg)
	var ranAfter bool

	// Act
	RunAttached(sc, 1, func(sc *Scheduler) {
		Spawn(CurrentTask(), func(t *Task) {
			panic("boom")
		}, 0)
		Spawn(CurrentTask(), func(t *Task) {
			ranAfter = true
		}, 0)
	})

	// Assert
	if len(handled) != 1 || handled[0] != "boom" {
		t.Fatalf("handled = %v, want [boom]", handled)
	}
	if !ranAfter {
		t.Fatal("scheduler stopped running tasks after a panic")
	}
}

type panicRecorder func(v any)

func (f panicRecorder) HandlePanic(v any) { f(v) }
