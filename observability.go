package sched

import (
	"fmt"
	"runtime/debug"
	"time"
)

// PanicHandler is called whenever a task's entry function panics. The
// scheduler recovers the panic before it can unwind a fiber's goroutine
// and hands it here instead; HandlePanic must not itself panic.
type PanicHandler interface {
	HandlePanic(panicInfo any)
}

// DefaultPanicHandler prints the panic value and a stack trace to stdout.
type DefaultPanicHandler struct{}

// NewDefaultPanicHandler returns a DefaultPanicHandler.
func NewDefaultPanicHandler() *DefaultPanicHandler {
	return &DefaultPanicHandler{}
}

func (h *DefaultPanicHandler) HandlePanic(panicInfo any) {
	fmt.Printf("sched: task panic: %v\n%s", panicInfo, debug.Stack())
}

// Metrics is the observability seam the scheduler calls into. All methods
// must be non-blocking and safe to call from any task or attached thread.
// A nil Metrics is never passed to user code; NilMetrics is the default.
type Metrics interface {
	// SetRunQueueDepth records the current number of runnable tasks.
	SetRunQueueDepth(depth int)

	// SetActiveThreads records the current number of attached OS threads.
	SetActiveThreads(count int)

	// IncTaskPanics records that a task panicked.
	IncTaskPanics()

	// RecordTaskDuration records how long a task ran before completing,
	// yielding, or suspending.
	RecordTaskDuration(d time.Duration)

	// RecordSemaphoreWait records how long a task blocked inside
	// Semaphore.Acquire before it succeeded.
	RecordSemaphoreWait(d time.Duration)

	// SetLiveTimers records the current number of pending timers.
	SetLiveTimers(count int)
}

// NilMetrics discards everything. It is the default Metrics implementation.
type NilMetrics struct{}

func (NilMetrics) SetRunQueueDepth(depth int)          {}
func (NilMetrics) SetActiveThreads(count int)          {}
func (NilMetrics) IncTaskPanics()                      {}
func (NilMetrics) RecordTaskDuration(d time.Duration)  {}
func (NilMetrics) RecordSemaphoreWait(d time.Duration) {}
func (NilMetrics) SetLiveTimers(count int)             {}
