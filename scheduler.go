// Package sched implements a cooperative, fiber-based task scheduler:
// tasks are runnable closures that run to completion or voluntarily
// suspend, switched onto and off of OS threads that opt in by calling
// AttachToThread. It is the Go realization of a small, well-known C++
// fiber scheduler design — stackful tasks, a FIFO run queue, and a
// suspend-with-unlock primitive that the Semaphore, WaitGroup, and timer
// service in this package build on.
package sched

import (
	"sync"

	"github.com/relaysched/fibersched/fiberrt"
)

// Scheduler owns the run queue and the set of OS threads currently
// attached to it. A Scheduler has no goroutines of its own at rest: work
// only happens on threads that call AttachToThread and then RunLoop.
type Scheduler struct {
	cfg     Config
	runtime fiberrt.FiberRuntime
	log     Logger
	panics  PanicHandler
	metrics Metrics

	mu           sync.Mutex
	cond         *sync.Cond
	runHead      *Task
	runTail      *Task
	runLen       int
	activeThread int
	shuttingDown bool
}

// New creates a Scheduler ready for threads to attach to. A nil Config
// uses DefaultConfig(); a Config's zero-value fields are likewise replaced
// with their defaults, matching the teacher's DefaultTaskSchedulerConfig
// pattern.
func New(cfg *Config) *Scheduler {
	c := DefaultConfig()
	if cfg != nil {
		c = cfg.withDefaults()
	}
	sc := &Scheduler{
		cfg:     c,
		runtime: c.Runtime,
		log:     c.Logger,
		panics:  c.PanicHandler,
		metrics: c.Metrics,
	}
	sc.cond = sync.NewCond(&sc.mu)
	return sc
}

// SchedulerThread is the per-attached-OS-thread state: the dedicated
// "loop fiber" that the run queue switches into between tasks, and the
// queue of tasks that completed while running on this thread and are
// waiting to have their fiber released.
type SchedulerThread struct {
	scheduler *Scheduler
	selfFiber *fiberrt.Fiber // the adopted thread's own fiber
	loopFiber *fiberrt.Fiber // alias of selfFiber, set by AttachToThread

	completedHead *Task
	completedTail *Task
}

func (sc *Scheduler) pushRunnable(t *Task) {
	sc.mu.Lock()
	sc.pushRunnableLocked(t)
	sc.mu.Unlock()
	sc.cond.Signal()
}

func (sc *Scheduler) pushRunnableLocked(t *Task) {
	t.next = nil
	if sc.runTail == nil {
		sc.runHead = t
	} else {
		sc.runTail.next = t
	}
	sc.runTail = t
	sc.runLen++
	if sc.metrics != nil {
		sc.metrics.SetRunQueueDepth(sc.runLen)
	}
}

func (sc *Scheduler) popRunnableLocked() *Task {
	t := sc.runHead
	if t == nil {
		return nil
	}
	sc.runHead = t.next
	if sc.runHead == nil {
		sc.runTail = nil
	}
	t.next = nil
	sc.runLen--
	if sc.metrics != nil {
		sc.metrics.SetRunQueueDepth(sc.runLen)
	}
	return t
}

func (st *SchedulerThread) pushCompleted(t *Task) {
	t.next = nil
	if st.completedTail == nil {
		st.completedHead = t
	} else {
		st.completedTail.next = t
	}
	st.completedTail = t
}

func (st *SchedulerThread) drainCompleted() {
	for st.completedHead != nil {
		t := st.completedHead
		st.completedHead = t.next
		t.next = nil
		st.scheduler.runtime.ReleaseFiber(t.fiber)
	}
	st.completedTail = nil
}

// AttachToThread binds the calling OS thread to sc as a scheduling
// participant: it pins the goroutine to its OS thread for the lifetime of
// the attachment (via runtime.LockOSThread, the one place this package
// steps outside the fiber abstraction, since "this OS thread" is exactly
// what the caller asked to dedicate) and adopts it as a fiber capable of
// switching to tasks. It does not itself run the scheduling loop — call
// RunLoop to do that, or Spawn tasks first and then RunLoop/
// WaitForOtherThreadsAndDetach to drive them.
func (sc *Scheduler) AttachToThread() *SchedulerThread {
	runtimeLockOSThread()
	self := sc.runtime.AdoptCurrentThread()
	st := &SchedulerThread{scheduler: sc, selfFiber: self, loopFiber: self}
	sc.mu.Lock()
	sc.activeThread++
	n := sc.activeThread
	sc.mu.Unlock()
	if sc.metrics != nil {
		sc.metrics.SetActiveThreads(n)
	}
	return st
}

// RunLoop repeatedly pops the next runnable task from the scheduler's run
// queue and switches to it, returning whenever the queue is empty and the
// scheduler has been asked to shut down. While the queue is merely empty
// (but not shutting down), RunLoop blocks on the run queue's condition
// variable rather than busy-polling, mirroring the original's
// runlistCond.wait.
//
// RunLoop must be called from the same goroutine that called
// AttachToThread, and must not be called concurrently with another RunLoop
// on the same SchedulerThread.
func (st *SchedulerThread) RunLoop() {
	sc := st.scheduler
	for {
		sc.mu.Lock()
		for sc.runHead == nil && !sc.shuttingDown {
			sc.cond.Wait()
		}
		t := sc.popRunnableLocked()
		if t == nil {
			sc.mu.Unlock()
			return
		}
		sc.mu.Unlock()

		t.thread = st
		t.state = taskRunning
		sc.runtime.Switch(st.loopFiber, t.fiber)
		st.drainCompleted()

		// t may come back through here in taskParked (it suspended) or
		// taskRunnable (it yielded and re-enqueued itself already) or
		// taskCompleted (handled by drainCompleted above); only a parked
		// task's unlock callback still needs running, and only now that
		// the task is guaranteed off the run queue.
		if t.state == taskParked && t.unlock != nil {
			unlock := t.unlock
			t.unlock = nil
			unlock()
		}
	}
}

// DetachFromThread releases the calling thread's participation in sc. It
// must not be called while a task is mid-switch on this thread (i.e. only
// from the same goroutine that called AttachToThread, after RunLoop has
// returned).
func (st *SchedulerThread) DetachFromThread() {
	sc := st.scheduler
	sc.mu.Lock()
	sc.activeThread--
	n := sc.activeThread
	sc.mu.Unlock()
	if sc.metrics != nil {
		sc.metrics.SetActiveThreads(n)
	}
	sc.runtime.ReleaseCurrentThread(st.selfFiber)
	runtimeUnlockOSThread()
}

// WaitForOtherThreadsAndDetach decrements the scheduler's active-thread
// count, then keeps running this thread's scheduling loop — servicing any
// tasks that still arrive — until every other attached thread has also
// detached, and finally detaches itself. This is the idiom a driver thread
// uses to keep the scheduler alive until all spawned work (including work
// that spawns further work on other attached threads) has genuinely
// finished, instead of returning from RunLoop the first moment its own
// queue looks empty.
func (st *SchedulerThread) WaitForOtherThreadsAndDetach() {
	sc := st.scheduler
	sc.mu.Lock()
	sc.activeThread--
	n := sc.activeThread
	sc.mu.Unlock()
	if sc.metrics != nil {
		sc.metrics.SetActiveThreads(n)
	}

	for {
		sc.mu.Lock()
		if sc.activeThread <= 0 && sc.runHead == nil {
			sc.shuttingDown = true
			sc.cond.Broadcast()
			sc.mu.Unlock()
			break
		}
		sc.mu.Unlock()
		st.RunLoop()
	}

	sc.runtime.ReleaseCurrentThread(st.selfFiber)
	runtimeUnlockOSThread()
}

// ActiveThreads reports the number of currently attached OS threads.
func (sc *Scheduler) ActiveThreads() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.activeThread
}

// RunQueueDepth reports the current run queue length, for diagnostics and
// tests.
func (sc *Scheduler) RunQueueDepth() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.runLen
}
