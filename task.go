package sched

import (
	"fmt"

	"github.com/relaysched/fibersched/fiberrt"
)

// taskState tracks a Task through its lifecycle. A task cycles between
// taskRunnable, taskRunning and taskParked (Yield and Wake move it back to
// taskRunnable); taskCompleted is terminal.
type taskState int

const (
	taskRunnable taskState = iota
	taskRunning
	taskParked
	taskCompleted
)

// Task is a single unit of cooperatively-scheduled work running on its own
// fiber. A Task is heap-allocated and freed only once the scheduler loop
// has drained it from the completed queue on its own fiber — never from
// inside the task's own fiber, and never while any other thread might still
// be about to Wake it.
type Task struct {
	fn    func(t *Task)
	fiber *fiberrt.Fiber
	// thread is the SchedulerThread this task last ran on. It becomes
	// valid the first time the task is switched into and is reassigned
	// every time a RunLoop pops the task, so a task that yields or parks
	// may resume on a different attached thread.
	thread *SchedulerThread
	// next links Tasks inside the run queue or the completed queue.
	// Semaphore waiters are separate semaWaiter nodes, not Task links. A
	// Task is a member of at most one such list at a time.
	next  *Task
	state taskState

	// unlock, if non-nil, is released by the scheduler loop immediately
	// after this task is confirmed parked and before the loop picks its
	// next runnable task. This is the suspend_with_unlock primitive:
	// it closes the window between "task records itself as waiting" and
	// "task is actually off the run queue" during which a waker could
	// otherwise deliver a wakeup that gets lost.
	unlock func()
}

// Spawn creates a new Task bound to t's scheduler, running fn on its own
// fiber, and enqueues it as runnable. fn receives the *Task it is running
// as so it can call CurrentTask-independent operations like Yield without
// a registry lookup, mirroring the original's self-referential task
// pointer; most call sites ignore the parameter and use CurrentTask().
//
// Spawn may be called from any task currently running on a SchedulerThread
// attached to the same Scheduler.
func Spawn(from *Task, fn func(t *Task), stackSize int) *Task {
	if from == nil {
		panic("sched: Spawn called with a nil task")
	}
	sc := from.thread.scheduler
	task := &Task{fn: fn, state: taskRunnable}
	task.fiber = sc.runtime.CreateFiber(func(self *fiberrt.Fiber) {
		runTrampoline(sc, task)
	}, stackSize)
	sc.pushRunnable(task)
	return task
}

// SpawnRoot creates and enqueues a task on sc without requiring the
// caller to already be running as a task itself. It is the entry point
// for a driver goroutine that has not yet called AttachToThread's
// RunLoop — most callers want RunAttached instead, which wraps this for
// the common "spawn one root task, then run it to completion across N
// attached threads" shape.
func SpawnRoot(sc *Scheduler, fn func(t *Task), stackSize int) *Task {
	task := &Task{fn: fn, state: taskRunnable}
	task.fiber = sc.runtime.CreateFiber(func(self *fiberrt.Fiber) {
		runTrampoline(sc, task)
	}, stackSize)
	sc.pushRunnable(task)
	return task
}

// runTrampoline is the body every created fiber runs. It performs the
// first-switch handshake implicitly (CreateFiber already parks the
// goroutine on that handshake) and then runs its one task to completion.
// Unlike schedRunFiber's fiber-reuse design, in which a fiber lives until
// the scheduler shuts down and is handed successive tasks, this Go
// realization dedicates one fiber to exactly one task for that task's
// entire lifetime and relies
// on the completed queue purely for deferred ReleaseFiber, not fiber
// reuse — reuse would require a generic "install a new entry into an
// existing goroutine" operation Go has no safe way to express.
func runTrampoline(sc *Scheduler, task *Task) {
	registerCurrentTask(task)
	runTaskGuarded(sc, task)
	unregisterCurrentTask()
	task.state = taskCompleted
	thread := task.thread
	thread.pushCompleted(task)
	// drainCompleted (called from the loop fiber once this Switch hands
	// control back to it) releases task.fiber, which is what actually
	// unblocks this Switch — via the "from" fiber's release channel, not
	// its resume channel. That is the fiber being torn down, not a real
	// resumption, so Switch reports it as false and runTrampoline simply
	// returns, letting this goroutine exit. Anything else switching into
	// this fiber afterwards is a bug: this task is done.
	if resumed := sc.runtime.Switch(task.fiber, thread.loopFiber); resumed {
		panic("sched: trampoline resumed after task completion; fiber was switched into again")
	}
}

// runTaskGuarded runs a task's entry function, routing any panic through
// the scheduler's PanicHandler instead of letting it unwind the fiber's
// goroutine — an unrecovered panic there would crash the entire process,
// taking down every other task sharing the scheduler with it.
func runTaskGuarded(sc *Scheduler, task *Task) {
	defer func() {
		if r := recover(); r != nil {
			sc.panics.HandlePanic(r)
			if sc.metrics != nil {
				sc.metrics.IncTaskPanics()
			}
		}
	}()
	task.fn(task)
}

// CurrentTask returns the Task running on the calling goroutine. It panics
// if called from a goroutine that is not a fiber created by this package
// (including the original, un-adopted goroutine of an attached OS thread
// before AttachToThread's loop fiber has switched control anywhere).
func CurrentTask() *Task {
	t := lookupCurrentTask()
	if t == nil {
		panic("sched: CurrentTask called from a goroutine that is not running a sched.Task")
	}
	return t
}

// CurrentTaskOrNil is CurrentTask without the panic, for call sites (like
// logging middleware) that may legitimately run outside any task.
func CurrentTaskOrNil() *Task {
	return lookupCurrentTask()
}

// Yield suspends the calling task, returns it to the back of its
// scheduler's run queue, and switches to the scheduler's loop fiber to let
// some other runnable task proceed. It returns once this task is chosen to
// run again.
func Yield(t *Task) {
	if t.state != taskRunning {
		panic(fmt.Sprintf("sched: Yield called on a task in state %d, want taskRunning", t.state))
	}
	thread := t.thread
	t.state = taskRunnable
	thread.scheduler.pushRunnable(t)
	thread.scheduler.runtime.Switch(t.fiber, thread.loopFiber)
	t.state = taskRunning
}

// SuspendSelf parks the calling task without putting it back on the run
// queue. The task will not run again until some other task calls Wake on
// it. SuspendSelf is suspendWithUnlock with no unlock callback; Semaphore
// and the timer service (and WaitGroup, through its Semaphore) use
// suspendWithUnlock instead, since a bare SuspendSelf is subject to the
// lost-wakeup race suspendWithUnlock exists to avoid.
func SuspendSelf(t *Task) {
	suspendWithUnlock(t, nil)
}

// suspendWithUnlock parks the calling task and, only once the task is
// confirmed off the run queue and the scheduler loop is about to pick its
// next task, calls unlock (if non-nil). This ordering is what lets a
// caller record "task T is now a waiter on this condition" under a lock,
// hand suspendWithUnlock the lock's Unlock method, and be certain that any
// Wake(T) racing in from another goroutine either happens strictly before
// the record is visible (so Wake sees nothing and T parks normally) or
// strictly after suspendWithUnlock's internal bookkeeping has made T
// visible as parked (so Wake reliably reaches it) — there is no window in
// between where a wakeup can be lost.
func suspendWithUnlock(t *Task, unlock func()) {
	if t.state != taskRunning {
		panic(fmt.Sprintf("sched: suspendWithUnlock called on a task in state %d, want taskRunning", t.state))
	}
	thread := t.thread
	t.state = taskParked
	t.unlock = unlock
	thread.scheduler.runtime.Switch(t.fiber, thread.loopFiber)
	t.state = taskRunning
}

// Wake moves a parked task back onto its scheduler's run queue. It is safe
// to call from any task or attached thread, including one different from
// the task's own. Waking a task that is not currently parked is a usage
// error.
func Wake(t *Task) {
	if t.state != taskParked {
		panic(fmt.Sprintf("sched: Wake called on a task in state %d, want taskParked", t.state))
	}
	t.state = taskRunnable
	t.thread.scheduler.pushRunnable(t)
}
