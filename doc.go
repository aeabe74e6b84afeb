// Package sched implements a stackful, cooperative fiber scheduler for Go.
//
// Tasks are closures that run on their own fiber and either run to
// completion or voluntarily suspend — on a Semaphore, a WaitGroup, a
// timer, or a bare Yield — handing control back to whichever OS thread is
// currently attached and driving the scheduler's run queue. No task is
// ever preempted: a task only stops running because it chose to.
//
// # Quick Start
//
// The common case is RunAttached, which attaches N OS threads and runs a
// root function as a task across them:
//
//	scheduler := sched.New(nil)
//	sched.RunAttached(scheduler, 4, func(sc *sched.Scheduler) {
//		sched.Spawn(sched.CurrentTask(), func(t *sched.Task) {
//			println("hello from a task")
//		}, 0)
//	})
//
// # Key Concepts
//
// Task: a unit of cooperatively-scheduled work. Created with Spawn (from
// inside a running task) or SpawnRoot (from a driver goroutine that is not
// itself a task yet).
//
// Semaphore and WaitGroup: synchronization primitives whose blocking
// operations suspend the calling task instead of blocking an OS thread.
//
// Sleep: suspends the calling task for a duration, serviced by a single
// process-wide timer heap.
//
// fiberrt.FiberRuntime: the pluggable execution substrate a Scheduler runs
// tasks on. The default implementation backs each fiber with a goroutine
// and a pair of rendezvous channels.
//
// # Thread Safety
//
// All exported operations that take a *Task or *Scheduler are safe to call
// from any attached thread or running task. A Task must not be switched
// into from two threads concurrently; the scheduler's run queue enforces
// this by construction (a task is runnable from exactly one place in the
// queue at a time).
package sched
