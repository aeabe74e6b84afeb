package sched

import (
	"sync"
	"sync/atomic"
	"time"
	"unsafe"
)

const semaRootTableSize = 251

type semaWaiter struct {
	next  *semaWaiter
	owner *Task
	sema  *Semaphore
}

type semaRoot struct {
	mu      sync.Mutex
	head    *semaWaiter
	waiters atomic.Uint32
}

var semaRoots [semaRootTableSize]semaRoot

// semaRootFor hashes a semaphore's address into the shared root table,
// exactly as the original hashes a Sema*: divide by 8 (the original's
// pointers are at least 8-byte aligned, same as a Go heap-allocated
// struct) and take the table size as modulus. Sharding by address means
// unrelated semaphores mostly land on different roots and contend on
// different locks, without needing a lock or waiter list per semaphore.
func semaRootFor(s *Semaphore) *semaRoot {
	addr := uintptr(unsafe.Pointer(s))
	index := (addr / 8) % semaRootTableSize
	return &semaRoots[index]
}

// Semaphore is a counting semaphore whose Acquire suspends the calling
// task (rather than blocking its OS thread) when the count is zero. A
// Semaphore must be heap-allocated — via NewSemaphore or as a field of a
// heap-allocated struct — since its identity (address) is how waiters
// find their way back to the right release.
type Semaphore struct {
	count atomic.Uint32
}

// NewSemaphore returns a Semaphore initialized with the given count.
func NewSemaphore(initial uint32) *Semaphore {
	s := &Semaphore{}
	s.count.Store(initial)
	return s
}

func semaTryAcquire(count *atomic.Uint32) bool {
	for {
		v := count.Load()
		if v == 0 {
			return false
		}
		if count.CompareAndSwap(v, v-1) {
			return true
		}
	}
}

// TryAcquire attempts to decrement the semaphore without blocking. It
// reports whether the decrement happened.
func (s *Semaphore) TryAcquire() bool {
	return semaTryAcquire(&s.count)
}

// Acquire decrements the semaphore, suspending the calling task until a
// unit is available if the count is currently zero. It must be called
// from a task running on a scheduler's fiber.
func (s *Semaphore) Acquire() {
	if semaTryAcquire(&s.count) {
		return
	}

	task := CurrentTask()
	root := semaRootFor(s)
	start := time.Now()
	for {
		root.mu.Lock()
		root.waiters.Add(1)

		// Another release may have landed between the failed TryAcquire
		// above and taking the root lock; check again before parking.
		if semaTryAcquire(&s.count) {
			root.waiters.Add(^uint32(0)) // -1
			root.mu.Unlock()
			break
		}

		w := &semaWaiter{owner: task, sema: s, next: root.head}
		root.head = w

		suspendWithUnlock(task, root.mu.Unlock)

		if semaTryAcquire(&s.count) {
			// The waiter count was already decremented by release.
			break
		}
	}
	if waited := time.Since(start); waited > 0 {
		task.thread.scheduler.metrics.RecordSemaphoreWait(waited)
	}
}

// Release increments the semaphore and, if any task is parked waiting on
// it, wakes exactly one of them.
func (s *Semaphore) Release() {
	root := semaRootFor(s)
	s.count.Add(1)

	if root.waiters.Load() == 0 {
		return
	}

	var toWake *Task
	root.mu.Lock()
	if root.waiters.Load() != 0 {
		prev := &root.head
		for w := root.head; w != nil; prev, w = &w.next, w.next {
			if w.sema == s {
				root.waiters.Add(^uint32(0)) // -1
				toWake = w.owner
				*prev = w.next
				break
			}
		}
	}
	root.mu.Unlock()

	if toWake != nil {
		Wake(toWake)
	}
}
