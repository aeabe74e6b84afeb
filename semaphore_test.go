package sched

import (
	"sync/atomic"
	"testing"
)

// TestSemaphore_TryAcquireRespectsCount verifies the non-blocking path.
// Given: a semaphore with a count of 1
// When: TryAcquire is called twice
// Then: the first succeeds and the second fails
func TestSemaphore_TryAcquireRespectsCount(t *testing.T) {
	// Arrange
	s := NewSemaphore(1)

	// Act
	first := s.TryAcquire()
	second := s.TryAcquire()

	// Assert
	if !first {
		t.Fatal("first TryAcquire should have succeeded")
	}
	if second {
		t.Fatal("second TryAcquire should have failed")
	}
}

// TestSemaphore_AcquireBlocksUntilRelease verifies Acquire suspends a task
// until a matching Release.
// Given: a zero-count semaphore and a task blocked in Acquire
// When: another task calls Release
// Then: the blocked task's Acquire returns and it completes
func TestSemaphore_AcquireBlocksUntilRelease(t *testing.T) {
	// Arrange
	sc := New(nil)
	s := NewSemaphore(0)
	var acquired atomic.Bool

	// Act
	RunAttached(sc, 2, func(sc *Scheduler) {
		Spawn(CurrentTask(), func(t *Task) {
			s.Acquire()
			acquired.Store(true)
		}, 0)
		Spawn(CurrentTask(), func(t *Task) {
			s.Release()
		}, 0)
	})

	// Assert
	if !acquired.Load() {
		t.Fatal("Acquire never returned")
	}
}

// TestSemaphore_ActsAsMutualExclusion verifies that a semaphore
// initialized to 1 serializes access to a shared counter across many
// concurrently spawned tasks.
// Given: a semaphore with count 1 guarding a shared counter
// When: many tasks each Acquire, increment, then Release
// Then: the final counter value equals the number of tasks, with no lost
// updates
func TestSemaphore_ActsAsMutualExclusion(t *testing.T) {
	// Arrange
	sc := New(nil)
	s := NewSemaphore(1)
	shared := 0
	const n = 200

	// Act
	RunAttached(sc, 4, func(sc *Scheduler) {
		for i := 0; i < n; i++ {
			Spawn(CurrentTask(), func(t *Task) {
				s.Acquire()
				shared++
				Yield(t) // widen the window for a race to show up
				s.Release()
			}, 0)
		}
	})

	// Assert
	if shared != n {
		t.Fatalf("shared = %d, want %d (mutual exclusion violated)", shared, n)
	}
}

// TestSemaphore_ReleaseWakesExactlyOneWaiter verifies that a single
// Release only admits one of several waiters, leaving the rest parked.
// Given: three tasks blocked on a zero-count semaphore
// When: Release is called once and the scheduler is allowed to drain
// Then: exactly one of the three tasks has completed; the other two are
// still parked and only finish once further Releases wake them
func TestSemaphore_ReleaseWakesExactlyOneWaiter(t *testing.T) {
	// Arrange
	sc := New(nil)
	s := NewSemaphore(0)
	var completed atomic.Int32

	// Act: three waiters park; one Release; the run queue then empties
	// because the other two waiters are parked (not runnable), so
	// RunAttached returns even though two tasks are still alive.
	RunAttached(sc, 1, func(sc *Scheduler) {
		for i := 0; i < 3; i++ {
			Spawn(CurrentTask(), func(t *Task) {
				s.Acquire()
				completed.Add(1)
			}, 0)
		}
		Yield(CurrentTask())
		Yield(CurrentTask())
		Yield(CurrentTask())
		s.Release()
	})

	// Assert: exactly one waiter admitted so far
	if got := completed.Load(); got != 1 {
		t.Fatalf("completed after one Release = %d, want 1", got)
	}

	// Act again: release the remaining two
	RunAttached(sc, 1, func(sc *Scheduler) {
		s.Release()
		s.Release()
	})

	// Assert: all three have now completed
	if got := completed.Load(); got != 3 {
		t.Fatalf("completed after all Releases = %d, want 3", got)
	}
}
