package sched

import (
	"testing"
)

// TestCurrentTask_PanicsOutsideTask verifies that CurrentTask cannot be
// called from a goroutine that isn't running a scheduled task.
func TestCurrentTask_PanicsOutsideTask(t *testing.T) {
	// Arrange
	defer func() {
		if recover() == nil {
			t.Fatal("CurrentTask should have panicked outside of a task")
		}
	}()

	// Act
	CurrentTask()
}

// TestCurrentTaskOrNil_ReturnsNilOutsideTask is the non-panicking
// counterpart used by call sites that may legitimately run outside any
// task.
func TestCurrentTaskOrNil_ReturnsNilOutsideTask(t *testing.T) {
	if got := CurrentTaskOrNil(); got != nil {
		t.Fatalf("CurrentTaskOrNil() = %v, want nil", got)
	}
}

// TestCurrentTask_ReturnsTheRunningTask verifies the identity returned
// from inside a task matches the *Task the scheduler is driving.
func TestCurrentTask_ReturnsTheRunningTask(t *testing.T) {
	// Arrange
	sc := New(nil)
	var observed *Task
	var spawned *Task

	// Act
	RunAttached(sc, 1, func(sc *Scheduler) {
		spawned = Spawn(CurrentTask(), func(t *Task) {
			observed = CurrentTask()
		}, 0)
	})

	// Assert
	if observed != spawned {
		t.Fatalf("CurrentTask() inside the task = %p, want %p", observed, spawned)
	}
}

// TestSpawn_PanicsOnNilFrom documents that Spawn requires a currently
// running task to anchor the new task to a scheduler.
func TestSpawn_PanicsOnNilFrom(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Spawn(nil, ...) should have panicked")
		}
	}()
	Spawn(nil, func(t *Task) {}, 0)
}

// TestYield_PanicsWhenNotRunning documents that Yield only makes sense
// from inside the task that is currently executing.
func TestYield_PanicsWhenNotRunning(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Yield on a non-running task should have panicked")
		}
	}()
	task := &Task{state: taskCompleted}
	Yield(task)
}
