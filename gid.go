package sched

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// goroutineID returns the numeric id of the calling goroutine, parsed out
// of runtime.Stack's header line. The Go runtime carries no public API for
// this; parsing the debug stack trace is the one well-known portable
// workaround, and it is the idiomatic substitute for the C++ original's
// thread-local "current task" pointer — a goroutine cannot be relied on to
// stay on the same OS thread, so true TLS would be the wrong tool here
// even if Go exposed it.
//
// It runs once per CurrentTask call and twice per task lifetime (when the
// trampoline registers and unregisters the task), never on a hot
// scheduling path, so its cost (a small buffer, one ParseInt) is
// acceptable. The scheduler loop itself never calls it.
func goroutineID() int64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	buf = buf[:n]
	const prefix = "goroutine "
	if !bytes.HasPrefix(buf, []byte(prefix)) {
		panic("sched: unexpected runtime.Stack() header: " + string(buf))
	}
	buf = buf[len(prefix):]
	sp := bytes.IndexByte(buf, ' ')
	if sp < 0 {
		panic("sched: unexpected runtime.Stack() header: " + string(buf))
	}
	id, err := strconv.ParseInt(string(buf[:sp]), 10, 64)
	if err != nil {
		panic("sched: unexpected runtime.Stack() header: " + err.Error())
	}
	return id
}

// taskRegistry maps a fiber's goroutine id to the Task currently running
// on it, serving the role the original's thread-local "current task"
// pointer plays in fiber.h's FiberFactory implementations.
var taskRegistry sync.Map // goroutine id (int64) -> *Task

func registerCurrentTask(t *Task) {
	taskRegistry.Store(goroutineID(), t)
}

func unregisterCurrentTask() {
	taskRegistry.Delete(goroutineID())
}

func lookupCurrentTask() *Task {
	v, ok := taskRegistry.Load(goroutineID())
	if !ok {
		return nil
	}
	return v.(*Task)
}
