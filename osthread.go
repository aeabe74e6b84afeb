package sched

import "runtime"

// runtimeLockOSThread and runtimeUnlockOSThread are thin, named wrappers
// around runtime.LockOSThread/UnlockOSThread. They exist only so the one
// stdlib-only primitive this package cannot get from any third-party
// library has a single, greppable call site per direction.
func runtimeLockOSThread() {
	runtime.LockOSThread()
}

func runtimeUnlockOSThread() {
	runtime.UnlockOSThread()
}
