package sched

import "sync/atomic"

// WaitGroup waits for a collection of tasks to finish, the same way it
// would with goroutines, except that Wait suspends the calling task rather
// than blocking its OS thread. Its count and waiter count are packed into
// a single 64-bit word (count in the high 32 bits, waiter count in the
// low 32 bits) so Add and Wait can each make their decision with one
// atomic op, exactly as the original packs the two into one std::atomic.
//
// The zero WaitGroup is ready to use.
type WaitGroup struct {
	state atomic.Uint64
	sema  Semaphore
}

// Add adds delta, which may be negative, to the WaitGroup counter. If the
// counter becomes zero, every task currently parked in Wait is released.
// Add must not be called concurrently with a call to Wait that could make
// the counter go negative, and the counter must never go negative — both
// are usage errors and panic.
func (wg *WaitGroup) Add(delta int) {
	shifted := uint64(uint32(int32(delta))) << 32
	st := wg.state.Add(shifted)
	count := int32(st >> 32)
	waiters := uint32(st)

	if count < 0 {
		panic("sched: WaitGroup counter went negative")
	}
	if waiters != 0 && delta > 0 && count == int32(delta) {
		panic("sched: WaitGroup misuse: Add called concurrently with Wait")
	}

	if count == 0 && waiters > 0 {
		wg.state.Store(0)
		for i := uint32(0); i != waiters; i++ {
			wg.sema.Release()
		}
	}
}

// Wait suspends the calling task until the WaitGroup counter returns to
// zero. It returns immediately if the counter is already zero.
func (wg *WaitGroup) Wait() {
	for {
		st := wg.state.Load()
		count := int32(st >> 32)
		if count == 0 {
			return
		}
		if wg.state.CompareAndSwap(st, st+1) {
			wg.sema.Acquire()
			return
		}
	}
}
