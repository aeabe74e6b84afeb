package sched

import "golang.org/x/sync/errgroup"

// RunAttached is the common driver shape: attach nthreads OS threads to
// sc (spawning goroutine workers for all but the calling one), spawn
// entry as a root task on the shared run queue, and block until entry and
// everything it transitively spawns has finished and every attached
// thread has drained its run queue and detached.
//
// It is grounded on the same "one function call starts the whole
// scheduler" idiom as the original's runFunction, with worker threads
// realized as errgroup goroutines rather than std::thread, since that is
// how this codebase's dependency on golang.org/x/sync/errgroup is meant
// to be used: a fixed fan-out of goroutines whose first error (none are
// expected here; RunAttached's workers never return one) would otherwise
// need manual WaitGroup plumbing.
//
// nthreads must be at least 1; values less than 1 are treated as 1.
func RunAttached(sc *Scheduler, nthreads int, entry func(sc *Scheduler)) {
	if nthreads < 1 {
		nthreads = 1
	}

	var g errgroup.Group
	for i := 1; i < nthreads; i++ {
		g.Go(func() error {
			st := sc.AttachToThread()
			st.WaitForOtherThreadsAndDetach()
			return nil
		})
	}

	driver := sc.AttachToThread()
	SpawnRoot(sc, func(t *Task) {
		entry(sc)
	}, 0)
	driver.WaitForOtherThreadsAndDetach()

	// Errors are impossible here (the worker goroutines above never
	// return one), but Wait also blocks until every worker has actually
	// exited, which RunAttached's callers rely on.
	_ = g.Wait()
}
