package main

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	sched "github.com/relaysched/fibersched"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Spawn a batch of tasks, wait for them with a WaitGroup, and report completion",
	RunE:  runRun,
}

var runTaskCount int

func init() {
	runCmd.Flags().IntVar(&runTaskCount, "tasks", 100, "number of tasks to spawn")
}

func runRun(cmd *cobra.Command, args []string) error {
	sc := sched.New(nil)

	start := time.Now()
	var completed atomic.Int64

	sched.RunAttached(sc, cfg.Threads, func(sc *sched.Scheduler) {
		var wg sched.WaitGroup
		wg.Add(runTaskCount)
		for i := 0; i < runTaskCount; i++ {
			sched.Spawn(sched.CurrentTask(), func(t *sched.Task) {
				completed.Add(1)
				wg.Add(-1)
			}, 0)
		}
		wg.Wait()
	})

	elapsed := time.Since(start)
	successColor := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("%s %d tasks in %v across %d threads\n", successColor("completed"), completed.Load(), elapsed, cfg.Threads)
	return nil
}
