package main

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	sched "github.com/relaysched/fibersched"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure Yield throughput across the configured thread count",
	RunE:  runBench,
}

var benchDuration time.Duration

func init() {
	benchCmd.Flags().DurationVar(&benchDuration, "duration", time.Second, "how long to run the benchmark")
}

func runBench(cmd *cobra.Command, args []string) error {
	sc := sched.New(nil)
	var yields atomic.Int64
	stop := make(chan struct{})

	go func() {
		time.Sleep(benchDuration)
		close(stop)
	}()

	start := time.Now()
	sched.RunAttached(sc, cfg.Threads, func(sc *sched.Scheduler) {
		for i := 0; i < cfg.Threads; i++ {
			sched.Spawn(sched.CurrentTask(), func(t *sched.Task) {
				for {
					select {
					case <-stop:
						return
					default:
					}
					yields.Add(1)
					sched.Yield(t)
				}
			}, 0)
		}
	})
	elapsed := time.Since(start)

	rate := float64(yields.Load()) / elapsed.Seconds()
	headline := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Printf("%s %.0f yields/sec over %v (%d threads)\n", headline("throughput:"), rate, elapsed.Round(time.Millisecond), cfg.Threads)
	return nil
}
