package prometheus

import (
	"errors"
	"fmt"
	"time"

	sched "github.com/relaysched/fibersched"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// MetricsExporter adapts sched.Metrics to Prometheus collectors.
type MetricsExporter struct {
	taskDurationSeconds  prom.Histogram
	taskPanicTotal       prom.Counter
	runQueueDepth        prom.Gauge
	activeThreads        prom.Gauge
	semaphoreWaitSeconds prom.Histogram
	liveTimers           prom.Gauge
}

var _ sched.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for
// sched.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "fibersched"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	durationHist := prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Task run duration in seconds, measured per scheduling quantum.",
		Buckets:   buckets,
	})
	panicCounter := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_panic_total",
		Help:      "Total number of task panics recovered by the scheduler.",
	})
	runQueueGauge := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "run_queue_depth",
		Help:      "Current number of runnable tasks waiting for an attached thread.",
	})
	activeThreadsGauge := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "active_threads",
		Help:      "Current number of OS threads attached to the scheduler.",
	})
	semaphoreWaitHist := prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "semaphore_wait_seconds",
		Help:      "Time a task spent parked inside Semaphore.Acquire before succeeding.",
		Buckets:   buckets,
	})
	liveTimersGauge := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "live_timers",
		Help:      "Current number of pending timers in the timer heap.",
	})

	durationCollector, err := registerCollector(reg, durationHist)
	if err != nil {
		return nil, err
	}
	panicCollector, err := registerCollector(reg, panicCounter)
	if err != nil {
		return nil, err
	}
	runQueueCollector, err := registerCollector(reg, runQueueGauge)
	if err != nil {
		return nil, err
	}
	activeThreadsCollector, err := registerCollector(reg, activeThreadsGauge)
	if err != nil {
		return nil, err
	}
	semaphoreWaitCollector, err := registerCollector(reg, semaphoreWaitHist)
	if err != nil {
		return nil, err
	}
	liveTimersCollector, err := registerCollector(reg, liveTimersGauge)
	if err != nil {
		return nil, err
	}

	return &MetricsExporter{
		taskDurationSeconds:  durationCollector,
		taskPanicTotal:       panicCollector,
		runQueueDepth:        runQueueCollector,
		activeThreads:        activeThreadsCollector,
		semaphoreWaitSeconds: semaphoreWaitCollector,
		liveTimers:           liveTimersCollector,
	}, nil
}

// SetRunQueueDepth records the current run queue depth.
func (m *MetricsExporter) SetRunQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.runQueueDepth.Set(float64(depth))
}

// SetActiveThreads records the current number of attached threads.
func (m *MetricsExporter) SetActiveThreads(count int) {
	if m == nil {
		return
	}
	m.activeThreads.Set(float64(count))
}

// IncTaskPanics records that a task panicked.
func (m *MetricsExporter) IncTaskPanics() {
	if m == nil {
		return
	}
	m.taskPanicTotal.Inc()
}

// RecordTaskDuration records how long a task ran for.
func (m *MetricsExporter) RecordTaskDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.taskDurationSeconds.Observe(d.Seconds())
}

// RecordSemaphoreWait records how long a task waited on a Semaphore.
func (m *MetricsExporter) RecordSemaphoreWait(d time.Duration) {
	if m == nil {
		return
	}
	m.semaphoreWaitSeconds.Observe(d.Seconds())
}

// SetLiveTimers records the current number of pending timers.
func (m *MetricsExporter) SetLiveTimers(count int) {
	if m == nil {
		return
	}
	m.liveTimers.Set(float64(count))
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
