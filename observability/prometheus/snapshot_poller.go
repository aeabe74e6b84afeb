package prometheus

import (
	"context"
	"sync"
	"time"

	sched "github.com/relaysched/fibersched"
	prom "github.com/prometheus/client_golang/prometheus"
)

// SchedulerSnapshotProvider is the subset of *sched.Scheduler a
// SnapshotPoller needs. It exists so tests can poll a fake without
// standing up a real Scheduler.
type SchedulerSnapshotProvider interface {
	RunQueueDepth() int
	ActiveThreads() int
}

// SnapshotPoller periodically polls one or more schedulers' run queue
// depth and active thread count into Prometheus gauges, for deployments
// that want scheduler visibility without wiring a sched.Metrics
// implementation into every Scheduler at construction time.
type SnapshotPoller struct {
	interval time.Duration

	schedulersMu sync.RWMutex
	schedulers   map[string]SchedulerSnapshotProvider

	runQueueDepth *prom.GaugeVec
	activeThreads *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its
// collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	runQueueDepth := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "fibersched",
		Name:      "polled_run_queue_depth",
		Help:      "Run queue depth, polled periodically rather than pushed.",
	}, []string{"scheduler"})
	activeThreads := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "fibersched",
		Name:      "polled_active_threads",
		Help:      "Active thread count, polled periodically rather than pushed.",
	}, []string{"scheduler"})

	var err error
	if runQueueDepth, err = registerCollector(reg, runQueueDepth); err != nil {
		return nil, err
	}
	if activeThreads, err = registerCollector(reg, activeThreads); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:      interval,
		schedulers:    make(map[string]SchedulerSnapshotProvider),
		runQueueDepth: runQueueDepth,
		activeThreads: activeThreads,
	}, nil
}

// AddScheduler adds or replaces a scheduler snapshot provider by name.
func (p *SnapshotPoller) AddScheduler(name string, provider SchedulerSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "scheduler")
	p.schedulersMu.Lock()
	p.schedulers[name] = provider
	p.schedulersMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.schedulersMu.RLock()
	defer p.schedulersMu.RUnlock()
	for name, provider := range p.schedulers {
		p.runQueueDepth.WithLabelValues(name).Set(float64(provider.RunQueueDepth()))
		p.activeThreads.WithLabelValues(name).Set(float64(provider.ActiveThreads()))
	}
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

var _ SchedulerSnapshotProvider = (*sched.Scheduler)(nil)
