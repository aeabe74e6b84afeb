package sched

import "github.com/relaysched/fibersched/fiberrt"

// Config holds the optional collaborators a Scheduler is built with. Every
// field is optional; zero-value fields are replaced by their defaults in
// New, mirroring the teacher's DefaultTaskSchedulerConfig pattern.
type Config struct {
	// Runtime supplies the fiber primitives tasks run on. Defaults to
	// fiberrt.NewGoroutineRuntime().
	Runtime fiberrt.FiberRuntime

	// Logger receives structured scheduler diagnostics. Defaults to
	// NewNoOpLogger(), matching library conventions of staying silent
	// unless a caller opts in.
	Logger Logger

	// PanicHandler receives recovered task panics. Defaults to
	// NewDefaultPanicHandler().
	PanicHandler PanicHandler

	// Metrics receives scheduler observability events. Defaults to
	// NilMetrics{}.
	Metrics Metrics
}

// DefaultConfig returns a Config with every field set to its default.
func DefaultConfig() Config {
	return Config{
		Runtime:      fiberrt.NewGoroutineRuntime(),
		Logger:       NewNoOpLogger(),
		PanicHandler: NewDefaultPanicHandler(),
		Metrics:      NilMetrics{},
	}
}

// withDefaults returns a copy of c with every zero-value field replaced by
// its default.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Runtime != nil {
		d.Runtime = c.Runtime
	}
	if c.Logger != nil {
		d.Logger = c.Logger
	}
	if c.PanicHandler != nil {
		d.PanicHandler = c.PanicHandler
	}
	if c.Metrics != nil {
		d.Metrics = c.Metrics
	}
	return d
}
