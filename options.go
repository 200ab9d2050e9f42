package taskgraph

import (
	"log/slog"

	"github.com/ygrebnov/taskgraph/metrics"
)

// Options holds Context configuration. Unlike the teacher's Config, this is
// always built through functional options (the teacher's Config-based New is
// a deprecated path this port does not carry forward).
type Options struct {
	// WorkerThreadCount is the number of worker-pool goroutines to run.
	// Zero means the caller must drive progress entirely via ActiveWait
	// (spec.md §4.5, S7).
	// Default: 0.
	WorkerThreadCount uint

	// MainThreadID is the caller's own label (Go has no public thread-id
	// API) for the goroutine expected to drive the main work pool via
	// Context.AssistMain. The runtime stores it but does not read it: with
	// or without a label, the main pool makes progress only while some
	// goroutine is inside AssistMain.
	MainThreadID string

	// Args is a passthrough slice of free-form program arguments, mirroring
	// the original's arc::options::args span.
	Args []string

	// Metrics is the instrumentation sink for Store/Scheduler/Task events.
	// Default: metrics.NewNoopProvider().
	Metrics metrics.Provider

	// Logger receives Debug-level structured logs of store transitions
	// (insert/erase/resurrect) and scheduler stop sequencing.
	// Default: slog.Default().
	Logger *slog.Logger

	// UnusedCacheSize is passed to each WorkPool as its unused_cache_size
	// (spec.md §4.5). The pools store it but do not batch on it: a
	// deferred release is drained as soon as it is queued.
	// Default: 32.
	UnusedCacheSize int
}

// Option configures Options. Use New(opts...) to construct a Context.
type Option func(*Options)

// WithWorkerThreadCount sets the worker pool's goroutine count.
func WithWorkerThreadCount(n uint) Option {
	return func(o *Options) { o.WorkerThreadCount = n }
}

// WithMainThreadID labels the goroutine expected to assist the main pool.
func WithMainThreadID(id string) Option {
	return func(o *Options) { o.MainThreadID = id }
}

// WithArgs sets passthrough program arguments.
func WithArgs(args []string) Option {
	return func(o *Options) { o.Args = append([]string(nil), args...) }
}

// WithMetrics sets the instrumentation provider.
func WithMetrics(p metrics.Provider) Option {
	return func(o *Options) { o.Metrics = p }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithUnusedCacheSize sets Options.UnusedCacheSize.
func WithUnusedCacheSize(n int) Option {
	return func(o *Options) { o.UnusedCacheSize = n }
}

func defaultOptions() Options {
	return Options{
		WorkerThreadCount: 0,
		UnusedCacheSize:   32,
		Metrics:           metrics.NewNoopProvider(),
		Logger:            slog.Default(),
	}
}

func buildOptions(opts ...Option) Options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt == nil {
			panic("nil taskgraph option")
		}
		opt(&o)
	}
	if o.Metrics == nil {
		o.Metrics = metrics.NewNoopProvider()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.UnusedCacheSize <= 0 {
		o.UnusedCacheSize = 32
	}
	return o
}
