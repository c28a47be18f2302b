package golsh

import (
	"log/slog"
	"runtime"

	"github.com/hupe1980/golsh/distance"
)

// DefaultSeed is the random seed used when WithSeed is not given.
const DefaultSeed uint64 = 42

type options struct {
	metric           distance.Metric
	metricName       string
	seed             uint64
	dimension        int
	parallelism      int
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures an Index at construction.
type Option func(*options)

// WithMetric selects the distance metric. The default is distance.Euclidean.
func WithMetric(m distance.Metric) Option {
	return func(o *options) {
		o.metric = m
		o.metricName = ""
	}
}

// WithMetricName selects the distance metric by name ("euclidean",
// "manhattan" or "angular"). An unknown name makes New fail with
// ErrConfiguration.
func WithMetricName(name string) Option {
	return func(o *options) {
		o.metricName = name
	}
}

// WithSeed sets the seed of the random engine that draws the hash families.
// Indexes built with the same seed, parameters and dataset are identical.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithDimension fixes the vector dimension up front instead of taking it from
// the first vector. It allows building from an empty dataset.
func WithDimension(dim int) Option {
	return func(o *options) {
		o.dimension = dim
	}
}

// WithParallelism bounds the number of tables filled concurrently during
// Build and Insert. Values <= 0 use GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &golsh.BasicMetricsCollector{}
//	ix, _ := golsh.New(4, 3.0, 8, golsh.WithMetricsCollector(metrics))
//	// ... use ix ...
//	stats := metrics.GetStats()
//	fmt.Printf("Searches: %d, Avg latency: %dns\n", stats.RangeSearchCount, stats.SearchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := golsh.NewJSONLogger(slog.LevelInfo)
//	ix, _ := golsh.New(4, 3.0, 8, golsh.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metric:           distance.Euclidean,
		seed:             DefaultSeed,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.parallelism <= 0 {
		o.parallelism = runtime.GOMAXPROCS(0)
	}
	return o
}
