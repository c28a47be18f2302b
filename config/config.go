// Package config reads the run configuration of the golsh command.
//
// A run builds one index from a dataset file, answers every query of a query
// file in range or knn mode and writes the timing log and result table:
//
//	metric: euclidean
//	m: 4
//	r: 3.0
//	L: 8
//	seed: 42
//	dataset:
//	  path: data/base.fvecs
//	  size: 100000
//	queries:
//	  path: data/query.csv
//	  size: 100
//	search:
//	  mode: knn
//	  k: 10
//	output:
//	  uri: s3://bucket/runs/2024-01
//	workers: 8
//	qps: 0
package config

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/golsh"
	"github.com/hupe1980/golsh/distance"
)

// Mode selects the search algorithm of a run.
type Mode string

const (
	// ModeRange answers each query with a fixed-radius search.
	ModeRange Mode = "range"
	// ModeKNN answers each query with a k-nearest-neighbor search.
	ModeKNN Mode = "knn"
)

// Config is the run configuration.
type Config struct {
	// Metric is one of euclidean, manhattan or angular.
	Metric string `yaml:"metric"`
	// HashCount is m, the number of hash functions per table.
	HashCount int `yaml:"m"`
	// Width is r, the bucket width.
	Width float64 `yaml:"r"`
	// Tables is L, the number of hash tables.
	Tables int `yaml:"L"`
	// Seed seeds the hash family generator.
	Seed uint64 `yaml:"seed"`

	Dataset Source       `yaml:"dataset"`
	Queries Source       `yaml:"queries"`
	Search  SearchConfig `yaml:"search"`
	Output  OutputConfig `yaml:"output"`

	// Workers bounds concurrent queries; 0 uses GOMAXPROCS.
	Workers int `yaml:"workers"`
	// QPS throttles queries per second; 0 disables throttling.
	QPS float64 `yaml:"qps"`
}

// Source names a vector file and how many vectors to read from it.
type Source struct {
	Path string `yaml:"path"`
	// Size caps the number of vectors read; 0 reads the whole file.
	Size int `yaml:"size"`
}

// SearchConfig selects the search mode and its parameter.
type SearchConfig struct {
	Mode  Mode    `yaml:"mode"`
	Range float64 `yaml:"range"`
	K     int     `yaml:"k"`
}

// OutputConfig describes where reports are written.
type OutputConfig struct {
	// URI is a local directory, s3://bucket/prefix or minio://endpoint/bucket/prefix.
	URI string `yaml:"uri"`
	// Log is the name of the timing log; defaults to log.csv.
	Log string `yaml:"log"`
	// Result is the name of the result table; defaults to result.csv.
	Result string `yaml:"result"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Metric:    distance.Euclidean.String(),
		HashCount: 4,
		Width:     3.0,
		Tables:    8,
		Seed:      golsh.DefaultSeed,
		Search: SearchConfig{
			Mode: ModeKNN,
			K:    10,
		},
		Output: OutputConfig{
			URI:    ".",
			Log:    "log.csv",
			Result: "result.csv",
		},
	}
}

// Load reads the YAML file at path on top of Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration. Failures are *golsh.ErrConfiguration.
func (c *Config) Validate() error {
	if _, err := distance.ParseMetric(c.Metric); err != nil {
		return golsh.NewConfigurationError("metric", err.Error())
	}
	switch {
	case c.HashCount < 1:
		return golsh.NewConfigurationError("m", fmt.Sprintf("must be at least 1, got %d", c.HashCount))
	case c.Tables < 1:
		return golsh.NewConfigurationError("L", fmt.Sprintf("must be at least 1, got %d", c.Tables))
	case !(c.Width > 0) || math.IsInf(c.Width, 1):
		return golsh.NewConfigurationError("r", fmt.Sprintf("must be positive and finite, got %v", c.Width))
	case c.Dataset.Size < 0:
		return golsh.NewConfigurationError("dataset.size", "must not be negative")
	case c.Queries.Size < 0:
		return golsh.NewConfigurationError("queries.size", "must not be negative")
	case c.Workers < 0:
		return golsh.NewConfigurationError("workers", "must not be negative")
	case c.QPS < 0 || math.IsNaN(c.QPS):
		return golsh.NewConfigurationError("qps", "must not be negative")
	}

	c.Search.Mode = Mode(strings.ToLower(string(c.Search.Mode)))
	switch c.Search.Mode {
	case ModeRange:
		if !(c.Search.Range > 0) {
			return golsh.NewConfigurationError("search.range", fmt.Sprintf("must be positive, got %v", c.Search.Range))
		}
	case ModeKNN:
		if c.Search.K < 1 {
			return golsh.NewConfigurationError("search.k", fmt.Sprintf("must be at least 1, got %d", c.Search.K))
		}
	default:
		return golsh.NewConfigurationError("search.mode", fmt.Sprintf("unknown mode %q", c.Search.Mode))
	}
	return nil
}

// IndexOptions returns the golsh options selected by the configuration.
func (c *Config) IndexOptions() []golsh.Option {
	return []golsh.Option{
		golsh.WithMetricName(c.Metric),
		golsh.WithSeed(c.Seed),
	}
}

// NewIndex creates an empty index with the configured parameters.
func (c *Config) NewIndex(opts ...golsh.Option) (*golsh.Index, error) {
	return golsh.New(c.HashCount, c.Width, c.Tables, append(c.IndexOptions(), opts...)...)
}

// ReportK is the row count each query is padded to in the result table: k
// in knn mode, zero (no padding) in range mode.
func (c *Config) ReportK() int {
	if c.Search.Mode == ModeKNN {
		return c.Search.K
	}
	return 0
}
