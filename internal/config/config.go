// Package config defines the typed configuration for the enrichment engine
// and its CLI. Values load from an optional YAML file, then environment
// variables, then CLI flags, with later sources winning.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	// DefaultChunkSize is the default number of records per chunk.
	DefaultChunkSize = 500

	// DefaultHighThreshold is the fuzzy score at or above which a match is
	// auto-accepted.
	DefaultHighThreshold = 85.0

	// DefaultLowThreshold is the fuzzy score at or above which a candidate
	// is retained for manual review.
	DefaultLowThreshold = 70.0

	// DefaultTopK is the number of fuzzy candidates retained per record.
	DefaultTopK = 5

	// DefaultMaxRetries is the number of attempts per chunk before the run
	// fails permanently.
	DefaultMaxRetries = 3

	// DefaultWorkers is the number of goroutines matching records within a
	// chunk. 1 means fully sequential processing.
	DefaultWorkers = 1

	// MinScore and MaxScore bound the similarity score range.
	MinScore = 0.0
	MaxScore = 100.0
)

// Configuration validation errors.
var (
	ErrChunkSizeInvalid  = errors.New("chunk_size must be a positive integer")
	ErrThresholdRange    = errors.New("thresholds must be between 0 and 100")
	ErrThresholdOrder    = errors.New("low_threshold must not exceed high_threshold")
	ErrTopKInvalid       = errors.New("top_k must be a positive integer")
	ErrMaxRetriesInvalid = errors.New("max_retries must be a positive integer")
	ErrWorkersInvalid    = errors.New("workers must be a positive integer")
)

// Config holds every tunable of an enrichment run.
type Config struct {
	// ChunkSize is the number of records processed and checkpointed as one
	// atomic unit.
	ChunkSize int `yaml:"chunk_size"     json:"chunk_size"`

	// HighThreshold auto-accepts fuzzy matches scoring at or above it.
	HighThreshold float64 `yaml:"high_threshold" json:"high_threshold"`

	// LowThreshold retains fuzzy candidates scoring at or above it for
	// manual review. Must not exceed HighThreshold.
	LowThreshold float64 `yaml:"low_threshold"  json:"low_threshold"`

	// TopK is the number of fuzzy candidates kept per record.
	TopK int `yaml:"top_k"          json:"top_k"`

	// MaxRetries is the number of attempts per chunk before the run fails.
	MaxRetries int `yaml:"max_retries"    json:"max_retries"`

	// Workers is the intra-chunk matching concurrency. Chunks themselves
	// are always processed sequentially in ascending order.
	Workers int `yaml:"workers"        json:"workers"`

	// CheckpointDir is where checkpoints and durable chunk results are
	// written. Empty disables checkpointing (in-memory progress only).
	CheckpointDir string `yaml:"checkpoint_dir" json:"checkpoint_dir"`

	// Logging controls log level and format.
	Logging LoggingConfig `yaml:"logging"        json:"logging"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is a zerolog level name. Defaults to "info".
	Level string `yaml:"level"  json:"level"`
	// Format is "console", "json", or "auto". Defaults to "auto".
	Format string `yaml:"format" json:"format"`
}

// New returns a Config populated with documented defaults.
func New() *Config {
	return &Config{
		ChunkSize:     DefaultChunkSize,
		HighThreshold: DefaultHighThreshold,
		LowThreshold:  DefaultLowThreshold,
		TopK:          DefaultTopK,
		MaxRetries:    DefaultMaxRetries,
		Workers:       DefaultWorkers,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load reads a YAML config file over the defaults, then applies environment
// overrides. A missing file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := New()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Missing config file falls through to defaults.
		case err != nil:
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

// applyEnv overlays SBIR_* environment variables onto cfg. Unparseable
// values are ignored so a stray variable cannot break a run.
func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("SBIR_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ChunkSize = n
		}
	}
	if v := getenv("SBIR_HIGH_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.HighThreshold = f
		}
	}
	if v := getenv("SBIR_LOW_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.LowThreshold = f
		}
	}
	if v := getenv("SBIR_CHECKPOINT_DIR"); v != "" {
		c.CheckpointDir = v
	}
	if v := getenv("SBIR_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks every field, failing fast before any chunk is processed.
func (c *Config) Validate() error {
	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: got %d", ErrChunkSizeInvalid, c.ChunkSize)
	}
	if c.HighThreshold < MinScore || c.HighThreshold > MaxScore {
		return fmt.Errorf("%w: high_threshold %.2f", ErrThresholdRange, c.HighThreshold)
	}
	if c.LowThreshold < MinScore || c.LowThreshold > MaxScore {
		return fmt.Errorf("%w: low_threshold %.2f", ErrThresholdRange, c.LowThreshold)
	}
	if c.LowThreshold > c.HighThreshold {
		return fmt.Errorf("%w: %.2f > %.2f", ErrThresholdOrder, c.LowThreshold, c.HighThreshold)
	}
	if c.TopK < 1 {
		return fmt.Errorf("%w: got %d", ErrTopKInvalid, c.TopK)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("%w: got %d", ErrMaxRetriesInvalid, c.MaxRetries)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: got %d", ErrWorkersInvalid, c.Workers)
	}
	return nil
}
