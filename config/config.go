package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the recognized solver configuration surface.
type Config struct {
	// MemorySafetyFraction is the share of available host memory the
	// transposition table may claim.
	MemorySafetyFraction float64 `yaml:"memory_safety_fraction"`
	// WorkerCount sizes the parallel root-search pool.
	WorkerCount int `yaml:"worker_count"`
	// TimeBudget is the optional wall-clock cutoff; zero means unlimited.
	TimeBudget Duration `yaml:"time_budget"`
	// TableBudget is the table's entry budget before the memory monitor
	// first samples (and permanently, if monitoring is disabled).
	TableBudget int64 `yaml:"table_budget"`
	// SampleInterval is how often the memory monitor re-reads host memory.
	SampleInterval Duration `yaml:"sample_interval"`
	// MonitorMemory toggles the background memory monitor.
	MonitorMemory bool `yaml:"monitor_memory"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		MemorySafetyFraction: 0.25,
		WorkerCount:          8,
		TableBudget:          1 << 20,
		SampleInterval:       Duration(5 * time.Second),
		MonitorMemory:        true,
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if cfg.WorkerCount <= 0 {
		return cfg, fmt.Errorf("worker_count must be positive, got %d", cfg.WorkerCount)
	}
	if cfg.MemorySafetyFraction <= 0 || cfg.MemorySafetyFraction > 1 {
		return cfg, fmt.Errorf("memory_safety_fraction must be in (0, 1], got %v", cfg.MemorySafetyFraction)
	}
	return cfg, nil
}

// Duration wraps time.Duration so YAML values can use strings like "250ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
