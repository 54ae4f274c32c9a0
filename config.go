// Copyright (c) 2026 goquota authors.
// Full license can be found in the LICENSE file.

package goquota

import (
	"os"
	"time"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"
)

// Config carries every knob the harness needs. Nothing is read from ambient
// environment variables; the domain identity and page geometry are threaded
// explicitly from here down to each worker's command line.
type Config struct {
	// PageSize is the hugepage size in bytes. Zero means discover it from
	// /proc/meminfo before provisioning.
	PageSize int64 `yaml:"page_size"`
	// CapacityPages is the quota of the provisioned domain, in pages.
	CapacityPages int64 `yaml:"capacity_pages"`
	// MountBase is the directory under which the domain mountpoint is
	// created.
	MountBase string `yaml:"mount_base"`
	// WorkerTimeout bounds each isolated worker run. Zero waits forever,
	// matching the original harness.
	WorkerTimeout Duration `yaml:"worker_timeout"`
}

// Duration wraps time.Duration with human-readable YAML decoding ("30s").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return errors.Trace(err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return errors.Annotatef(err, "parsing duration %q", raw)
	}
	*d = Duration(parsed)
	return nil
}

// DefaultConfig returns the configuration the original regression test ran
// with: a single-page quota mounted under the system temp directory.
func DefaultConfig() *Config {
	return &Config{
		CapacityPages: 1,
		MountBase:     os.TempDir(),
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Annotatef(err, "parsing config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Annotatef(err, "config %s", path)
	}
	return cfg, nil
}

// Validate rejects configurations that cannot provision a domain.
func (c *Config) Validate() error {
	if c.PageSize < 0 {
		return errors.Errorf("page_size must not be negative, got %d", c.PageSize)
	}
	if c.CapacityPages <= 0 {
		return errors.Errorf("capacity_pages must be positive, got %d", c.CapacityPages)
	}
	if c.MountBase == "" {
		return errors.New("mount_base must not be empty")
	}
	if c.WorkerTimeout < 0 {
		return errors.Errorf("worker_timeout must not be negative, got %s", time.Duration(c.WorkerTimeout))
	}
	return nil
}
