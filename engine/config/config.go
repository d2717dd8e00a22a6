// Package config loads the runner's runtime configuration from a YAML
// document (§6.4).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/skyrocket-qy/behaviortree/engine/bt"
)

// RemoveNodePolicy mirrors bt.RemoveNodePolicy as a YAML-friendly string
// enum, resolving the "cascade or reject" open question as an explicit,
// host-configurable mode defaulting to the safer Reject.
type RemoveNodePolicy string

const (
	RemoveNodePolicyReject  RemoveNodePolicy = "reject"
	RemoveNodePolicyCascade RemoveNodePolicy = "cascade"
)

// ToBt converts the YAML enum to the bt package's policy type.
func (p RemoveNodePolicy) ToBt() bt.RemoveNodePolicy {
	if p == RemoveNodePolicyCascade {
		return bt.RemoveNodePolicyCascade
	}

	return bt.RemoveNodePolicyReject
}

// Config is the runner's project-level configuration (§6.4).
type Config struct {
	ProjectDir       string           `yaml:"project_dir"`
	TickRateHz       float64          `yaml:"tick_rate_hz"`
	ListenAddr       string           `yaml:"listen_addr"`
	RemoveNodePolicy RemoveNodePolicy `yaml:"remove_node_policy"`
	ParallelPolicies []string         `yaml:"parallel_policies"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ProjectDir:       ".",
		TickRateHz:       60,
		ListenAddr:       "127.0.0.1:4040",
		RemoveNodePolicy: RemoveNodePolicyReject,
	}
}

// Load reads and parses a YAML config file at path, filling in defaults
// for any field the file omits.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.RemoveNodePolicy == "" {
		cfg.RemoveNodePolicy = RemoveNodePolicyReject
	}

	return cfg, nil
}
