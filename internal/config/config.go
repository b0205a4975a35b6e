package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileNames are the config files Load looks for, in order.
var FileNames = []string{"inkdirector.yml", "inkdirector.yaml"}

// ProjectConfig holds project-level settings loaded from inkdirector.yml.
type ProjectConfig struct {
	SourcePhase string `yaml:"sourcePhase,omitempty"`
	DestPhase   string `yaml:"destPhase,omitempty"`

	// Locks are pointers so an absent key keeps the planner default.
	PoseLock  *bool `yaml:"poseLock,omitempty"`
	StyleLock *bool `yaml:"styleLock,omitempty"`

	LogMode  string        `yaml:"logMode,omitempty"`
	Workers  int           `yaml:"workers,omitempty"`
	CacheTTL time.Duration `yaml:"cacheTTL,omitempty"`

	// Nodes overrides workflow node ids by slot name, e.g. ksampler2: "60".
	Nodes map[string]string `yaml:"nodes,omitempty"`
}

// Load attempts to read inkdirector.yml or inkdirector.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", name, err)
		}
		if cfg.Workers < 0 {
			return nil, fmt.Errorf("config: %s: workers must not be negative", name)
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}
