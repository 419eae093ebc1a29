package app

import (
	"errors"
	"time"
)

// Config holds everything an App instance needs to run one job.
type Config struct {
	JobPath       string // yaml job request
	ModulesPath   string // hcl module manifests
	PipelinesPath string // hcl pipeline manifests
	ModelsPath    string // local model store root, optional
	ModuleBinDir  string // directory holding module executables, optional

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	Workers         int
	NodeTimeout     time.Duration
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.JobPath == "" {
		return nil, errors.New("JobPath is a required configuration field and cannot be empty")
	}
	if cfg.PipelinesPath == "" {
		return nil, errors.New("PipelinesPath is a required configuration field and cannot be empty")
	}
	if cfg.ModulesPath == "" {
		return nil, errors.New("ModulesPath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
