package main

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// config holds the run-time settings an operator can override either on
// the command line or, for settings exercised less often, in a YAML file
// passed via -config. A value set in the file overrides the matching
// command-line flag.
type config struct {
	Limit   int    `yaml:"limit"`
	Timeout string `yaml:"timeout"`
}

func loadConfig(path string) (config, error) {
	var c config
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, err
	}
	return c, nil
}

func (c config) timeout() time.Duration {
	if c.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}
