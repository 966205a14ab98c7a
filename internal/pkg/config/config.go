// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package config loads the daemon configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the daemon options. The privilege tables themselves are
// compiled in and not configurable.
type Config struct {
	// User is the account to switch to after acquiring privileges. A
	// configured account is required: failing to switch to it is fatal.
	// Empty means best effort against the compiled-in default.
	User string `yaml:"user"`

	// LogLevel is the minimum level logged: debug, info, warn or error.
	LogLevel string `yaml:"logLevel"`

	// KernelModules controls whether the daemon attempts to install the
	// kernel modules it depends on.
	KernelModules bool `yaml:"kernelModules"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		LogLevel:      "info",
		KernelModules: true,
	}
}

// Load reads the configuration file at path, applying it over the defaults.
// A missing file is not an error: the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	contents, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}

		return nil, fmt.Errorf("error reading config file %q: %w", path, err)
	}

	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file %q: %w", path, err)
	}

	return cfg, nil
}
