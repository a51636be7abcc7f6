/*
 * Copyright 2026 The Yorkie Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config loads the mdsync configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yorkie-team/mdsync/internal/logging"
	"github.com/yorkie-team/mdsync/pkg/errors"
	"github.com/yorkie-team/mdsync/pkg/session"
)

const (
	// DefaultLogLevel is the log level used when none is configured.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the log format used when none is configured.
	DefaultLogFormat = "console"
)

var (
	// ErrInvalidLogLevel is returned when the log level is not supported.
	ErrInvalidLogLevel = errors.InvalidArgument(
		"log level must be one of debug, info, warn, error, panic and fatal",
	).WithCode("ErrInvalidLogLevel")

	// ErrInvalidLogFormat is returned when the log format is not supported.
	ErrInvalidLogFormat = errors.InvalidArgument(
		"log format must be console or json",
	).WithCode("ErrInvalidLogFormat")
)

// Config is the configuration of mdsync.
type Config struct {
	Session *session.Config `yaml:"Session"`
	Logging *LoggingConfig  `yaml:"Logging"`
}

// LoggingConfig is the configuration for logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error, panic and fatal.
	Level string `yaml:"Level"`

	// Format is either console or json.
	Format string `yaml:"Format"`
}

// Validate validates the logging configuration.
func (c *LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error", "panic", "fatal":
	default:
		return fmt.Errorf("%q: %w", c.Level, ErrInvalidLogLevel)
	}

	switch c.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%q: %w", c.Format, ErrInvalidLogFormat)
	}

	return nil
}

// NewConfig returns a Config struct that contains reasonable defaults.
func NewConfig() *Config {
	return &Config{
		Session: session.DefaultConfig(),
		Logging: &LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// NewConfigFromFile returns a Config struct for the given conf file.
func NewConfigFromFile(path string) (*Config, error) {
	conf := &Config{}
	bytes, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err = yaml.Unmarshal(bytes, conf); err != nil {
		return nil, fmt.Errorf("unmarshal config file: %w", err)
	}

	conf.ensureDefaultValue()
	return conf, nil
}

// Validate returns an error if the provided Config is invalidated.
func (c *Config) Validate() error {
	if err := c.Session.Validate(); err != nil {
		return err
	}

	if err := c.Logging.Validate(); err != nil {
		return err
	}

	return nil
}

// Apply sets the configured log level and format.
func (c *Config) Apply() error {
	if err := logging.SetLogLevel(c.Logging.Level); err != nil {
		return err
	}
	return logging.SetFormat(c.Logging.Format)
}

// ensureDefaultValue sets the value of the option to which the default value
// should be applied when the user does not input it.
func (c *Config) ensureDefaultValue() {
	if c.Session == nil {
		c.Session = session.DefaultConfig()
	}
	if c.Session.DebounceInterval == "" {
		c.Session.DebounceInterval = session.DefaultDebounceInterval
	}
	if c.Session.MaxStepHistory == 0 {
		c.Session.MaxStepHistory = session.DefaultMaxStepHistory
	}
	if c.Session.StaleSelectionThreshold == 0 {
		c.Session.StaleSelectionThreshold = session.DefaultStaleSelectionThreshold
	}

	if c.Logging == nil {
		c.Logging = &LoggingConfig{}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}
