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

package session

import (
	"fmt"
	"time"

	"github.com/yorkie-team/mdsync/internal/validation"
	"github.com/yorkie-team/mdsync/pkg/document"
)

const (
	// DefaultDebounceInterval is the default period local changes are
	// collected for before they are announced.
	DefaultDebounceInterval = "500ms"

	// DefaultMaxStepHistory is the default number of applied steps a
	// document state keeps.
	DefaultMaxStepHistory = document.DefaultMaxStepHistory

	// DefaultStaleSelectionThreshold is the default number of consecutive
	// out-of-range selections of one remote client after which a warning is
	// logged.
	DefaultStaleSelectionThreshold = 10
)

// Config is the configuration for sessions.
type Config struct {
	// DebounceInterval is the period local changes are collected for before
	// they are announced.
	DebounceInterval string `yaml:"DebounceInterval" validate:"required,duration"`

	// MaxStepHistory is the number of applied steps a document state keeps.
	MaxStepHistory int `yaml:"MaxStepHistory" validate:"gte=1"`

	// StaleSelectionThreshold is the number of consecutive out-of-range
	// selections of one remote client after which a warning is logged.
	StaleSelectionThreshold int `yaml:"StaleSelectionThreshold" validate:"gte=1"`
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() *Config {
	return &Config{
		DebounceInterval:        DefaultDebounceInterval,
		MaxStepHistory:          DefaultMaxStepHistory,
		StaleSelectionThreshold: DefaultStaleSelectionThreshold,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("validate session config: %w", err)
	}
	return nil
}

// ParseDebounceInterval parses the debounce interval.
func (c *Config) ParseDebounceInterval() (time.Duration, error) {
	interval, err := time.ParseDuration(c.DebounceInterval)
	if err != nil {
		return 0, fmt.Errorf("parse debounce interval %s: %w", c.DebounceInterval, err)
	}

	return interval, nil
}
