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
	"time"

	"github.com/yorkie-team/mdsync/internal/logging"
	"github.com/yorkie-team/mdsync/internal/metrics"
	"github.com/yorkie-team/mdsync/pkg/announcer"
)

// Option configures Options.
type Option func(*Options)

// Options configures how we set up the session.
type Options struct {
	// ClientID is the ID of the local client. Steps the host echoes back with
	// this ID confirm local steps. When empty, it is taken from the first
	// content update that carries one.
	ClientID string

	// Listener receives the events of the session.
	Listener Listener

	// Scheduler schedules the announcements of local changes.
	Scheduler announcer.Scheduler

	// DebounceInterval is the period local changes are collected for before
	// they are announced.
	DebounceInterval time.Duration

	// MaxStepHistory is the number of applied steps a document state keeps.
	MaxStepHistory int

	// StaleSelectionThreshold is the number of consecutive out-of-range
	// selections of one remote client after which a warning is logged.
	StaleSelectionThreshold int

	// Logger is the Logger of the session.
	Logger logging.Logger

	// Metrics records the activity of the session. It may be nil.
	Metrics *metrics.Metrics
}

// WithClientID configures the ID of the local client.
func WithClientID(clientID string) Option {
	return func(o *Options) { o.ClientID = clientID }
}

// WithListener configures the listener of the session.
func WithListener(listener Listener) Option {
	return func(o *Options) { o.Listener = listener }
}

// WithScheduler configures the scheduler of announcements.
func WithScheduler(scheduler announcer.Scheduler) Option {
	return func(o *Options) { o.Scheduler = scheduler }
}

// WithDebounceInterval configures the debounce interval of announcements.
func WithDebounceInterval(interval time.Duration) Option {
	return func(o *Options) { o.DebounceInterval = interval }
}

// WithMaxStepHistory configures the number of applied steps a document
// state keeps.
func WithMaxStepHistory(n int) Option {
	return func(o *Options) { o.MaxStepHistory = n }
}

// WithStaleSelectionThreshold configures the number of consecutive
// out-of-range selections after which a warning is logged.
func WithStaleSelectionThreshold(threshold int) Option {
	return func(o *Options) { o.StaleSelectionThreshold = threshold }
}

// WithLogger configures the Logger of the session.
func WithLogger(logger logging.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithMetrics configures the metrics of the session.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Options) { o.Metrics = m }
}

// WithConfig applies the given validated configuration.
func WithConfig(conf *Config) Option {
	return func(o *Options) {
		if interval, err := conf.ParseDebounceInterval(); err == nil {
			o.DebounceInterval = interval
		}
		o.MaxStepHistory = conf.MaxStepHistory
		o.StaleSelectionThreshold = conf.StaleSelectionThreshold
	}
}
