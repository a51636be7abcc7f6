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

// Package announcer provides the debounced announcement of local changes.
// The first local change of a burst schedules one announcement a fixed period
// later. Changes made before it fires do not postpone it; they only refresh
// the payload, so the announcement carries the freshest pending steps.
package announcer

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/yorkie-team/mdsync/pkg/collab"
	"github.com/yorkie-team/mdsync/pkg/document/selection"
	"github.com/yorkie-team/mdsync/pkg/document/step"
)

// DefaultPeriod is the default debounce period of announcements.
const DefaultPeriod = 500 * time.Millisecond

// Timer is a scheduled callback that can be stopped.
type Timer interface {
	// Stop prevents the callback from running. It returns false if the
	// callback already ran or was stopped.
	Stop() bool
}

// Scheduler schedules callbacks after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemScheduler is a Scheduler backed by the runtime timers.
type SystemScheduler struct{}

// AfterFunc runs f in its own goroutine after d.
func (SystemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Source is where the announcer reads the state to announce from.
type Source interface {
	Sendable() *collab.Sendable
	Version() int
	Selection() selection.Selection
}

// Payload is an announcement of local changes.
type Payload struct {
	Steps     []json.RawMessage    `json:"steps"`
	Selection *selection.Selection `json:"selection"`
	Version   int                  `json:"version"`
}

// Announcer debounces local changes into announcements.
type Announcer struct {
	source    Source
	scheduler Scheduler
	period    time.Duration
	emit      func(Payload)

	mu         sync.Mutex
	timer      Timer
	pending    *Payload
	selection  bool
	generation uint64
	closed     bool
}

// New creates a new instance of Announcer. emit is called without any lock
// held, on the goroutine the scheduler runs callbacks on.
func New(source Source, scheduler Scheduler, period time.Duration, emit func(Payload)) *Announcer {
	if scheduler == nil {
		scheduler = SystemScheduler{}
	}
	if period <= 0 {
		period = DefaultPeriod
	}

	return &Announcer{
		source:    source,
		scheduler: scheduler,
		period:    period,
		emit:      emit,
	}
}

// NotifyLocalChange captures the current sendable steps, version and, if the
// selection changed within this burst, the selection. The first call of a
// burst schedules the announcement; later calls only replace the payload.
func (a *Announcer) NotifyLocalChange(selectionChanged bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}

	includeSelection := selectionChanged || a.selection
	payload := Payload{Steps: []json.RawMessage{}, Version: a.source.Version()}
	if sendable := a.source.Sendable(); sendable != nil {
		steps, err := step.EncodeAll(sendable.Steps)
		if err != nil {
			return fmt.Errorf("capture pending steps: %w", err)
		}
		payload.Steps = steps
		payload.Version = sendable.Version
	} else if !includeSelection {
		return nil
	}

	if includeSelection {
		sel := a.source.Selection()
		payload.Selection = &sel
	}

	a.selection = includeSelection
	a.pending = &payload
	if a.timer == nil {
		a.generation++
		generation := a.generation
		a.timer = a.scheduler.AfterFunc(a.period, func() {
			a.flush(generation)
		})
	}
	return nil
}

// Outstanding returns the payload waiting to be announced, if any.
func (a *Announcer) Outstanding() (Payload, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pending == nil {
		return Payload{}, false
	}
	return *a.pending, true
}

// Discard drops the outstanding announcement without emitting it. The
// announcer stays usable.
func (a *Announcer) Discard() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.reset()
}

// Cancel drops the outstanding announcement and makes every later call a
// no-op. A timer callback that fires after Cancel does not emit.
func (a *Announcer) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.reset()
	a.closed = true
}

func (a *Announcer) reset() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.pending = nil
	a.selection = false
	a.generation++
}

func (a *Announcer) flush(generation uint64) {
	a.mu.Lock()
	if a.closed || generation != a.generation || a.pending == nil {
		a.mu.Unlock()
		return
	}

	payload := *a.pending
	a.pending = nil
	a.selection = false
	a.timer = nil
	a.mu.Unlock()

	a.emit(payload)
}
