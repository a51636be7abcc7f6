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

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yorkie-team/mdsync/internal/validation"
)

// Scenario is a scripted editing session of several clients sharing one
// document through an in-memory host.
type Scenario struct {
	Content string       `yaml:"content"`
	Clients []ClientSpec `yaml:"clients" validate:"required,min=1,dive"`
	Actions []Action     `yaml:"actions" validate:"dive"`
}

// ClientSpec declares a client of the scenario. A client without ID gets a
// random one.
type ClientSpec struct {
	Name string `yaml:"name" validate:"required"`
	ID   string `yaml:"id" validate:"omitempty,client_id"`
}

// Action is one step of the script. Exactly one of Edit, Select, Wait, Leave
// and Resync is set. Every action but Wait names its client.
type Action struct {
	Client string       `yaml:"client"`
	Edit   *EditAction  `yaml:"edit"`
	Select *RangeAction `yaml:"select"`
	Wait   string       `yaml:"wait" validate:"omitempty,duration"`
	Leave  bool         `yaml:"leave"`
	Resync bool         `yaml:"resync"`
}

// EditAction replaces [From, To) of the client's document with Text.
type EditAction struct {
	From int    `yaml:"from" validate:"gte=0"`
	To   int    `yaml:"to" validate:"gte=0,gtefield=From"`
	Text string `yaml:"text"`
}

// RangeAction moves the client's selection to the given anchor and head.
type RangeAction struct {
	Anchor int `yaml:"anchor" validate:"gte=0"`
	Head   int `yaml:"head" validate:"gte=0"`
}

var (
	errUnknownClient  = errors.New("unknown client")
	errAmbiguousStep  = errors.New("action must have exactly one of edit, select, wait, leave and resync")
	errDuplicatedName = errors.New("duplicated client name")

	errDuplicatedClient = errors.New("duplicated client")
)

// LoadScenario reads and validates the scenario file at path.
func LoadScenario(path string) (*Scenario, error) {
	bytes, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	sc := &Scenario{}
	if err := yaml.Unmarshal(bytes, sc); err != nil {
		return nil, fmt.Errorf("unmarshal scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	return sc, nil
}

// Validate checks that the scenario can be replayed.
func (sc *Scenario) Validate() error {
	if err := validation.ValidateStruct(sc); err != nil {
		return fmt.Errorf("validate scenario: %w", err)
	}

	names := make(map[string]bool, len(sc.Clients))
	for _, c := range sc.Clients {
		if names[c.Name] {
			return fmt.Errorf("%s: %w", c.Name, errDuplicatedName)
		}
		names[c.Name] = true
	}

	for i, a := range sc.Actions {
		if a.kinds() != 1 {
			return fmt.Errorf("action %d: %w", i, errAmbiguousStep)
		}
		if a.Wait == "" && !names[a.Client] {
			return fmt.Errorf("action %d: %q: %w", i, a.Client, errUnknownClient)
		}
	}

	return nil
}

// WaitDuration returns the duration of a wait action.
func (a Action) WaitDuration() time.Duration {
	d, err := time.ParseDuration(a.Wait)
	if err != nil {
		return 0
	}
	return d
}

func (a Action) kinds() int {
	count := 0
	if a.Edit != nil {
		count++
	}
	if a.Select != nil {
		count++
	}
	if a.Wait != "" {
		count++
	}
	if a.Leave {
		count++
	}
	if a.Resync {
		count++
	}
	return count
}
