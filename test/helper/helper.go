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

// Package helper provides helper functions for testing.
package helper

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yorkie-team/mdsync/pkg/document"
	"github.com/yorkie-team/mdsync/pkg/document/step"
)

// ParseState parses the given content into a document state or fails the test.
func ParseState(t testing.TB, content string) *document.State {
	t.Helper()

	state, err := document.Parse(content, 0)
	require.NoError(t, err)
	return state
}

// Sequencer is an in-memory central authority. It accepts a batch of steps
// only when the batch is based on its current version, and keeps the total
// order of accepted steps.
type Sequencer struct {
	mu        sync.Mutex
	doc       string
	steps     []step.Step
	clientIDs []string
}

// NewSequencer creates a new sequencer starting at the given content.
func NewSequencer(doc string) *Sequencer {
	return &Sequencer{doc: doc}
}

// Version returns the number of accepted steps.
func (s *Sequencer) Version() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.steps)
}

// Doc returns the document after all accepted steps.
func (s *Sequencer) Doc() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.doc
}

// Submit offers steps of clientID based on version. It returns false without
// error when the version is stale.
func (s *Sequencer) Submit(version int, steps []step.Step, clientID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if version != len(s.steps) {
		return false, nil
	}

	doc := s.doc
	for _, st := range steps {
		var err error
		if doc, err = st.Apply(doc); err != nil {
			return false, err
		}
	}

	s.doc = doc
	for _, st := range steps {
		s.steps = append(s.steps, st)
		s.clientIDs = append(s.clientIDs, clientID)
	}
	return true, nil
}

// Since returns the steps accepted after version, with their client IDs.
func (s *Sequencer) Since(version int) ([]step.Step, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if version >= len(s.steps) {
		return nil, nil
	}
	steps := append([]step.Step(nil), s.steps[version:]...)
	clientIDs := append([]string(nil), s.clientIDs[version:]...)
	return steps, clientIDs
}
