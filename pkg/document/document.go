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

// Package document provides the immutable state of a collaboratively edited
// text document: its content, the local selection and the bounded history of
// applied steps.
package document

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yorkie-team/mdsync/pkg/document/selection"
	"github.com/yorkie-team/mdsync/pkg/document/step"
	"github.com/yorkie-team/mdsync/pkg/errors"
)

// DefaultMaxStepHistory is the default number of applied steps a state keeps.
const DefaultMaxStepHistory = 10000

var (
	// ErrMalformedContent is returned when the content cannot be parsed.
	ErrMalformedContent = errors.InvalidArgument("malformed content").WithCode("ErrMalformedContent")

	// ErrTransformMismatch is returned when a transform did not start at the
	// content of the state it is applied to.
	ErrTransformMismatch = errors.Internal("transform does not start at this state").WithCode("ErrTransformMismatch")
)

// State is an immutable snapshot of a document. Every change produces a new
// State; previous states stay valid.
type State struct {
	content    string
	length     int
	selection  selection.Selection
	history    []step.Step
	maxHistory int
}

// Parse creates a state from the given serialized content. Line endings are
// normalized to "\n". maxHistory bounds the number of applied steps the state
// keeps; zero or less means DefaultMaxStepHistory.
func Parse(content string, maxHistory int) (*State, error) {
	if !utf8.ValidString(content) {
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrMalformedContent)
	}
	if maxHistory <= 0 {
		maxHistory = DefaultMaxStepHistory
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	return &State{
		content:    content,
		length:     utf8.RuneCountInString(content),
		selection:  selection.Cursor(0),
		maxHistory: maxHistory,
	}, nil
}

// Serialize returns the content of this state.
func (s *State) Serialize() string {
	return s.content
}

// Len returns the length of the content in runes.
func (s *State) Len() int {
	return s.length
}

// Selection returns the local selection of this state.
func (s *State) Selection() selection.Selection {
	return s.selection
}

// History returns the steps applied to reach this state, oldest first.
func (s *State) History() []step.Step {
	history := make([]step.Step, len(s.history))
	copy(history, s.history)
	return history
}

// Transform starts a transform at the content of this state.
func (s *State) Transform() *step.Transform {
	return step.NewTransform(s.content)
}

// Apply returns the state reached by the given transform. The selection is
// mapped through the transform, unless sel is given, in which case sel must
// fit into the new content.
func (s *State) Apply(tr *step.Transform, sel *selection.Selection) (*State, error) {
	if tr.Before() != s.content {
		return nil, ErrTransformMismatch
	}

	content := tr.Doc()
	length := utf8.RuneCountInString(content)

	next := s.selection.Map(tr.Mapping())
	if sel != nil {
		if err := sel.Validate(length); err != nil {
			return nil, err
		}
		next = *sel
	}

	return &State{
		content:    content,
		length:     length,
		selection:  next,
		history:    s.appendHistory(tr.Steps()),
		maxHistory: s.maxHistory,
	}, nil
}

// ApplyStep returns the state reached by applying the given step.
func (s *State) ApplyStep(st step.Step) (*State, error) {
	tr := s.Transform()
	if err := tr.Step(st); err != nil {
		return nil, err
	}
	return s.Apply(tr, nil)
}

// WithSelection returns a state with the given local selection.
func (s *State) WithSelection(sel selection.Selection) (*State, error) {
	if err := sel.Validate(s.length); err != nil {
		return nil, err
	}

	next := *s
	next.selection = sel
	return &next, nil
}

func (s *State) appendHistory(steps []step.Step) []step.Step {
	if len(steps) == 0 {
		return s.history
	}

	total := len(s.history) + len(steps)
	drop := 0
	if total > s.maxHistory {
		drop = total - s.maxHistory
	}

	history := make([]step.Step, 0, total-drop)
	for i := drop; i < total; i++ {
		if i < len(s.history) {
			history = append(history, s.history[i])
		} else {
			history = append(history, steps[i-len(s.history)])
		}
	}
	return history
}
