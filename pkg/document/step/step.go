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

// Package step provides the atomic edits of a text document and the position
// mappings that let edits made against one version be carried onto another.
// All positions are offsets in runes.
package step

import (
	"fmt"
	"unicode/utf8"

	"github.com/yorkie-team/mdsync/pkg/errors"
)

// TypeReplace is the wire type of ReplaceStep.
const TypeReplace = "replace"

// Step is an atomic, invertible and mappable edit of a document.
type Step interface {
	// Apply applies this step to the given document.
	Apply(doc string) (string, error)

	// Invert returns a step that undoes this step, given the document as it
	// was before this step was applied.
	Invert(doc string) Step

	// Map maps this step through the given mapping. It returns nil when the
	// step's range was deleted entirely.
	Map(m Mappable) Step

	// StepMap returns the position changes this step makes.
	StepMap() *StepMap

	// Type returns the wire type of this step.
	Type() string
}

// ReplaceStep replaces the runes in [From, To) with Text.
type ReplaceStep struct {
	From int
	To   int
	Text string
}

// NewReplaceStep creates a new instance of ReplaceStep.
func NewReplaceStep(from, to int, text string) *ReplaceStep {
	return &ReplaceStep{From: from, To: to, Text: text}
}

// Insert creates a step that inserts text at pos.
func Insert(pos int, text string) *ReplaceStep {
	return NewReplaceStep(pos, pos, text)
}

// Delete creates a step that removes the runes in [from, to).
func Delete(from, to int) *ReplaceStep {
	return NewReplaceStep(from, to, "")
}

// Apply applies this step to the given document.
func (s *ReplaceStep) Apply(doc string) (string, error) {
	runes := []rune(doc)
	if s.From < 0 || s.To < s.From || s.To > len(runes) {
		return "", errors.OutOfRange(fmt.Sprintf(
			"replace [%d, %d) out of document of length %d", s.From, s.To, len(runes),
		))
	}

	result := make([]rune, 0, len(runes)-(s.To-s.From)+utf8.RuneCountInString(s.Text))
	result = append(result, runes[:s.From]...)
	result = append(result, []rune(s.Text)...)
	result = append(result, runes[s.To:]...)
	return string(result), nil
}

// Invert returns a step that restores the replaced runes of doc.
func (s *ReplaceStep) Invert(doc string) Step {
	runes := []rune(doc)
	from, to := clamp(s.From, len(runes)), clamp(s.To, len(runes))
	if to < from {
		to = from
	}
	return NewReplaceStep(from, from+utf8.RuneCountInString(s.Text), string(runes[from:to]))
}

// Map maps this step through the given mapping. The start associates
// forward and the end backward, so that text inserted at the boundaries by
// the mapped changes stays outside the replaced range.
func (s *ReplaceStep) Map(m Mappable) Step {
	from := m.MapResult(s.From, 1)
	to := m.MapResult(s.To, -1)
	if from.DeletedAcross() && to.DeletedAcross() {
		return nil
	}

	end := to.Pos
	if end < from.Pos {
		end = from.Pos
	}
	return NewReplaceStep(from.Pos, end, s.Text)
}

// StepMap returns the position changes this step makes.
func (s *ReplaceStep) StepMap() *StepMap {
	return NewStepMap(Range{
		Start:   s.From,
		OldSize: s.To - s.From,
		NewSize: utf8.RuneCountInString(s.Text),
	})
}

// Type returns the wire type of this step.
func (s *ReplaceStep) Type() string {
	return TypeReplace
}

// String returns a string representation of this step.
func (s *ReplaceStep) String() string {
	return fmt.Sprintf("replace(%d,%d,%q)", s.From, s.To, s.Text)
}

func clamp(pos, length int) int {
	if pos < 0 {
		return 0
	}
	if pos > length {
		return length
	}
	return pos
}
