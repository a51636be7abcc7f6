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

// Package selection provides the selection range of a text document.
package selection

import (
	"encoding/json"
	"fmt"

	"github.com/yorkie-team/mdsync/pkg/document/step"
	"github.com/yorkie-team/mdsync/pkg/errors"
)

var (
	// ErrMalformedSelection is returned when a selection payload cannot be
	// decoded.
	ErrMalformedSelection = errors.InvalidArgument("malformed selection").WithCode("ErrMalformedSelection")

	// ErrSelectionOutOfRange is returned when a selection does not fit into
	// the document it is applied to.
	ErrSelectionOutOfRange = errors.OutOfRange("selection out of range").WithCode("ErrSelectionOutOfRange")
)

// Selection is a range of the document in runes, with From <= To. An empty
// selection is a cursor.
type Selection struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// New creates a selection between the two given positions in either order.
func New(anchor, head int) Selection {
	if head < anchor {
		anchor, head = head, anchor
	}
	return Selection{From: anchor, To: head}
}

// Cursor creates an empty selection at pos.
func Cursor(pos int) Selection {
	return Selection{From: pos, To: pos}
}

// Empty returns whether this selection is a cursor.
func (s Selection) Empty() bool {
	return s.From == s.To
}

// Validate checks that this selection fits into a document of docLen runes.
func (s Selection) Validate(docLen int) error {
	if s.From < 0 || s.To < s.From || s.To > docLen {
		return fmt.Errorf("%w: [%d, %d) in document of length %d", ErrSelectionOutOfRange, s.From, s.To, docLen)
	}
	return nil
}

// Map maps this selection through the given mapping.
func (s Selection) Map(m step.Mappable) Selection {
	return New(m.Map(s.From, 1), m.Map(s.To, 1))
}

// String returns a string representation of this selection.
func (s Selection) String() string {
	if s.Empty() {
		return fmt.Sprintf("cursor(%d)", s.From)
	}
	return fmt.Sprintf("[%d, %d)", s.From, s.To)
}

type selectionJSON struct {
	From   *int `json:"from"`
	To     *int `json:"to"`
	Anchor *int `json:"anchor"`
	Head   *int `json:"head"`
}

// UnmarshalJSON decodes a selection given either as {from, to} or as the
// {anchor, head} pair editors report.
func (s *Selection) UnmarshalJSON(data []byte) error {
	var v selectionJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedSelection, err.Error())
	}

	switch {
	case v.From != nil && v.To != nil:
		*s = New(*v.From, *v.To)
	case v.Anchor != nil && v.Head != nil:
		*s = New(*v.Anchor, *v.Head)
	default:
		return fmt.Errorf("%w: %s", ErrMalformedSelection, string(data))
	}
	return nil
}

// Decode decodes a selection and validates it against a document of docLen
// runes.
func Decode(data []byte, docLen int) (Selection, error) {
	var s Selection
	if err := json.Unmarshal(data, &s); err != nil {
		var statusErr errors.StatusError
		if errors.As(err, &statusErr) {
			return Selection{}, err
		}
		return Selection{}, fmt.Errorf("%w: %s", ErrMalformedSelection, err.Error())
	}
	if err := s.Validate(docLen); err != nil {
		return Selection{}, err
	}
	return s, nil
}
