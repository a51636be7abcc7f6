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

// Package presence provides the overlay of remote collaborators' cursors
// and selections on top of the local document. The overlay is not safe for
// concurrent use; the owning session serializes access.
package presence

import (
	"sort"

	"github.com/yorkie-team/mdsync/pkg/document/selection"
	"github.com/yorkie-team/mdsync/pkg/document/step"
)

// Kind is the kind of a decoration.
type Kind string

const (
	// KindCursor is the caret of a remote client.
	KindCursor Kind = "cursor"

	// KindSelection is the highlighted range of a remote client.
	KindSelection Kind = "selection"
)

// Decoration is a remote client's cursor or selection. Decorations are
// values; a decoration that moves is replaced by one with a new ID.
type Decoration struct {
	ID       uint64
	ClientID string
	Kind     Kind
	From     int
	To       int
}

type decorationKey struct {
	clientID string
	kind     Kind
}

// Overlay holds at most one cursor and one selection decoration per remote
// client, never for the local client.
type Overlay struct {
	self        string
	decorations map[decorationKey]Decoration
	lastID      uint64
}

// NewOverlay creates an empty overlay for the local client self.
func NewOverlay(self string) *Overlay {
	return &Overlay{
		self:        self,
		decorations: make(map[decorationKey]Decoration),
	}
}

// Self returns the local client ID.
func (o *Overlay) Self() string {
	return o.self
}

// SetPresence replaces the decorations of clientID with the given
// selection: a cursor at its start and, unless it is empty, a selection
// over its range. Presence of the local client and of an empty client ID is
// ignored. A selection that does not fit into a document of docLen runes is
// rejected and leaves the overlay unchanged.
func (o *Overlay) SetPresence(clientID string, sel selection.Selection, docLen int) error {
	if clientID == "" || clientID == o.self {
		return nil
	}
	if err := sel.Validate(docLen); err != nil {
		return err
	}

	o.put(clientID, KindCursor, sel.From, sel.From)
	if sel.Empty() {
		delete(o.decorations, decorationKey{clientID: clientID, kind: KindSelection})
	} else {
		o.put(clientID, KindSelection, sel.From, sel.To)
	}
	return nil
}

// RemovePresence removes all decorations of clientID. It returns whether
// there was any.
func (o *Overlay) RemovePresence(clientID string) bool {
	removed := false
	for _, kind := range []Kind{KindCursor, KindSelection} {
		k := decorationKey{clientID: clientID, kind: kind}
		if _, ok := o.decorations[k]; ok {
			delete(o.decorations, k)
			removed = true
		}
	}
	return removed
}

// Map carries every decoration through a document change. A cursor
// associates forward and is dropped only when a deletion spans across it. A
// selection keeps text inserted at its edges outside and is dropped when it
// collapses.
func (o *Overlay) Map(m step.Mappable, docLen int) {
	for k, d := range o.decorations {
		switch d.Kind {
		case KindCursor:
			result := m.MapResult(d.From, 1)
			if result.DeletedAcross() || result.Pos < 0 || result.Pos > docLen {
				delete(o.decorations, k)
				continue
			}
			if result.Pos != d.From {
				o.put(d.ClientID, d.Kind, result.Pos, result.Pos)
			}
		case KindSelection:
			from, to := m.Map(d.From, 1), m.Map(d.To, -1)
			if from >= to || from < 0 || to > docLen {
				delete(o.decorations, k)
				continue
			}
			if from != d.From || to != d.To {
				o.put(d.ClientID, d.Kind, from, to)
			}
		}
	}
}

// Find returns the decoration of the given kind of clientID.
func (o *Overlay) Find(clientID string, kind Kind) (Decoration, bool) {
	d, ok := o.decorations[decorationKey{clientID: clientID, kind: kind}]
	return d, ok
}

// Decorations returns all decorations ordered by position.
func (o *Overlay) Decorations() []Decoration {
	decorations := make([]Decoration, 0, len(o.decorations))
	for _, d := range o.decorations {
		decorations = append(decorations, d)
	}
	sort.Slice(decorations, func(i, j int) bool {
		a, b := decorations[i], decorations[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		if a.ClientID != b.ClientID {
			return a.ClientID < b.ClientID
		}
		return a.Kind < b.Kind
	})
	return decorations
}

// Clients returns the IDs of clients with any decoration, sorted.
func (o *Overlay) Clients() []string {
	seen := make(map[string]bool)
	var clients []string
	for k := range o.decorations {
		if !seen[k.clientID] {
			seen[k.clientID] = true
			clients = append(clients, k.clientID)
		}
	}
	sort.Strings(clients)
	return clients
}

// Len returns the number of decorations.
func (o *Overlay) Len() int {
	return len(o.decorations)
}

func (o *Overlay) put(clientID string, kind Kind, from, to int) {
	o.lastID++
	o.decorations[decorationKey{clientID: clientID, kind: kind}] = Decoration{
		ID:       o.lastID,
		ClientID: clientID,
		Kind:     kind,
		From:     from,
		To:       to,
	}
}
