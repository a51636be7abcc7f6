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
	"encoding/json"

	"github.com/yorkie-team/mdsync/pkg/document/selection"
)

// EventType represents the type of the event emitted by a session.
type EventType string

const (
	// DocumentChanged is emitted when local changes are announced.
	DocumentChanged EventType = "document-changed"
)

// Event is what a session emits to its host.
type Event struct {
	Type      EventType            `json:"type"`
	Steps     []json.RawMessage    `json:"steps"`
	Selection *selection.Selection `json:"selection"`
	Version   int                  `json:"version"`
}

// Listener receives the events of a session. It is called without any lock
// of the session held, possibly on another goroutine.
type Listener func(Event)
