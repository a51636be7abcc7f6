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

	"github.com/rs/xid"

	"github.com/yorkie-team/mdsync/internal/logging"
	"github.com/yorkie-team/mdsync/pkg/cmap"
	"github.com/yorkie-team/mdsync/pkg/document/selection"
)

// Handle identifies a session of a Registry.
type Handle string

// RegistryListener receives the events of all sessions of a registry.
type RegistryListener func(Handle, Event)

// Registry holds the sessions of a host by handle. Operations on unknown or
// destroyed handles are inert.
type Registry struct {
	sessions *cmap.Map[Handle, *Session]
	listener RegistryListener
	options  []Option
	logger   logging.Logger
}

// NewRegistry creates a registry whose sessions report to listener and are
// created with the given default options.
func NewRegistry(listener RegistryListener, opts ...Option) *Registry {
	return &Registry{
		sessions: cmap.New[Handle, *Session](),
		listener: listener,
		options:  opts,
		logger:   logging.New("registry"),
	}
}

// Create creates an active session over the given content and version.
func (r *Registry) Create(content string, version int, opts ...Option) (Handle, error) {
	handle := Handle(xid.New().String())

	options := make([]Option, 0, len(r.options)+len(opts)+1)
	options = append(options, r.options...)
	options = append(options, opts...)
	if r.listener != nil {
		listener := r.listener
		options = append(options, WithListener(func(ev Event) {
			listener(handle, ev)
		}))
	}

	s, err := New(content, version, options...)
	if err != nil {
		return "", err
	}
	r.sessions.SetIfAbsent(handle, s)

	r.logger.Debugw("create session", "handle", handle, "version", version)
	return handle, nil
}

// Get returns the session of the given handle.
func (r *Registry) Get(handle Handle) (*Session, bool) {
	return r.sessions.Get(handle)
}

// Destroy destroys the session of the given handle and forgets it.
func (r *Registry) Destroy(handle Handle) {
	if s, ok := r.sessions.Pop(handle); ok {
		s.Destroy()
	}
}

// GetContent returns the serialized document of the session.
func (r *Registry) GetContent(handle Handle) (string, bool) {
	s, ok := r.lookup(handle, "get content")
	if !ok {
		return "", false
	}
	return s.Content()
}

// GetSelection returns the local selection of the session.
func (r *Registry) GetSelection(handle Handle) (selection.Selection, bool) {
	s, ok := r.lookup(handle, "get selection")
	if !ok {
		return selection.Selection{}, false
	}
	return s.Selection()
}

// UpdateContent replaces the document of the session.
func (r *Registry) UpdateContent(handle Handle, content string, version int, clientID string) {
	if s, ok := r.lookup(handle, "update content"); ok {
		s.UpdateContent(content, version, clientID)
	}
}

// ReceiveSteps integrates remote steps into the session.
func (r *Registry) ReceiveSteps(
	handle Handle,
	steps []json.RawMessage,
	version int,
	sel *selection.Selection,
	clientID string,
) {
	if s, ok := r.lookup(handle, "receive steps"); ok {
		s.ReceiveSteps(steps, version, sel, clientID)
	}
}

// SetSelection shows the selection of a remote client in the session.
func (r *Registry) SetSelection(handle Handle, sel selection.Selection, clientID string) {
	if s, ok := r.lookup(handle, "set selection"); ok {
		s.SetSelection(sel, clientID)
	}
}

// RemoveSelection hides the presence of a remote client in the session.
func (r *Registry) RemoveSelection(handle Handle, clientID string) {
	if s, ok := r.lookup(handle, "remove selection"); ok {
		s.RemoveSelection(clientID)
	}
}

// Len returns the number of sessions.
func (r *Registry) Len() int {
	return r.sessions.Len()
}

// Close destroys every session.
func (r *Registry) Close() {
	for _, s := range r.sessions.Drain() {
		s.Destroy()
	}
}

func (r *Registry) lookup(handle Handle, op string) (*Session, bool) {
	s, ok := r.sessions.Get(handle)
	if !ok {
		r.logger.Debugw("ignore operation on unknown session", "op", op, "handle", handle)
	}
	return s, ok
}
