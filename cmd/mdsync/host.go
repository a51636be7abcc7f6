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
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/yorkie-team/mdsync/pkg/document"
	"github.com/yorkie-team/mdsync/pkg/document/step"
	"github.com/yorkie-team/mdsync/pkg/session"
)

// host is the in-memory authority of a replay. It accepts an announcement
// only when it is based on the latest version and broadcasts accepted steps
// to every client, the author included.
type host struct {
	mu sync.Mutex

	out   io.Writer
	clock func() time.Duration

	doc     *document.State
	version int

	registry *session.Registry
	roster   *roster

	accepted int
	rejected int
}

func newHost(out io.Writer, clock func() time.Duration, doc *document.State) (*host, error) {
	r, err := newRoster()
	if err != nil {
		return nil, err
	}

	return &host{
		out:    out,
		clock:  clock,
		doc:    doc,
		roster: r,
	}, nil
}

// join creates the session of a new client and hands it the latest content
// together with its client ID.
func (h *host) join(name, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	handle, err := h.registry.Create("", 0)
	if err != nil {
		return fmt.Errorf("create session of %s: %w", name, err)
	}

	c := &client{Name: name, ID: id, Handle: handle}
	if err := h.roster.add(c); err != nil {
		h.registry.Destroy(handle)
		return err
	}

	h.registry.UpdateContent(handle, h.doc.Serialize(), h.version, id)
	h.logf(c, "joined as %s at version %d", id, h.version)
	return nil
}

// receive handles an event emitted by the session of handle.
func (h *host) receive(handle session.Handle, ev session.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.roster.byHandle(handle)
	if !ok || c.Left {
		return
	}

	if len(ev.Steps) == 0 {
		if ev.Selection == nil {
			return
		}
		h.logf(c, "selection %s", ev.Selection)
		for _, other := range h.roster.active() {
			if other.Handle != c.Handle {
				h.registry.SetSelection(other.Handle, *ev.Selection, c.ID)
			}
		}
		return
	}

	if ev.Version != h.version {
		h.rejected++
		h.logf(c, "%d steps based on version %d rejected, host is at %d", len(ev.Steps), ev.Version, h.version)
		return
	}

	steps, err := step.DecodeAll(ev.Steps)
	if err != nil {
		h.rejected++
		h.logf(c, "undecodable steps rejected: %v", err)
		return
	}

	next := h.doc
	for _, st := range steps {
		if next, err = next.ApplyStep(st); err != nil {
			h.rejected++
			h.logf(c, "steps rejected: %v", err)
			return
		}
	}

	h.doc = next
	h.version += len(steps)
	h.accepted++
	h.logf(c, "%d steps accepted, version %d", len(steps), h.version)

	for _, other := range h.roster.active() {
		h.registry.ReceiveSteps(other.Handle, ev.Steps, h.version, ev.Selection, c.ID)
	}
}

// leave destroys the session of the named client and removes its presence
// from the others.
func (h *host) leave(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.roster.byName(name)
	if !ok {
		return fmt.Errorf("%s: %w", name, errUnknownClient)
	}
	if c.Left {
		return nil
	}
	if err := h.roster.markLeft(c.Handle); err != nil {
		return err
	}
	h.registry.Destroy(c.Handle)
	h.logf(c, "left")

	for _, other := range h.roster.active() {
		h.registry.RemoveSelection(other.Handle, c.ID)
	}
	return nil
}

// resync replaces the document of the named client with the host's latest
// content.
func (h *host) resync(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.roster.byName(name)
	if !ok {
		return fmt.Errorf("%s: %w", name, errUnknownClient)
	}
	if c.Left {
		return nil
	}
	h.registry.UpdateContent(c.Handle, h.doc.Serialize(), h.version, c.ID)
	h.logf(c, "resynced at version %d", h.version)
	return nil
}

// report prints a line about c.
func (h *host) report(c *client, format string, args ...interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.logf(c, format, args...)
}

// converged returns true if every remaining client confirmed all its steps
// and holds the host's content at the host's version.
func (h *host) converged() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	content := h.doc.Serialize()
	for _, c := range h.roster.active() {
		s, ok := h.registry.Get(c.Handle)
		if !ok {
			return false
		}
		if version, _ := s.Version(); version != h.version || len(s.PendingSteps()) > 0 {
			return false
		}
		if got, _ := s.Content(); got != content {
			return false
		}
	}
	return true
}

type hostSnapshot struct {
	content  string
	version  int
	accepted int
	rejected int
}

func (h *host) snapshot() hostSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	return hostSnapshot{
		content:  h.doc.Serialize(),
		version:  h.version,
		accepted: h.accepted,
		rejected: h.rejected,
	}
}

func (h *host) logf(c *client, format string, args ...interface{}) {
	fmt.Fprintf(h.out, "[%8s] %-8s %s\n", h.clock().Truncate(time.Millisecond), c.Name, fmt.Sprintf(format, args...))
}
