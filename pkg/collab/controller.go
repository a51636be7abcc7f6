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

// Package collab provides the sync controller of the collaborative editing
// core. It tracks the version confirmed by the host, keeps the local steps
// the host has not confirmed yet and rebases them over remote steps.
package collab

import (
	"fmt"

	"github.com/yorkie-team/mdsync/pkg/document"
	"github.com/yorkie-team/mdsync/pkg/document/selection"
	"github.com/yorkie-team/mdsync/pkg/document/step"
	"github.com/yorkie-team/mdsync/pkg/errors"
)

var (
	// ErrReconciliation is returned when a remote batch does not start at the
	// confirmed version. The controller is left unchanged; only a full resync
	// recovers from it.
	ErrReconciliation = errors.Aborted("reconciliation failed").WithCode("ErrReconciliation")

	// ErrStepRejected is returned when a remote step does not apply to the
	// confirmed document.
	ErrStepRejected = errors.Aborted("remote step does not apply").WithCode("ErrStepRejected")

	// ErrInvalidConfirm is returned when more steps are confirmed than pending.
	ErrInvalidConfirm = errors.InvalidArgument("confirm exceeds pending steps").WithCode("ErrInvalidConfirm")

	// ErrClientIDsMismatch is returned when a remote batch does not carry one
	// client ID per step.
	ErrClientIDsMismatch = errors.InvalidArgument("client IDs do not match steps").WithCode("ErrClientIDsMismatch")
)

// Sendable is the part of the controller state the host should receive:
// all pending local steps and the version they are based on.
type Sendable struct {
	Version int
	Steps   []step.Step
}

// Update is the result of a change of the controller state.
type Update struct {
	// State is the document state after the change.
	State *document.State

	// Mapping maps positions of the previous state onto State.
	Mapping *step.Mapping

	// Confirmed is the number of pending local steps the change confirmed.
	Confirmed int
}

// Controller reconciles local edits with remote steps.
type Controller struct {
	clientID    string
	version     int
	state       *document.State
	unconfirmed []*Rebaseable
	origin      int
}

// New creates a new controller at the given state and confirmed version.
// clientID identifies the steps of this controller when the host echoes them
// back; it may be empty when the host confirms steps explicitly.
func New(state *document.State, version int, clientID string) *Controller {
	return &Controller{
		clientID: clientID,
		version:  version,
		state:    state,
	}
}

// ClientID returns the client ID of this controller.
func (c *Controller) ClientID() string {
	return c.clientID
}

// Version returns the confirmed version.
func (c *Controller) Version() int {
	return c.version
}

// State returns the current document state, pending steps included.
func (c *Controller) State() *document.State {
	return c.state
}

// Selection returns the local selection of the current state.
func (c *Controller) Selection() selection.Selection {
	return c.state.Selection()
}

// PendingLen returns the number of pending local steps.
func (c *Controller) PendingLen() int {
	return len(c.unconfirmed)
}

// Pending returns the pending local steps, oldest first.
func (c *Controller) Pending() []step.Step {
	steps := make([]step.Step, 0, len(c.unconfirmed))
	for _, r := range c.unconfirmed {
		steps = append(steps, r.Step)
	}
	return steps
}

// ApplyLocal applies local steps and queues them as pending.
func (c *Controller) ApplyLocal(steps ...step.Step) (*Update, error) {
	return c.ApplyLocalWithSelection(nil, steps...)
}

// ApplyLocalWithSelection applies local steps and then sets the local
// selection, if given. Either everything is applied or nothing is.
func (c *Controller) ApplyLocalWithSelection(sel *selection.Selection, steps ...step.Step) (*Update, error) {
	tr := c.state.Transform()
	for i, s := range steps {
		if err := tr.Step(s); err != nil {
			return nil, fmt.Errorf("apply local step %d: %w", i, err)
		}
	}

	state, err := c.state.Apply(tr, sel)
	if err != nil {
		return nil, fmt.Errorf("apply local steps: %w", err)
	}

	docs := tr.Docs()
	for i, s := range tr.Steps() {
		c.unconfirmed = append(c.unconfirmed, &Rebaseable{
			Step:     s,
			Inverted: s.Invert(docs[i]),
			Origin:   c.origin,
		})
	}
	c.origin++
	c.state = state

	return &Update{State: state, Mapping: tr.Mapping()}, nil
}

// SetSelection sets the local selection.
func (c *Controller) SetSelection(sel selection.Selection) error {
	state, err := c.state.WithSelection(sel)
	if err != nil {
		return err
	}
	c.state = state
	return nil
}

// ReceiveRemote integrates a batch of steps the host sequenced at
// baseVersion. clientIDs holds the originating client of each step. Leading
// steps of this controller's client are treated as the confirmation of the
// oldest pending steps; the remaining ones are applied and the other pending
// steps are rebased over them.
//
// An empty batch only moves the confirmed version forward. A failed batch
// leaves the controller unchanged.
func (c *Controller) ReceiveRemote(steps []step.Step, clientIDs []string, baseVersion int) (*Update, error) {
	if len(clientIDs) != len(steps) {
		return nil, errors.WithMetadata(ErrClientIDsMismatch, map[string]string{
			"steps":     fmt.Sprint(len(steps)),
			"clientIDs": fmt.Sprint(len(clientIDs)),
		})
	}

	if len(steps) == 0 {
		if baseVersion < c.version {
			return nil, c.reconciliationError(baseVersion)
		}
		c.version = baseVersion
		return &Update{State: c.state, Mapping: step.NewMapping()}, nil
	}

	if baseVersion != c.version {
		return nil, c.reconciliationError(baseVersion)
	}

	ours := 0
	for ours < len(clientIDs) && ours < len(c.unconfirmed) &&
		c.clientID != "" && clientIDs[ours] == c.clientID {
		ours++
	}

	remaining := steps[ours:]
	unconfirmed := c.unconfirmed[ours:]

	tr := c.state.Transform()
	rebased := unconfirmed
	if len(remaining) > 0 {
		if len(unconfirmed) > 0 {
			var err error
			if rebased, err = rebaseSteps(unconfirmed, remaining, tr); err != nil {
				return nil, err
			}
		} else {
			for i, s := range remaining {
				if err := tr.Step(s); err != nil {
					return nil, errors.WithMetadata(ErrStepRejected, map[string]string{
						"index": fmt.Sprint(ours + i),
						"cause": err.Error(),
					})
				}
			}
		}
	}

	state, err := c.state.Apply(tr, nil)
	if err != nil {
		return nil, fmt.Errorf("apply remote steps: %w", err)
	}

	c.state = state
	c.unconfirmed = append([]*Rebaseable(nil), rebased...)
	c.version += len(steps)

	return &Update{State: state, Mapping: tr.Mapping(), Confirmed: ours}, nil
}

// Sendable returns the pending steps and the version they are based on, or
// nil when nothing is pending.
func (c *Controller) Sendable() *Sendable {
	if len(c.unconfirmed) == 0 {
		return nil
	}
	return &Sendable{Version: c.version, Steps: c.Pending()}
}

// Confirm acknowledges the oldest count pending steps, moving the confirmed
// version forward by count.
func (c *Controller) Confirm(count int) error {
	if count < 0 || count > len(c.unconfirmed) {
		return errors.WithMetadata(ErrInvalidConfirm, map[string]string{
			"count":   fmt.Sprint(count),
			"pending": fmt.Sprint(len(c.unconfirmed)),
		})
	}

	c.unconfirmed = append([]*Rebaseable(nil), c.unconfirmed[count:]...)
	c.version += count
	return nil
}

func (c *Controller) reconciliationError(baseVersion int) error {
	return errors.WithMetadata(ErrReconciliation, map[string]string{
		"base":    fmt.Sprint(baseVersion),
		"version": fmt.Sprint(c.version),
	})
}
