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

// Package session provides the façade of the collaborative editing core. A
// Session wires the sync controller, the announcer of local changes and the
// presence overlay of one document to the host that carries messages
// between collaborators.
//
// Operations the host transport calls never return errors: failures are
// logged and counted, and the session stays usable. Operations of the local
// editor return errors.
package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/yorkie-team/mdsync/internal/logging"
	"github.com/yorkie-team/mdsync/internal/metrics"
	"github.com/yorkie-team/mdsync/internal/validation"
	"github.com/yorkie-team/mdsync/pkg/announcer"
	"github.com/yorkie-team/mdsync/pkg/collab"
	"github.com/yorkie-team/mdsync/pkg/document"
	"github.com/yorkie-team/mdsync/pkg/document/selection"
	"github.com/yorkie-team/mdsync/pkg/document/step"
	"github.com/yorkie-team/mdsync/pkg/errors"
	"github.com/yorkie-team/mdsync/pkg/presence"
)

// Status represents the lifecycle status of a session.
type Status int

const (
	// StatusUninitialized is the status of the zero Session.
	StatusUninitialized Status = iota

	// StatusActive is the status of a session that accepts operations.
	StatusActive

	// StatusDestroyed is the terminal status of a session.
	StatusDestroyed
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusActive:
		return "active"
	case StatusDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

var (
	// ErrSessionNotActive is returned when the session is not active.
	ErrSessionNotActive = errors.FailedPrecond("session is not active").WithCode("ErrSessionNotActive")

	// ErrInvalidVersion is returned when a version is negative.
	ErrInvalidVersion = errors.InvalidArgument("invalid version").WithCode("ErrInvalidVersion")

	// ErrInvalidClientID is returned when a client ID cannot identify a client.
	ErrInvalidClientID = errors.InvalidArgument("invalid client ID").WithCode("ErrInvalidClientID")
)

// staleWarnInterval is the minimum interval between warnings about remote
// selections that keep falling outside the document.
const staleWarnInterval = 10 * time.Second

// Session is the collaborative editing session of one document. It is safe
// for concurrent use. The zero Session is uninitialized and inert.
type Session struct {
	mu sync.Mutex

	status     Status
	options    Options
	clientID   string
	logger     logging.Logger
	controller *collab.Controller
	overlay    *presence.Overlay
	announcer  *announcer.Announcer

	staleCounts map[string]int
	staleWarn   *rate.Limiter
}

// New creates an active session over the given content, confirmed at the
// given version.
func New(content string, version int, opts ...Option) (*Session, error) {
	options := Options{
		Scheduler:               announcer.SystemScheduler{},
		DebounceInterval:        announcer.DefaultPeriod,
		MaxStepHistory:          DefaultMaxStepHistory,
		StaleSelectionThreshold: DefaultStaleSelectionThreshold,
	}
	for _, opt := range opts {
		opt(&options)
	}

	if version < 0 {
		return nil, errors.WithMetadata(ErrInvalidVersion, map[string]string{"version": fmt.Sprint(version)})
	}
	if options.ClientID != "" {
		if err := validateClientID(options.ClientID); err != nil {
			return nil, err
		}
	}

	state, err := document.Parse(content, options.MaxStepHistory)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	logger := options.Logger
	if logger == nil {
		logger = logging.New("session")
	}
	if options.ClientID != "" {
		logger = logger.With("client", options.ClientID)
	}

	s := &Session{
		status:      StatusActive,
		options:     options,
		clientID:    options.ClientID,
		logger:      logger,
		controller:  collab.New(state, version, options.ClientID),
		overlay:     presence.NewOverlay(options.ClientID),
		staleCounts: make(map[string]int),
		staleWarn:   rate.NewLimiter(rate.Every(staleWarnInterval), 1),
	}
	s.announcer = announcer.New(
		sessionSource{session: s},
		options.Scheduler,
		options.DebounceInterval,
		s.announce,
	)
	options.Metrics.SessionOpened()

	return s, nil
}

// Destroy cancels the outstanding announcement and releases the document.
// Every later operation is inert. Destroying twice is safe.
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusDestroyed {
		return
	}
	if s.status == StatusActive {
		s.announcer.Cancel()
		s.options.Metrics.SessionClosed()
		s.logger.Debugw("destroy session", "version", s.controller.Version())
	}

	s.controller = nil
	s.overlay = nil
	s.status = StatusDestroyed
}

// Status returns the lifecycle status of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status
}

// ClientID returns the ID of the local client, or "" if not known yet.
func (s *Session) ClientID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.clientID
}

// Content returns the serialized document, pending local steps included.
func (s *Session) Content() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusActive {
		return "", false
	}
	return s.controller.State().Serialize(), true
}

// Selection returns the local selection.
func (s *Session) Selection() (selection.Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusActive {
		return selection.Selection{}, false
	}
	return s.controller.Selection(), true
}

// Version returns the version confirmed by the host.
func (s *Session) Version() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusActive {
		return 0, false
	}
	return s.controller.Version(), true
}

// PendingSteps returns the local steps the host has not confirmed yet.
func (s *Session) PendingSteps() []step.Step {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusActive {
		return nil
	}
	return s.controller.Pending()
}

// Decorations returns the cursors and selections of remote clients.
func (s *Session) Decorations() []presence.Decoration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusActive {
		return nil
	}
	return s.overlay.Decorations()
}

// Edit applies local steps and, if given, sets the local selection
// afterwards. The change is announced once the debounce interval passes.
func (s *Session) Edit(steps []step.Step, sel *selection.Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusActive {
		return ErrSessionNotActive
	}
	if len(steps) == 0 && sel == nil {
		return nil
	}

	if len(steps) == 0 {
		if err := s.controller.SetSelection(*sel); err != nil {
			return fmt.Errorf("select: %w", err)
		}
	} else {
		upd, err := s.controller.ApplyLocalWithSelection(sel, steps...)
		if err != nil {
			return fmt.Errorf("edit: %w", err)
		}
		s.overlay.Map(upd.Mapping, upd.State.Len())
	}

	s.notify(sel != nil)
	return nil
}

// Append inserts text at the end of the document. The end is resolved under
// the session lock, so remote steps arriving concurrently cannot move it.
func (s *Session) Append(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusActive {
		return ErrSessionNotActive
	}
	if text == "" {
		return nil
	}

	upd, err := s.controller.ApplyLocal(step.Insert(s.controller.State().Len(), text))
	if err != nil {
		return fmt.Errorf("append: %w", err)
	}
	s.overlay.Map(upd.Mapping, upd.State.Len())

	s.notify(false)
	return nil
}

// Select sets the local selection.
func (s *Session) Select(sel selection.Selection) error {
	return s.Edit(nil, &sel)
}

// Confirm acknowledges the oldest count pending local steps, for hosts that
// confirm announcements instead of echoing the steps back.
func (s *Session) Confirm(count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusActive {
		return ErrSessionNotActive
	}
	if err := s.controller.Confirm(count); err != nil {
		return fmt.Errorf("confirm: %w", err)
	}
	s.options.Metrics.AddConfirmedSteps(count)

	if count > 0 && s.controller.PendingLen() > 0 {
		s.notify(false)
	}
	return nil
}

// UpdateContent replaces the document, discarding pending local steps, the
// outstanding announcement and all remote presence. It is the way to
// resynchronize after a desync. clientID, if given, becomes the local client
// ID unless one is already known. Malformed content leaves the session
// unchanged.
func (s *Session) UpdateContent(content string, version int, clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isActive("update content") {
		return
	}
	if version < 0 {
		s.fail("update content", metrics.KindContent,
			errors.WithMetadata(ErrInvalidVersion, map[string]string{"version": fmt.Sprint(version)}))
		return
	}

	state, err := document.Parse(content, s.options.MaxStepHistory)
	if err != nil {
		s.fail("update content", metrics.KindContent, err)
		return
	}

	s.adoptClientID(clientID)
	s.controller = collab.New(state, version, s.clientID)
	s.overlay = presence.NewOverlay(s.clientID)
	s.announcer.Discard()
	s.staleCounts = make(map[string]int)
}

// ReceiveSteps integrates steps the host sequenced, together with the
// selection of the client that made them. version is the version after the
// steps. Steps carrying the local client ID confirm pending local steps;
// other steps are applied, with pending local steps rebased over them and
// announced again.
func (s *Session) ReceiveSteps(
	rawSteps []json.RawMessage,
	version int,
	sel *selection.Selection,
	clientID string,
) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isActive("receive steps") {
		return
	}

	steps, err := step.DecodeAll(rawSteps)
	if err != nil {
		s.fail("receive steps", metrics.KindSteps, err)
		return
	}

	clientIDs := make([]string, len(steps))
	for i := range clientIDs {
		clientIDs[i] = clientID
	}

	upd, err := s.controller.ReceiveRemote(steps, clientIDs, version-len(steps))
	if err != nil {
		if errors.StatusOf(err).RequiresResync() {
			s.options.Metrics.AddReconciliationFailure()
		}
		logging.LogFailure(s.logger, "receive steps", err)
		return
	}

	s.overlay.Map(upd.Mapping, upd.State.Len())
	s.options.Metrics.AddRemoteSteps(len(steps))
	s.options.Metrics.AddConfirmedSteps(upd.Confirmed)

	if sel != nil {
		s.setSelection(*sel, clientID)
	}

	// Both rebasing and partial confirmation invalidate an announcement
	// captured before this batch.
	rebased := len(steps) > upd.Confirmed
	if s.controller.PendingLen() > 0 && (rebased || upd.Confirmed > 0) {
		s.notify(false)
	}
}

// SetSelection shows the selection of a remote client. Selections of the
// local client are ignored. A selection outside the document is dropped.
func (s *Session) SetSelection(sel selection.Selection, clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isActive("set selection") {
		return
	}
	s.setSelection(sel, clientID)
}

// RemoveSelection hides the cursor and selection of a remote client.
func (s *Session) RemoveSelection(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isActive("remove selection") {
		return
	}
	if clientID == "" || clientID == s.clientID {
		return
	}

	s.overlay.RemovePresence(clientID)
	delete(s.staleCounts, clientID)
}

func (s *Session) setSelection(sel selection.Selection, clientID string) {
	if clientID == "" || clientID == s.clientID {
		return
	}

	err := s.overlay.SetPresence(clientID, sel, s.controller.State().Len())
	if err == nil {
		delete(s.staleCounts, clientID)
		return
	}

	if errors.StatusOf(err).IsTransient() {
		s.recordStaleSelection(clientID, err)
		return
	}
	s.fail("set selection", metrics.KindSelection, err)
}

func (s *Session) recordStaleSelection(clientID string, err error) {
	s.staleCounts[clientID]++
	count := s.staleCounts[clientID]
	s.options.Metrics.AddStaleSelection()

	if count >= s.options.StaleSelectionThreshold && s.staleWarn.Allow() {
		s.logger.Warnw("remote selection keeps falling outside the document",
			"remote", clientID,
			"consecutive", count,
			"error", err,
		)
		return
	}
	s.logger.Debugw("drop remote selection", "remote", clientID, "error", err)
}

func (s *Session) adoptClientID(clientID string) {
	if clientID == "" || clientID == s.clientID {
		return
	}
	if s.clientID != "" {
		s.logger.Warnw("ignore client ID change", "given", clientID)
		return
	}
	if err := validateClientID(clientID); err != nil {
		logging.LogFailure(s.logger, "adopt client ID", err)
		return
	}

	s.clientID = clientID
	s.logger = s.logger.With("client", clientID)
}

func (s *Session) notify(selectionChanged bool) {
	if err := s.announcer.NotifyLocalChange(selectionChanged); err != nil {
		logging.LogFailure(s.logger, "announce", err)
	}
}

func (s *Session) announce(payload announcer.Payload) {
	s.mu.Lock()
	logger := s.logger
	listener := s.options.Listener
	s.mu.Unlock()

	s.options.Metrics.AddAnnouncement(len(payload.Steps))
	logger.Debugw("announce local changes", "steps", len(payload.Steps), "version", payload.Version)

	if listener != nil {
		listener(Event{
			Type:      DocumentChanged,
			Steps:     payload.Steps,
			Selection: payload.Selection,
			Version:   payload.Version,
		})
	}
}

func (s *Session) isActive(op string) bool {
	if s.status == StatusActive {
		return true
	}
	if s.logger != nil {
		s.logger.Debugw("ignore operation on inactive session", "op", op, "status", s.status.String())
	}
	return false
}

func (s *Session) fail(op, kind string, err error) {
	s.options.Metrics.AddMalformedInput(kind)
	logging.LogFailure(s.logger, op, err)
}

func validateClientID(clientID string) error {
	if err := validation.ValidateValue(clientID, "client_id,max=128"); err != nil {
		return errors.WithMetadata(ErrInvalidClientID, map[string]string{"clientID": clientID})
	}
	return nil
}

// sessionSource exposes the controller of a session to its announcer. The
// announcer only reads it from NotifyLocalChange, which runs with the
// session lock held.
type sessionSource struct {
	session *Session
}

func (src sessionSource) Sendable() *collab.Sendable {
	return src.session.controller.Sendable()
}

func (src sessionSource) Version() int {
	return src.session.controller.Version()
}

func (src sessionSource) Selection() selection.Selection {
	return src.session.controller.Selection()
}
