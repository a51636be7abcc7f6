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

// Package transport provides a WebSocket bridge between a session and a
// collaboration host. Inbound envelopes are dispatched to the session's host
// operations; the session's events are written back as envelopes.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/yorkie-team/mdsync/internal/logging"
	"github.com/yorkie-team/mdsync/pkg/document/selection"
	"github.com/yorkie-team/mdsync/pkg/session"
)

// MessageType is the type of an envelope.
type MessageType string

const (
	// TypeContent replaces the whole document.
	TypeContent MessageType = "content"

	// TypeSteps carries steps sequenced by the host.
	TypeSteps MessageType = "steps"

	// TypeSelection carries the selection of a remote client.
	TypeSelection MessageType = "selection"

	// TypeRemoveSelection removes the presence of a remote client.
	TypeRemoveSelection MessageType = "remove-selection"

	// TypeDocumentChanged announces local changes to the host.
	TypeDocumentChanged MessageType = MessageType(session.DocumentChanged)
)

const (
	outboundBufferSize = 64
	closeWriteTimeout  = time.Second
)

// Envelope is the message exchanged with the host.
type Envelope struct {
	Type      MessageType          `json:"type"`
	Content   string               `json:"content,omitempty"`
	Steps     []json.RawMessage    `json:"steps,omitempty"`
	Version   int                  `json:"version"`
	Selection *selection.Selection `json:"selection,omitempty"`
	ClientID  string               `json:"clientID,omitempty"`
}

// Target receives inbound envelopes. *session.Session implements it.
type Target interface {
	UpdateContent(content string, version int, clientID string)
	ReceiveSteps(steps []json.RawMessage, version int, sel *selection.Selection, clientID string)
	SetSelection(sel selection.Selection, clientID string)
	RemoveSelection(clientID string)
}

// Bridge connects a Target to a WebSocket connection.
type Bridge struct {
	conn     *websocket.Conn
	clientID string
	logger   logging.Logger

	outbound  chan Envelope
	done      chan struct{}
	closeOnce sync.Once
}

// NewBridge creates a bridge over an established connection. clientID is
// attached to outbound envelopes.
func NewBridge(conn *websocket.Conn, clientID string, logger logging.Logger) *Bridge {
	if logger == nil {
		logger = logging.New("transport")
	}

	return &Bridge{
		conn:     conn,
		clientID: clientID,
		logger:   logger,
		outbound: make(chan Envelope, outboundBufferSize),
		done:     make(chan struct{}),
	}
}

// Dial connects to the host at the given WebSocket URL. A nil logger falls
// back to the logger carried by ctx, tagged with the host URL.
func Dial(ctx context.Context, url, clientID string, logger logging.Logger) (*Bridge, error) {
	if logger == nil {
		logger = logging.From(logging.WithHost(ctx, url))
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewBridge(conn, clientID, logger), nil
}

// Announce queues a session event for the host. It blocks while the
// outbound buffer is full and drops the event once the bridge is closed.
// Announce can be used as a session.Listener.
func (b *Bridge) Announce(ev session.Event) {
	env := Envelope{
		Type:      MessageType(ev.Type),
		Steps:     ev.Steps,
		Version:   ev.Version,
		Selection: ev.Selection,
		ClientID:  b.clientID,
	}

	select {
	case b.outbound <- env:
	case <-b.done:
		b.logger.Debugw("drop event of closed bridge", "type", ev.Type, "version", ev.Version)
	}
}

// Run pumps envelopes between the connection and target until ctx is done
// or the host closes the connection.
func (b *Bridge) Run(ctx context.Context, target Target) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer b.Close()
		return b.readLoop(target)
	})
	g.Go(func() error {
		return b.writeLoop()
	})
	g.Go(func() error {
		select {
		case <-ctx.Done():
			b.Close()
		case <-b.done:
		}
		return nil
	})

	return g.Wait()
}

// Close closes the connection. It is safe to call more than once.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		close(b.done)

		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := b.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteTimeout)); err != nil {
			b.logger.Debugw("write close message", "error", err)
		}
		if err := b.conn.Close(); err != nil {
			b.logger.Debugw("close connection", "error", err)
		}
	})
}

func (b *Bridge) closed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

func (b *Bridge) readLoop(target Target) error {
	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			if b.closed() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read envelope: %w", err)
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			b.logger.Warnw("drop malformed envelope", "error", err)
			continue
		}
		b.dispatch(target, env)
	}
}

func (b *Bridge) writeLoop() error {
	for {
		select {
		case <-b.done:
			return nil
		case env := <-b.outbound:
			if err := b.conn.WriteJSON(env); err != nil {
				if b.closed() {
					return nil
				}
				return fmt.Errorf("write envelope: %w", err)
			}
		}
	}
}

func (b *Bridge) dispatch(target Target, env Envelope) {
	switch env.Type {
	case TypeContent:
		target.UpdateContent(env.Content, env.Version, env.ClientID)
	case TypeSteps:
		target.ReceiveSteps(env.Steps, env.Version, env.Selection, env.ClientID)
	case TypeSelection:
		if env.Selection == nil {
			b.logger.Warnw("drop selection envelope without selection", "remote", env.ClientID)
			return
		}
		target.SetSelection(*env.Selection, env.ClientID)
	case TypeRemoveSelection:
		target.RemoveSelection(env.ClientID)
	default:
		b.logger.Warnw("drop envelope of unknown type", "type", env.Type)
	}
}
