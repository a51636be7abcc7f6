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

package announcer_test

import (
	"encoding/json"
	"sync"
	"testing"
	gotime "time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorkie-team/mdsync/pkg/announcer"
	"github.com/yorkie-team/mdsync/pkg/collab"
	"github.com/yorkie-team/mdsync/pkg/document/selection"
	"github.com/yorkie-team/mdsync/pkg/document/step"
	"github.com/yorkie-team/mdsync/test/helper"
)

type recorder struct {
	mu       sync.Mutex
	payloads []announcer.Payload
}

func (r *recorder) emit(p announcer.Payload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, p)
}

func (r *recorder) all() []announcer.Payload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]announcer.Payload(nil), r.payloads...)
}

// unstoppableScheduler hands out timers that can never be stopped, so callbacks
// run only when the test calls them.
type unstoppableScheduler struct {
	callbacks []func()
}

type unstoppable struct{}

func (unstoppable) Stop() bool { return false }

func (s *unstoppableScheduler) AfterFunc(_ gotime.Duration, f func()) announcer.Timer {
	s.callbacks = append(s.callbacks, f)
	return unstoppable{}
}

func encode(t *testing.T, steps ...step.Step) []json.RawMessage {
	t.Helper()
	data, err := step.EncodeAll(steps)
	require.NoError(t, err)
	return data
}

func TestAnnouncer(t *testing.T) {
	t.Run("burst collapses into one announcement test", func(t *testing.T) {
		c := collab.New(helper.ParseState(t, ""), 7, "A")
		scheduler := announcer.NewManualScheduler()
		rec := &recorder{}
		a := announcer.New(c, scheduler, 500*gotime.Millisecond, rec.emit)

		var steps []step.Step
		for i := 0; i < 5; i++ {
			s := step.Insert(i, "x")
			steps = append(steps, s)
			_, err := c.ApplyLocal(s)
			require.NoError(t, err)
			require.NoError(t, a.NotifyLocalChange(false))
			scheduler.Advance(90 * gotime.Millisecond)
		}
		assert.Empty(t, rec.all())
		assert.Equal(t, 1, scheduler.Pending())

		scheduler.Advance(50 * gotime.Millisecond)
		payloads := rec.all()
		require.Len(t, payloads, 1)
		assert.Equal(t, encode(t, steps...), payloads[0].Steps)
		assert.Equal(t, 7, payloads[0].Version)
		assert.Nil(t, payloads[0].Selection)

		_, ok := a.Outstanding()
		assert.False(t, ok)
	})

	t.Run("selection changed within burst test", func(t *testing.T) {
		c := collab.New(helper.ParseState(t, "abc"), 0, "A")
		scheduler := announcer.NewManualScheduler()
		rec := &recorder{}
		a := announcer.New(c, scheduler, 0, rec.emit)

		require.NoError(t, c.SetSelection(selection.Cursor(3)))
		require.NoError(t, a.NotifyLocalChange(true))

		_, err := c.ApplyLocal(step.Insert(0, "zz"))
		require.NoError(t, err)
		require.NoError(t, a.NotifyLocalChange(false))

		scheduler.Advance(announcer.DefaultPeriod)
		payloads := rec.all()
		require.Len(t, payloads, 1)
		require.NotNil(t, payloads[0].Selection)
		assert.Equal(t, selection.Cursor(5), *payloads[0].Selection)

		// the next burst starts without the selection
		_, err = c.ApplyLocal(step.Insert(0, "y"))
		require.NoError(t, err)
		require.NoError(t, a.NotifyLocalChange(false))
		scheduler.Advance(announcer.DefaultPeriod)
		payloads = rec.all()
		require.Len(t, payloads, 2)
		assert.Nil(t, payloads[1].Selection)
	})

	t.Run("selection only announcement test", func(t *testing.T) {
		c := collab.New(helper.ParseState(t, "abc"), 2, "A")
		scheduler := announcer.NewManualScheduler()
		rec := &recorder{}
		a := announcer.New(c, scheduler, 0, rec.emit)

		require.NoError(t, a.NotifyLocalChange(false))
		assert.Equal(t, 0, scheduler.Pending())

		require.NoError(t, c.SetSelection(selection.New(0, 2)))
		require.NoError(t, a.NotifyLocalChange(true))
		scheduler.Advance(announcer.DefaultPeriod)

		payloads := rec.all()
		require.Len(t, payloads, 1)
		assert.Empty(t, payloads[0].Steps)
		assert.Equal(t, 2, payloads[0].Version)
		assert.Equal(t, selection.New(0, 2), *payloads[0].Selection)

		data, err := json.Marshal(payloads[0])
		require.NoError(t, err)
		assert.JSONEq(t, `{"steps":[],"selection":{"from":0,"to":2},"version":2}`, string(data))
	})

	t.Run("cancel test", func(t *testing.T) {
		c := collab.New(helper.ParseState(t, ""), 0, "A")
		scheduler := announcer.NewManualScheduler()
		rec := &recorder{}
		a := announcer.New(c, scheduler, 0, rec.emit)

		_, err := c.ApplyLocal(step.Insert(0, "x"))
		require.NoError(t, err)
		require.NoError(t, a.NotifyLocalChange(false))
		a.Cancel()
		scheduler.Advance(gotime.Second)
		assert.Empty(t, rec.all())

		require.NoError(t, a.NotifyLocalChange(true))
		assert.Equal(t, 0, scheduler.Pending())
	})

	t.Run("discard test", func(t *testing.T) {
		c := collab.New(helper.ParseState(t, ""), 0, "A")
		scheduler := announcer.NewManualScheduler()
		rec := &recorder{}
		a := announcer.New(c, scheduler, 0, rec.emit)

		_, err := c.ApplyLocal(step.Insert(0, "x"))
		require.NoError(t, err)
		require.NoError(t, a.NotifyLocalChange(false))
		a.Discard()
		scheduler.Advance(gotime.Second)
		assert.Empty(t, rec.all())

		require.NoError(t, a.NotifyLocalChange(false))
		scheduler.Advance(gotime.Second)
		assert.Len(t, rec.all(), 1)
	})

	t.Run("late callback of discarded burst test", func(t *testing.T) {
		c := collab.New(helper.ParseState(t, ""), 0, "A")
		scheduler := &unstoppableScheduler{}
		rec := &recorder{}
		a := announcer.New(c, scheduler, 0, rec.emit)

		_, err := c.ApplyLocal(step.Insert(0, "x"))
		require.NoError(t, err)
		require.NoError(t, a.NotifyLocalChange(false))
		a.Discard()
		require.NoError(t, a.NotifyLocalChange(false))
		require.Len(t, scheduler.callbacks, 2)

		scheduler.callbacks[0]()
		assert.Empty(t, rec.all())

		scheduler.callbacks[1]()
		assert.Len(t, rec.all(), 1)

		a.Cancel()
		scheduler.callbacks[1]()
		assert.Len(t, rec.all(), 1)
	})

	t.Run("system scheduler test", func(t *testing.T) {
		c := collab.New(helper.ParseState(t, ""), 0, "A")
		rec := &recorder{}
		a := announcer.New(c, nil, 10*gotime.Millisecond, rec.emit)

		_, err := c.ApplyLocal(step.Insert(0, "x"))
		require.NoError(t, err)
		require.NoError(t, a.NotifyLocalChange(false))

		assert.Eventually(t, func() bool {
			return len(rec.all()) == 1
		}, gotime.Second, 5*gotime.Millisecond)
	})
}
