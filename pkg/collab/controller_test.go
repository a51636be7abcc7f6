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

package collab_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorkie-team/mdsync/pkg/collab"
	"github.com/yorkie-team/mdsync/pkg/document/selection"
	"github.com/yorkie-team/mdsync/pkg/document/step"
	"github.com/yorkie-team/mdsync/pkg/errors"
	"github.com/yorkie-team/mdsync/test/helper"
)

func TestController(t *testing.T) {
	t.Run("apply local test", func(t *testing.T) {
		c := collab.New(helper.ParseState(t, "Hello"), 3, "A")
		assert.Nil(t, c.Sendable())

		upd, err := c.ApplyLocal(step.Insert(5, ","), step.Insert(6, " world"))
		require.NoError(t, err)
		assert.Equal(t, "Hello, world", upd.State.Serialize())
		assert.Equal(t, 2, upd.Mapping.Len())

		sendable := c.Sendable()
		require.NotNil(t, sendable)
		assert.Equal(t, 3, sendable.Version)
		assert.Equal(t, []step.Step{step.Insert(5, ","), step.Insert(6, " world")}, sendable.Steps)
		assert.Equal(t, 3, c.Version())
	})

	t.Run("apply local is atomic test", func(t *testing.T) {
		c := collab.New(helper.ParseState(t, "abc"), 0, "A")

		_, err := c.ApplyLocal(step.Insert(0, "x"), step.Delete(2, 10))
		assert.Equal(t, errors.ErrCodeOutOfRange, errors.StatusOf(err))
		assert.Equal(t, "abc", c.State().Serialize())
		assert.Equal(t, 0, c.PendingLen())

		sel := selection.Cursor(9)
		_, err = c.ApplyLocalWithSelection(&sel, step.Insert(0, "x"))
		assert.ErrorIs(t, err, selection.ErrSelectionOutOfRange)
		assert.Equal(t, "abc", c.State().Serialize())
		assert.Equal(t, 0, c.PendingLen())
	})

	t.Run("echo of own steps confirms them test", func(t *testing.T) {
		c := collab.New(helper.ParseState(t, ""), 0, "A")
		_, err := c.ApplyLocal(step.Insert(0, "hi"))
		require.NoError(t, err)

		upd, err := c.ReceiveRemote([]step.Step{step.Insert(0, "hi")}, []string{"A"}, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, upd.Confirmed)
		assert.Equal(t, 1, c.Version())
		assert.Equal(t, 0, c.PendingLen())
		assert.Equal(t, "hi", c.State().Serialize())
		assert.Nil(t, c.Sendable())
	})

	t.Run("rebase pending over remote steps test", func(t *testing.T) {
		c := collab.New(helper.ParseState(t, "abc"), 0, "A")
		_, err := c.ApplyLocalWithSelection(nil, step.Insert(3, "X"))
		require.NoError(t, err)
		require.NoError(t, c.SetSelection(selection.Cursor(4)))

		upd, err := c.ReceiveRemote([]step.Step{step.Insert(0, "ZZ")}, []string{"B"}, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, upd.Confirmed)
		assert.Equal(t, "ZZabcX", c.State().Serialize())
		assert.Equal(t, []step.Step{step.Insert(5, "X")}, c.Pending())
		assert.Equal(t, selection.Cursor(6), c.Selection())
		assert.Equal(t, 1, c.Version())

		sendable := c.Sendable()
		require.NotNil(t, sendable)
		assert.Equal(t, 1, sendable.Version)
	})

	t.Run("echo followed by remote steps test", func(t *testing.T) {
		c := collab.New(helper.ParseState(t, "ab"), 0, "A")
		_, err := c.ApplyLocal(step.Insert(0, "1"))
		require.NoError(t, err)
		_, err = c.ApplyLocal(step.Insert(3, "2"))
		require.NoError(t, err)
		require.Equal(t, "1ab2", c.State().Serialize())

		// the host accepted our first step, then one of B
		_, err = c.ReceiveRemote(
			[]step.Step{step.Insert(0, "1"), step.Insert(2, "-")},
			[]string{"A", "B"},
			0,
		)
		require.NoError(t, err)
		assert.Equal(t, "1a-b2", c.State().Serialize())
		assert.Equal(t, []step.Step{step.Insert(4, "2")}, c.Pending())
		assert.Equal(t, 2, c.Version())
	})

	t.Run("pending step inside deleted range is dropped test", func(t *testing.T) {
		c := collab.New(helper.ParseState(t, "abcd"), 0, "A")
		_, err := c.ApplyLocal(step.Insert(2, "X"))
		require.NoError(t, err)

		_, err = c.ReceiveRemote([]step.Step{step.Delete(0, 4)}, []string{"B"}, 0)
		require.NoError(t, err)
		assert.Equal(t, "", c.State().Serialize())
		assert.Equal(t, 0, c.PendingLen())
		assert.Nil(t, c.Sendable())
	})

	t.Run("version mismatch test", func(t *testing.T) {
		c := collab.New(helper.ParseState(t, "abc"), 5, "A")
		_, err := c.ApplyLocal(step.Insert(0, "x"))
		require.NoError(t, err)

		for _, base := range []int{4, 6} {
			_, err = c.ReceiveRemote([]step.Step{step.Insert(0, "y")}, []string{"B"}, base)
			assert.ErrorIs(t, err, collab.ErrReconciliation)
			assert.Equal(t, errors.ErrCodeAborted, errors.StatusOf(err))
			assert.Equal(t, fmt.Sprint(base), errors.Metadata(err)["base"])
		}

		assert.Equal(t, "xabc", c.State().Serialize())
		assert.Equal(t, 5, c.Version())
		assert.Equal(t, 1, c.PendingLen())
	})

	t.Run("empty batch test", func(t *testing.T) {
		c := collab.New(helper.ParseState(t, "abc"), 0, "A")

		upd, err := c.ReceiveRemote(nil, nil, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, upd.Mapping.Len())
		assert.Equal(t, 0, c.Version())

		_, err = c.ReceiveRemote(nil, nil, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, c.Version())

		_, err = c.ReceiveRemote(nil, nil, 0)
		assert.ErrorIs(t, err, collab.ErrReconciliation)
		assert.Equal(t, 1, c.Version())
	})

	t.Run("rejected remote step test", func(t *testing.T) {
		for _, pending := range []bool{false, true} {
			c := collab.New(helper.ParseState(t, "abc"), 0, "A")
			if pending {
				_, err := c.ApplyLocal(step.Insert(0, "x"))
				require.NoError(t, err)
			}
			before := c.State().Serialize()

			_, err := c.ReceiveRemote(
				[]step.Step{step.Insert(0, "ok"), step.Delete(3, 40)},
				[]string{"B", "B"},
				0,
			)
			assert.ErrorIs(t, err, collab.ErrStepRejected)
			assert.Equal(t, before, c.State().Serialize())
			assert.Equal(t, 0, c.Version())
		}
	})

	t.Run("client IDs mismatch test", func(t *testing.T) {
		c := collab.New(helper.ParseState(t, "abc"), 0, "A")
		_, err := c.ReceiveRemote([]step.Step{step.Insert(0, "y")}, nil, 0)
		assert.ErrorIs(t, err, collab.ErrClientIDsMismatch)
	})

	t.Run("confirm test", func(t *testing.T) {
		c := collab.New(helper.ParseState(t, ""), 0, "A")
		_, err := c.ApplyLocal(step.Insert(0, "a"), step.Insert(1, "b"))
		require.NoError(t, err)

		err = c.Confirm(3)
		assert.ErrorIs(t, err, collab.ErrInvalidConfirm)
		assert.Equal(t, 2, c.PendingLen())
		assert.Equal(t, 0, c.Version())

		require.NoError(t, c.Confirm(1))
		assert.Equal(t, 1, c.Version())
		assert.Equal(t, []step.Step{step.Insert(1, "b")}, c.Pending())
		assert.Equal(t, 1, c.Sendable().Version)
	})
}

func TestConvergence(t *testing.T) {
	const (
		clients = 3
		rounds  = 400
	)
	alphabet := []rune("ab 가#\n")

	for seed := int64(1); seed <= 5; seed++ {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			r := rand.New(rand.NewSource(seed))
			seq := helper.NewSequencer("# doc\n")

			var controllers []*collab.Controller
			for i := 0; i < clients; i++ {
				controllers = append(controllers, collab.New(
					helper.ParseState(t, seq.Doc()), 0, fmt.Sprintf("client-%d", i),
				))
			}

			for round := 0; round < rounds; round++ {
				c := controllers[r.Intn(clients)]
				if r.Intn(3) == 0 {
					syncWith(t, c, seq)
					continue
				}
				_, err := c.ApplyLocal(randomStep(r, c.State().Len(), alphabet))
				require.NoError(t, err)
			}

			for i := 0; i < clients*4; i++ {
				for _, c := range controllers {
					syncWith(t, c, seq)
				}
			}

			for _, c := range controllers {
				assert.Equal(t, 0, c.PendingLen(), c.ClientID())
				assert.Equal(t, seq.Version(), c.Version(), c.ClientID())
				assert.Equal(t, seq.Doc(), c.State().Serialize(), c.ClientID())
			}
		})
	}
}

func syncWith(t *testing.T, c *collab.Controller, seq *helper.Sequencer) {
	t.Helper()

	if sendable := c.Sendable(); sendable != nil {
		_, err := seq.Submit(sendable.Version, sendable.Steps, c.ClientID())
		require.NoError(t, err)
	}

	steps, clientIDs := seq.Since(c.Version())
	if len(steps) == 0 {
		return
	}
	_, err := c.ReceiveRemote(steps, clientIDs, c.Version())
	require.NoError(t, err)
}

func randomStep(r *rand.Rand, length int, alphabet []rune) step.Step {
	from := r.Intn(length + 1)
	if length > 0 && r.Intn(2) == 0 {
		to := from + r.Intn(length-from+1)
		return step.Delete(from, to)
	}

	text := make([]rune, 1+r.Intn(3))
	for i := range text {
		text[i] = alphabet[r.Intn(len(alphabet))]
	}
	return step.Insert(from, string(text))
}
