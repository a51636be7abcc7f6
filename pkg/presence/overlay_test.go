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

package presence_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorkie-team/mdsync/pkg/document/selection"
	"github.com/yorkie-team/mdsync/pkg/document/step"
	"github.com/yorkie-team/mdsync/pkg/errors"
	"github.com/yorkie-team/mdsync/pkg/presence"
)

func TestOverlay(t *testing.T) {
	t.Run("set and remove presence test", func(t *testing.T) {
		o := presence.NewOverlay("A")

		require.NoError(t, o.SetPresence("B", selection.Cursor(3), 10))
		require.NoError(t, o.SetPresence("B", selection.New(3, 7), 10))
		assert.Equal(t, 2, o.Len())

		cursor, ok := o.Find("B", presence.KindCursor)
		require.True(t, ok)
		assert.Equal(t, 3, cursor.From)
		assert.Equal(t, 3, cursor.To)

		sel, ok := o.Find("B", presence.KindSelection)
		require.True(t, ok)
		assert.Equal(t, 3, sel.From)
		assert.Equal(t, 7, sel.To)

		assert.True(t, o.RemovePresence("B"))
		assert.Equal(t, 0, o.Len())
		assert.False(t, o.RemovePresence("B"))
	})

	t.Run("empty selection removes range test", func(t *testing.T) {
		o := presence.NewOverlay("A")
		require.NoError(t, o.SetPresence("B", selection.New(1, 4), 10))
		require.NoError(t, o.SetPresence("B", selection.Cursor(2), 10))

		_, ok := o.Find("B", presence.KindSelection)
		assert.False(t, ok)
		assert.Equal(t, []string{"B"}, o.Clients())
	})

	t.Run("self and anonymous are never shown test", func(t *testing.T) {
		o := presence.NewOverlay("A")
		require.NoError(t, o.SetPresence("A", selection.New(0, 2), 10))
		require.NoError(t, o.SetPresence("", selection.New(0, 2), 10))
		assert.Equal(t, 0, o.Len())
		assert.Empty(t, o.Decorations())
	})

	t.Run("identity changes on every update test", func(t *testing.T) {
		o := presence.NewOverlay("A")
		require.NoError(t, o.SetPresence("B", selection.Cursor(3), 10))
		first, _ := o.Find("B", presence.KindCursor)

		require.NoError(t, o.SetPresence("B", selection.Cursor(3), 10))
		second, _ := o.Find("B", presence.KindCursor)
		assert.Equal(t, first.From, second.From)
		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("remove then set equals set test", func(t *testing.T) {
		positions := func(o *presence.Overlay) [][2]int {
			var result [][2]int
			for _, d := range o.Decorations() {
				result = append(result, [2]int{d.From, d.To})
			}
			return result
		}

		a := presence.NewOverlay("A")
		a.RemovePresence("B")
		require.NoError(t, a.SetPresence("B", selection.New(2, 5), 10))

		b := presence.NewOverlay("A")
		require.NoError(t, b.SetPresence("B", selection.New(2, 5), 10))

		assert.Equal(t, positions(b), positions(a))
	})

	t.Run("out of range presence test", func(t *testing.T) {
		o := presence.NewOverlay("A")
		require.NoError(t, o.SetPresence("B", selection.Cursor(1), 5))

		err := o.SetPresence("B", selection.New(2, 9), 5)
		assert.Equal(t, errors.ErrCodeOutOfRange, errors.StatusOf(err))

		cursor, ok := o.Find("B", presence.KindCursor)
		require.True(t, ok)
		assert.Equal(t, 1, cursor.From)
	})

	t.Run("map through insertion test", func(t *testing.T) {
		o := presence.NewOverlay("A")
		require.NoError(t, o.SetPresence("B", selection.New(2, 4), 6))
		require.NoError(t, o.SetPresence("C", selection.Cursor(5), 6))
		before, _ := o.Find("C", presence.KindCursor)

		// text typed at the edges of B's selection stays outside of it
		o.Map(step.NewMapping(step.Insert(4, "xy").StepMap(), step.Insert(2, "z").StepMap()), 9)

		sel, ok := o.Find("B", presence.KindSelection)
		require.True(t, ok)
		assert.Equal(t, [2]int{3, 5}, [2]int{sel.From, sel.To})

		cursor, ok := o.Find("B", presence.KindCursor)
		require.True(t, ok)
		assert.Equal(t, 3, cursor.From)

		after, ok := o.Find("C", presence.KindCursor)
		require.True(t, ok)
		assert.Equal(t, 8, after.From)
		assert.NotEqual(t, before.ID, after.ID)
	})

	t.Run("map keeps unmoved identity test", func(t *testing.T) {
		o := presence.NewOverlay("A")
		require.NoError(t, o.SetPresence("B", selection.Cursor(1), 6))
		before, _ := o.Find("B", presence.KindCursor)

		o.Map(step.Insert(4, "xy").StepMap(), 8)
		after, _ := o.Find("B", presence.KindCursor)
		assert.Equal(t, before, after)
	})

	t.Run("map through deletion test", func(t *testing.T) {
		o := presence.NewOverlay("A")
		require.NoError(t, o.SetPresence("B", selection.New(2, 4), 10))
		require.NoError(t, o.SetPresence("C", selection.Cursor(8), 10))

		o.Map(step.Delete(1, 6).StepMap(), 5)

		// B's cursor sat inside the deleted range, its selection collapsed
		_, ok := o.Find("B", presence.KindCursor)
		assert.False(t, ok)
		_, ok = o.Find("B", presence.KindSelection)
		assert.False(t, ok)

		cursor, ok := o.Find("C", presence.KindCursor)
		require.True(t, ok)
		assert.Equal(t, 3, cursor.From)
	})

	t.Run("decorations are ordered test", func(t *testing.T) {
		o := presence.NewOverlay("A")
		require.NoError(t, o.SetPresence("C", selection.Cursor(5), 10))
		require.NoError(t, o.SetPresence("B", selection.New(1, 3), 10))

		var got []string
		for _, d := range o.Decorations() {
			got = append(got, d.ClientID+":"+string(d.Kind))
		}
		assert.Equal(t, []string{"B:cursor", "B:selection", "C:cursor"}, got)
		assert.Equal(t, []string{"B", "C"}, o.Clients())
	})
}
