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

package document_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorkie-team/mdsync/pkg/document"
	"github.com/yorkie-team/mdsync/pkg/document/selection"
	"github.com/yorkie-team/mdsync/pkg/document/step"
	"github.com/yorkie-team/mdsync/pkg/errors"
)

func TestDocument(t *testing.T) {
	t.Run("parse and serialize test", func(t *testing.T) {
		for _, content := range []string{"", "# Hello\n\n- item", "한글 문서"} {
			state, err := document.Parse(content, 0)
			require.NoError(t, err)
			assert.Equal(t, content, state.Serialize())
		}

		state, err := document.Parse("a\r\nb", 0)
		require.NoError(t, err)
		assert.Equal(t, "a\nb", state.Serialize())
		assert.Equal(t, 3, state.Len())
		assert.Equal(t, selection.Cursor(0), state.Selection())
	})

	t.Run("parse malformed content test", func(t *testing.T) {
		_, err := document.Parse("\xff\xfe", 0)
		assert.ErrorIs(t, err, document.ErrMalformedContent)
		assert.Equal(t, errors.ErrCodeInvalidArgument, errors.StatusOf(err))
	})

	t.Run("apply step test", func(t *testing.T) {
		state, err := document.Parse("Hello", 0)
		require.NoError(t, err)
		state, err = state.WithSelection(selection.Cursor(5))
		require.NoError(t, err)

		next, err := state.ApplyStep(step.Insert(0, "> "))
		require.NoError(t, err)
		assert.Equal(t, "> Hello", next.Serialize())
		assert.Equal(t, selection.Cursor(7), next.Selection())
		assert.Len(t, next.History(), 1)

		// the previous state is untouched
		assert.Equal(t, "Hello", state.Serialize())
		assert.Empty(t, state.History())

		_, err = state.ApplyStep(step.Delete(3, 9))
		assert.Equal(t, errors.ErrCodeOutOfRange, errors.StatusOf(err))
	})

	t.Run("apply transform test", func(t *testing.T) {
		state, err := document.Parse("abc", 0)
		require.NoError(t, err)

		tr := state.Transform()
		require.NoError(t, tr.Step(step.Insert(3, "def")))
		sel := selection.New(1, 6)
		next, err := state.Apply(tr, &sel)
		require.NoError(t, err)
		assert.Equal(t, "abcdef", next.Serialize())
		assert.Equal(t, sel, next.Selection())

		bad := selection.Cursor(7)
		_, err = state.Apply(tr, &bad)
		assert.ErrorIs(t, err, selection.ErrSelectionOutOfRange)

		other, err := document.Parse("xyz", 0)
		require.NoError(t, err)
		_, err = other.Apply(tr, nil)
		assert.ErrorIs(t, err, document.ErrTransformMismatch)
	})

	t.Run("bounded history test", func(t *testing.T) {
		state, err := document.Parse("", 3)
		require.NoError(t, err)

		for _, text := range []string{"a", "b", "c", "d", "e"} {
			state, err = state.ApplyStep(step.Insert(state.Len(), text))
			require.NoError(t, err)
		}
		assert.Equal(t, "abcde", state.Serialize())

		history := state.History()
		assert.Len(t, history, 3)
		assert.Equal(t, step.Insert(2, "c"), history[0])
		assert.Equal(t, step.Insert(4, "e"), history[2])
	})

	t.Run("with selection out of range test", func(t *testing.T) {
		state, err := document.Parse("abc", 0)
		require.NoError(t, err)
		_, err = state.WithSelection(selection.New(1, 4))
		assert.Error(t, err)
		assert.Equal(t, selection.Cursor(0), state.Selection())
	})
}
