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

package step

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorkie-team/mdsync/pkg/errors"
)

func TestReplaceStep(t *testing.T) {
	t.Run("apply test", func(t *testing.T) {
		tests := []struct {
			name string
			doc  string
			step *ReplaceStep
			want string
		}{
			{"insert", "abc", Insert(1, "XY"), "aXYbc"},
			{"insert at end", "abc", Insert(3, "!"), "abc!"},
			{"delete", "abcd", Delete(1, 3), "ad"},
			{"replace", "abcd", NewReplaceStep(1, 3, "Z"), "aZd"},
			{"multibyte offsets are runes", "가나다", Insert(2, "A"), "가나A다"},
			{"empty document", "", Insert(0, "# Title"), "# Title"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := tt.step.Apply(tt.doc)
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			})
		}
	})

	t.Run("apply out of range test", func(t *testing.T) {
		for _, s := range []*ReplaceStep{Insert(4, "x"), Delete(2, 5), NewReplaceStep(-1, 0, "x"), Delete(2, 1)} {
			_, err := s.Apply("abc")
			assert.Error(t, err)
			assert.Equal(t, errors.ErrCodeOutOfRange, errors.StatusOf(err), s.String())
		}
	})

	t.Run("invert test", func(t *testing.T) {
		doc := "hello world"
		for _, s := range []*ReplaceStep{Insert(5, ","), Delete(0, 6), NewReplaceStep(6, 11, "gopher")} {
			applied, err := s.Apply(doc)
			require.NoError(t, err)

			restored, err := s.Invert(doc).Apply(applied)
			require.NoError(t, err)
			assert.Equal(t, doc, restored, s.String())
		}
	})

	t.Run("map test", func(t *testing.T) {
		// concurrent insertions at the same position keep the mapped one after
		mapped := Insert(2, "X").Map(Insert(2, "YY").StepMap())
		assert.Equal(t, Insert(4, "X"), mapped)

		// a range deleted entirely by the mapped change vanishes
		assert.Nil(t, Delete(1, 3).Map(Delete(0, 4).StepMap()))

		// a range partly deleted shrinks
		assert.Equal(t, Delete(0, 1), Delete(1, 3).Map(Delete(0, 2).StepMap()))

		// a range after an insertion shifts
		assert.Equal(t, Delete(3, 5), Delete(1, 3).Map(Insert(0, "ab").StepMap()))
	})
}

func TestStepMap(t *testing.T) {
	t.Run("insertion test", func(t *testing.T) {
		m := Insert(2, "abc").StepMap()
		assert.Equal(t, 0, m.Map(0, 1))
		assert.Equal(t, 5, m.Map(2, 1))
		assert.Equal(t, 2, m.Map(2, -1))
		assert.Equal(t, 6, m.Map(3, 1))
	})

	t.Run("deletion test", func(t *testing.T) {
		m := Delete(1, 3).StepMap()
		assert.Equal(t, 0, m.Map(0, 1))
		assert.Equal(t, 2, m.Map(4, 1))

		inside := m.MapResult(2, 1)
		assert.Equal(t, 1, inside.Pos)
		assert.True(t, inside.DeletedAcross())
		assert.True(t, inside.Deleted())

		edge := m.MapResult(3, -1)
		assert.Equal(t, 1, edge.Pos)
		assert.False(t, edge.DeletedAcross())
		assert.True(t, edge.DeletedBefore())
		assert.False(t, edge.DeletedAfter())
	})

	t.Run("invert test", func(t *testing.T) {
		m := NewReplaceStep(1, 3, "xyz").StepMap()
		inv := m.Invert()
		for _, pos := range []int{0, 1, 4, 5} {
			assert.Equal(t, pos, inv.Map(m.Map(pos, -1), -1), pos)
		}
	})

	t.Run("for each test", func(t *testing.T) {
		var got [][4]int
		NewReplaceStep(1, 3, "xyz").StepMap().ForEach(func(oldStart, oldEnd, newStart, newEnd int) {
			got = append(got, [4]int{oldStart, oldEnd, newStart, newEnd})
		})
		assert.Equal(t, [][4]int{{1, 3, 1, 4}}, got)
	})
}

func TestMapping(t *testing.T) {
	t.Run("pipeline test", func(t *testing.T) {
		m := NewMapping(Insert(0, "ab").StepMap(), Delete(3, 4).StepMap())
		assert.Equal(t, 2, m.Map(0, 1))
		assert.Equal(t, 3, m.Map(1, 1))
		assert.Equal(t, 4, m.Map(3, 1))
	})

	t.Run("mirror recovers deleted positions test", func(t *testing.T) {
		del := Delete(1, 3).StepMap()

		plain := NewMapping(del, del.Invert())
		assert.Equal(t, 3, plain.Map(2, 1))

		mirrored := NewMapping(del, del.Invert())
		mirrored.SetMirror(0, 1)
		assert.Equal(t, 2, mirrored.Map(2, 1))
	})

	t.Run("slice test", func(t *testing.T) {
		m := NewMapping(Insert(0, "a").StepMap(), Insert(0, "b").StepMap(), Insert(0, "c").StepMap())
		assert.Equal(t, 3, m.Map(0, 1))
		assert.Equal(t, 2, m.Slice(1, m.Len()).Map(0, 1))
		assert.Equal(t, 1, m.Slice(0, 1).Map(0, 1))

		sliced := m.Slice(0, m.Len())
		sliced.SetMirror(0, 2)
		_, ok := m.getMirror(0)
		assert.False(t, ok)
	})

	t.Run("append mapping test", func(t *testing.T) {
		del := Delete(1, 3).StepMap()
		inner := NewMapping(del)
		inner.AppendMapMirrored(del.Invert(), 0)

		outer := NewMapping(Insert(0, "x").StepMap())
		outer.AppendMapping(inner)
		assert.Equal(t, 3, outer.Len())
		assert.Equal(t, 3, outer.Map(2, 1))
		mirr, ok := outer.getMirror(2)
		assert.True(t, ok)
		assert.Equal(t, 1, mirr)
	})
}

func TestTransform(t *testing.T) {
	tr := NewTransform("abc")
	require.NoError(t, tr.Step(Insert(3, "d")))
	require.NoError(t, tr.Step(Delete(0, 1)))

	assert.Equal(t, "bcd", tr.Doc())
	assert.Equal(t, "abc", tr.Before())
	assert.Equal(t, []string{"abc", "abcd"}, tr.Docs())
	assert.Len(t, tr.Steps(), 2)
	assert.Equal(t, 3, tr.Mapping().Map(3, 1))

	err := tr.Step(Delete(2, 10))
	assert.Error(t, err)
	assert.Equal(t, "bcd", tr.Doc())
	assert.Len(t, tr.Steps(), 2)
	assert.Equal(t, 2, tr.Mapping().Len())
}

func TestCodec(t *testing.T) {
	t.Run("encode and decode test", func(t *testing.T) {
		data, err := Encode(Insert(0, "hi"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"stepType":"replace","from":0,"to":0,"text":"hi"}`, string(data))

		data, err = Encode(Delete(2, 4))
		require.NoError(t, err)
		assert.JSONEq(t, `{"stepType":"replace","from":2,"to":4}`, string(data))

		s, err := Decode([]byte(`{"stepType":"replace","from":1,"to":2,"text":"x"}`))
		require.NoError(t, err)
		assert.Equal(t, NewReplaceStep(1, 2, "x"), s)
	})

	t.Run("malformed step test", func(t *testing.T) {
		for _, data := range []string{
			`not json`,
			`{"stepType":"addMark","from":0,"to":1}`,
			`{"stepType":"replace","from":3,"to":1}`,
			`{"stepType":"replace","from":1}`,
			`{"stepType":"replace","from":-1,"to":1}`,
		} {
			_, err := Decode([]byte(data))
			assert.ErrorIs(t, err, ErrMalformedStep, data)
			assert.Equal(t, errors.ErrCodeInvalidArgument, errors.StatusOf(err), data)
		}
	})

	t.Run("decode all fails as a whole test", func(t *testing.T) {
		_, err := DecodeAll([]json.RawMessage{
			[]byte(`{"stepType":"replace","from":0,"to":0,"text":"a"}`),
			[]byte(`{}`),
		})
		assert.ErrorIs(t, err, ErrMalformedStep)
	})
}
