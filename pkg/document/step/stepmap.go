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

const (
	delBefore = 1 << iota
	delAfter
	delAcross
	delSide
)

const (
	recoverFactor = 1 << 16
	noRecover     = -1
)

func makeRecover(index, offset int) int {
	return index + offset*recoverFactor
}

func recoverIndex(value int) int {
	return value & (recoverFactor - 1)
}

func recoverOffset(value int) int {
	return (value - recoverIndex(value)) / recoverFactor
}

// MapResult is the result of mapping a position, carrying the information
// about whether the content around it was deleted.
type MapResult struct {
	// Pos is the mapped version of the position.
	Pos int

	delInfo int
	recover int
}

// Deleted returns whether the position was deleted, i.e. whether the step
// removed the token on the side queried by assoc from the document.
func (r MapResult) Deleted() bool {
	return r.delInfo&delSide > 0
}

// DeletedBefore returns whether the token before the mapped position was deleted.
func (r MapResult) DeletedBefore() bool {
	return r.delInfo&(delBefore|delAcross) > 0
}

// DeletedAfter returns whether the token after the mapped position was deleted.
func (r MapResult) DeletedAfter() bool {
	return r.delInfo&(delAfter|delAcross) > 0
}

// DeletedAcross returns whether a deleted range spanned across the position,
// so that both the token before and after it were deleted.
func (r MapResult) DeletedAcross() bool {
	return r.delInfo&delAcross > 0
}

// Mappable is something that can map positions of one document version onto
// another. Positive assoc keeps a position after content inserted at it,
// negative assoc keeps it before.
type Mappable interface {
	Map(pos, assoc int) int
	MapResult(pos, assoc int) MapResult
}

// Range is one replaced range of a StepMap: OldSize runes at Start were
// replaced by NewSize runes.
type Range struct {
	Start   int
	OldSize int
	NewSize int
}

// StepMap describes the position changes made by a single step. It is
// immutable.
type StepMap struct {
	ranges   []Range
	inverted bool
}

// EmptyMap is a StepMap that maps every position onto itself.
var EmptyMap = &StepMap{}

// NewStepMap creates a StepMap from the given ranges, which must be sorted
// and must not overlap.
func NewStepMap(ranges ...Range) *StepMap {
	if len(ranges) == 0 {
		return EmptyMap
	}
	rs := make([]Range, len(ranges))
	copy(rs, ranges)
	return &StepMap{ranges: rs}
}

// Invert returns a StepMap that maps positions in the result of the step
// back onto the positions before it.
func (m *StepMap) Invert() *StepMap {
	return &StepMap{ranges: m.ranges, inverted: !m.inverted}
}

// Map maps the given position.
func (m *StepMap) Map(pos, assoc int) int {
	return m.mapResult(pos, assoc).Pos
}

// MapResult maps the given position and reports what happened around it.
func (m *StepMap) MapResult(pos, assoc int) MapResult {
	return m.mapResult(pos, assoc)
}

func (m *StepMap) sizes(r Range) (int, int) {
	if m.inverted {
		return r.NewSize, r.OldSize
	}
	return r.OldSize, r.NewSize
}

func (m *StepMap) mapResult(pos, assoc int) MapResult {
	diff := 0
	for i, r := range m.ranges {
		start := r.Start
		if m.inverted {
			start -= diff
		}
		if start > pos {
			break
		}

		oldSize, newSize := m.sizes(r)
		end := start + oldSize
		if pos <= end {
			side := assoc
			if oldSize > 0 {
				if pos == start {
					side = -1
				} else if pos == end {
					side = 1
				}
			}

			result := start + diff
			if side >= 0 {
				result += newSize
			}

			rec := noRecover
			edge := end
			if assoc < 0 {
				edge = start
			}
			if pos != edge {
				rec = makeRecover(i, pos-start)
			}

			del := delAcross
			if pos == start {
				del = delAfter
			} else if pos == end {
				del = delBefore
			}
			if (assoc < 0 && pos != start) || (assoc >= 0 && pos != end) {
				del |= delSide
			}

			return MapResult{Pos: result, delInfo: del, recover: rec}
		}
		diff += newSize - oldSize
	}

	return MapResult{Pos: pos + diff, recover: noRecover}
}

// recover maps a position recorded inside a replaced range back through the
// range it was deleted by.
func (m *StepMap) recover(value int) int {
	diff := 0
	index := recoverIndex(value)
	if !m.inverted {
		for i := 0; i < index; i++ {
			diff += m.ranges[i].NewSize - m.ranges[i].OldSize
		}
	}
	return m.ranges[index].Start + diff + recoverOffset(value)
}

// ForEach calls fn for each changed range with its start and end in the old
// document and in the new document.
func (m *StepMap) ForEach(fn func(oldStart, oldEnd, newStart, newEnd int)) {
	diff := 0
	for _, r := range m.ranges {
		oldSize, newSize := m.sizes(r)
		oldStart := r.Start
		if m.inverted {
			oldStart -= diff
		}
		newStart := oldStart + diff
		fn(oldStart, oldStart+oldSize, newStart, newStart+newSize)
		diff += newSize - oldSize
	}
}
