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

// Mapping is a pipeline of step maps. Maps can be paired as mirror images
// of each other, so that a position deleted by the first and restored by the
// second maps back onto its original location.
type Mapping struct {
	maps   []*StepMap
	mirror []int
	from   int
	to     int
}

// NewMapping creates a mapping over the given maps.
func NewMapping(maps ...*StepMap) *Mapping {
	ms := make([]*StepMap, len(maps))
	copy(ms, maps)
	return &Mapping{maps: ms, to: len(ms)}
}

// Len returns the number of maps in this mapping.
func (m *Mapping) Len() int {
	return len(m.maps)
}

// Maps returns the step maps of this mapping.
func (m *Mapping) Maps() []*StepMap {
	return m.maps[m.from:m.to]
}

// Slice creates a mapping that covers only the maps in [from, to). The
// mirror pairs are copied, so mirrors set on either side later are not
// shared.
func (m *Mapping) Slice(from, to int) *Mapping {
	var mirror []int
	if m.mirror != nil {
		mirror = make([]int, len(m.mirror))
		copy(mirror, m.mirror)
	}
	n := len(m.maps)
	return &Mapping{maps: m.maps[:n:n], mirror: mirror, from: from, to: to}
}

// AppendMap adds a step map to the end of this mapping.
func (m *Mapping) AppendMap(sm *StepMap) {
	m.maps = append(m.maps, sm)
	m.to = len(m.maps)
}

// AppendMapMirrored adds a step map that is the mirror image of the map at
// the given index.
func (m *Mapping) AppendMapMirrored(sm *StepMap, mirrors int) {
	m.AppendMap(sm)
	m.SetMirror(len(m.maps)-1, mirrors)
}

// AppendMapping adds all the step maps of the given mapping to this one,
// preserving their mirror pairs.
func (m *Mapping) AppendMapping(other *Mapping) {
	startSize := len(m.maps)
	for i, sm := range other.maps {
		if mirr, ok := other.getMirror(i); ok && mirr < i {
			m.AppendMapMirrored(sm, startSize+mirr)
			continue
		}
		m.AppendMap(sm)
	}
}

// SetMirror marks the maps at n and other as mirror images of each other.
func (m *Mapping) SetMirror(n, other int) {
	m.mirror = append(m.mirror, n, other)
}

func (m *Mapping) getMirror(n int) (int, bool) {
	for i := 0; i < len(m.mirror); i++ {
		if m.mirror[i] != n {
			continue
		}
		if i%2 == 0 {
			return m.mirror[i+1], true
		}
		return m.mirror[i-1], true
	}
	return 0, false
}

// Map maps a position through this mapping.
func (m *Mapping) Map(pos, assoc int) int {
	if m.mirror != nil {
		return m.mapResult(pos, assoc).Pos
	}
	for i := m.from; i < m.to; i++ {
		pos = m.maps[i].Map(pos, assoc)
	}
	return pos
}

// MapResult maps a position through this mapping, returning the deletion
// information collected along the way.
func (m *Mapping) MapResult(pos, assoc int) MapResult {
	return m.mapResult(pos, assoc)
}

func (m *Mapping) mapResult(pos, assoc int) MapResult {
	delInfo := 0
	for i := m.from; i < m.to; i++ {
		sm := m.maps[i]
		result := sm.MapResult(pos, assoc)
		if result.recover != noRecover {
			if corr, ok := m.getMirror(i); ok && corr > i && corr < m.to {
				i = corr
				pos = m.maps[corr].recover(result.recover)
				continue
			}
		}

		delInfo |= result.delInfo
		pos = result.Pos
	}

	return MapResult{Pos: pos, delInfo: delInfo, recover: noRecover}
}
