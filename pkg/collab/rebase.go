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

package collab

import (
	"fmt"

	"github.com/yorkie-team/mdsync/pkg/document/step"
	"github.com/yorkie-team/mdsync/pkg/errors"
)

// Rebaseable is a local step not yet confirmed by the host, kept together
// with its inverse so that it can be taken out of the document and reapplied
// on top of remote steps.
type Rebaseable struct {
	Step     step.Step
	Inverted step.Step

	// Origin identifies the local change the step was part of.
	Origin int
}

// rebaseSteps undoes the given pending steps, applies the remote steps over
// the result and reapplies the pending steps mapped through the remote ones,
// all within tr. Pending steps whose mapped form no longer applies are
// dropped. It returns the rebased pending steps.
func rebaseSteps(steps []*Rebaseable, over []step.Step, tr *step.Transform) ([]*Rebaseable, error) {
	for i := len(steps) - 1; i >= 0; i-- {
		if err := tr.Step(steps[i].Inverted); err != nil {
			return nil, errors.Internal(fmt.Sprintf("undo pending step %d: %s", i, err.Error()))
		}
	}

	for i, s := range over {
		if err := tr.Step(s); err != nil {
			return nil, errors.WithMetadata(ErrStepRejected, map[string]string{
				"index": fmt.Sprint(i),
				"cause": err.Error(),
			})
		}
	}

	var result []*Rebaseable
	mapFrom := len(steps)
	for _, pending := range steps {
		mapping := tr.Mapping()
		mapped := pending.Step.Map(mapping.Slice(mapFrom, mapping.Len()))
		mapFrom--
		if mapped == nil {
			continue
		}

		doc := tr.Doc()
		if err := tr.Step(mapped); err != nil {
			continue
		}
		mapping.SetMirror(mapFrom, len(tr.Steps())-1)
		result = append(result, &Rebaseable{
			Step:     mapped,
			Inverted: mapped.Invert(doc),
			Origin:   pending.Origin,
		})
	}

	return result, nil
}
