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
	"fmt"

	"github.com/yorkie-team/mdsync/pkg/errors"
)

// ErrMalformedStep is returned when a step payload cannot be decoded.
var ErrMalformedStep = errors.InvalidArgument("malformed step").WithCode("ErrMalformedStep")

type stepJSON struct {
	StepType string `json:"stepType"`
	From     *int   `json:"from"`
	To       *int   `json:"to"`
	Text     string `json:"text,omitempty"`
}

// Encode encodes the given step into its JSON representation.
func Encode(s Step) (json.RawMessage, error) {
	switch v := s.(type) {
	case *ReplaceStep:
		from, to := v.From, v.To
		data, err := json.Marshal(stepJSON{
			StepType: TypeReplace,
			From:     &from,
			To:       &to,
			Text:     v.Text,
		})
		if err != nil {
			return nil, fmt.Errorf("encode step: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: unsupported step type %T", ErrMalformedStep, s)
	}
}

// EncodeAll encodes the given steps.
func EncodeAll(steps []Step) ([]json.RawMessage, error) {
	result := make([]json.RawMessage, 0, len(steps))
	for _, s := range steps {
		data, err := Encode(s)
		if err != nil {
			return nil, err
		}
		result = append(result, data)
	}
	return result, nil
}

// Decode decodes a step from its JSON representation.
func Decode(data json.RawMessage) (Step, error) {
	var v stepJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedStep, err.Error())
	}

	switch v.StepType {
	case TypeReplace:
		if v.From == nil || v.To == nil {
			return nil, fmt.Errorf("%w: replace step without range", ErrMalformedStep)
		}
		if *v.From < 0 || *v.To < *v.From {
			return nil, fmt.Errorf("%w: invalid range [%d, %d)", ErrMalformedStep, *v.From, *v.To)
		}
		return NewReplaceStep(*v.From, *v.To, v.Text), nil
	default:
		return nil, fmt.Errorf("%w: unknown step type %q", ErrMalformedStep, v.StepType)
	}
}

// DecodeAll decodes the given steps. It fails when any of them is malformed.
func DecodeAll(data []json.RawMessage) ([]Step, error) {
	steps := make([]Step, 0, len(data))
	for i, d := range data {
		s, err := Decode(d)
		if err != nil {
			return nil, fmt.Errorf("decode step %d: %w", i, err)
		}
		steps = append(steps, s)
	}
	return steps, nil
}
