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

// Transform accumulates steps applied to a document, keeping every
// intermediate document and the mapping from the first to the last.
type Transform struct {
	doc     string
	docs    []string
	steps   []Step
	mapping *Mapping
}

// NewTransform creates a new transform starting at the given document.
func NewTransform(doc string) *Transform {
	return &Transform{
		doc:     doc,
		mapping: NewMapping(),
	}
}

// Step applies the given step. When the step fails to apply, the transform
// is left unchanged and the error is returned.
func (t *Transform) Step(s Step) error {
	doc, err := s.Apply(t.doc)
	if err != nil {
		return err
	}

	t.docs = append(t.docs, t.doc)
	t.steps = append(t.steps, s)
	t.mapping.AppendMap(s.StepMap())
	t.doc = doc
	return nil
}

// Doc returns the current document.
func (t *Transform) Doc() string {
	return t.doc
}

// Before returns the document the transform started at.
func (t *Transform) Before() string {
	if len(t.docs) > 0 {
		return t.docs[0]
	}
	return t.doc
}

// Steps returns the applied steps.
func (t *Transform) Steps() []Step {
	return t.steps
}

// Docs returns the documents before each of the applied steps.
func (t *Transform) Docs() []string {
	return t.docs
}

// Mapping returns the mapping of positions from the start document onto the
// current one.
func (t *Transform) Mapping() *Mapping {
	return t.mapping
}

// DocChanged returns whether any step has been applied.
func (t *Transform) DocChanged() bool {
	return len(t.steps) > 0
}
