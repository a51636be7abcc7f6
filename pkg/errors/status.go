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

// Package errors provides status-coded errors shared by the editing core.
// Every failure that crosses a session boundary is classified by one of
// these codes so that callers can decide whether to resync, retry or ignore.
package errors

import "fmt"

// StatusCode represents the error codes used throughout mdsync. The numeric
// values follow the Connect/gRPC code space.
type StatusCode int

const (
	// ErrCodeInvalidArgument indicates malformed input such as an undecodable
	// step or selection payload.
	ErrCodeInvalidArgument StatusCode = 3

	// ErrCodeNotFound indicates that the requested entity does not exist.
	ErrCodeNotFound StatusCode = 5

	// ErrCodeFailedPrecondition indicates an operation invoked while the
	// session is not in the state required for it, e.g. after destroy.
	ErrCodeFailedPrecondition StatusCode = 9

	// ErrCodeAborted indicates a desynchronization: a remote batch whose base
	// version does not match the confirmed version. Only a full resync
	// recovers from it.
	ErrCodeAborted StatusCode = 10

	// ErrCodeOutOfRange indicates a position that does not fit into the
	// current document. Usually a benign race with a concurrent delete.
	ErrCodeOutOfRange StatusCode = 11

	// ErrCodeInternal indicates that some invariant of the core is broken.
	ErrCodeInternal StatusCode = 13
)

// String returns the string representation of the error code.
func (c StatusCode) String() string {
	switch c {
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeFailedPrecondition:
		return "failed_precondition"
	case ErrCodeAborted:
		return "aborted"
	case ErrCodeOutOfRange:
		return "out_of_range"
	case ErrCodeInternal:
		return "internal"
	default:
		return fmt.Sprintf("code_%d", int(c))
	}
}

// IsTransient returns true if the code describes a condition that is expected
// to heal by itself with the next update.
func (c StatusCode) IsTransient() bool {
	return c == ErrCodeOutOfRange
}

// RequiresResync returns true if the code describes a condition that can only
// be recovered from by replacing the whole document.
func (c StatusCode) RequiresResync() bool {
	return c == ErrCodeAborted
}
