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

package logging

import (
	"go.uber.org/zap/zapcore"

	"github.com/yorkie-team/mdsync/pkg/errors"
)

// LevelOf determines the log level of a swallowed failure from its status.
// Transient range errors and lifecycle misuse are expected and stay at debug,
// malformed input is worth noting, and desync needs attention.
func LevelOf(err error) zapcore.Level {
	if err == nil {
		return zapcore.DebugLevel
	}

	switch errors.StatusOf(err) {
	case errors.ErrCodeOutOfRange, errors.ErrCodeFailedPrecondition:
		return zapcore.DebugLevel
	case errors.ErrCodeInvalidArgument, errors.ErrCodeNotFound:
		return zapcore.WarnLevel
	case errors.ErrCodeAborted, errors.ErrCodeInternal:
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}

// LogFailure logs err with the level chosen by LevelOf, attaching the status
// and any metadata of the error as fields.
func LogFailure(logger Logger, operation string, err error) {
	info := errors.ErrorInfoOf(err)
	args := []interface{}{"op", operation, "status", info.StatusString}
	for k, v := range info.Metadata {
		args = append(args, k, v)
	}

	switch LevelOf(err) {
	case zapcore.DebugLevel:
		logger.Debugw(info.Message, args...)
	case zapcore.WarnLevel:
		logger.Warnw(info.Message, args...)
	default:
		logger.Errorw(info.Message, args...)
	}
}
