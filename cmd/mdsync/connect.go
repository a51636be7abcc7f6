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

package main

import (
	"bufio"
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yorkie-team/mdsync/internal/logging"
	"github.com/yorkie-team/mdsync/pkg/session"
	"github.com/yorkie-team/mdsync/pkg/transport"
)

var connectClientID string

func newConnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect [url]",
		Short: "Join a collaboration host and append lines read from stdin to the document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig()
			if err != nil {
				return err
			}

			clientID := connectClientID
			if clientID == "" {
				clientID = uuid.New().String()
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ctx = logging.WithClient(logging.With(ctx, logging.New("connect")), clientID)
			logger := logging.From(ctx)

			bridge, err := transport.Dial(ctx, args[0], clientID, nil)
			if err != nil {
				return err
			}

			s, err := session.New("", 0,
				session.WithClientID(clientID),
				session.WithConfig(conf.Session),
				session.WithListener(bridge.Announce),
				session.WithLogger(logger),
			)
			if err != nil {
				bridge.Close()
				return err
			}
			defer s.Destroy()

			go appendLines(cmd, s, logger)

			if err := bridge.Run(ctx, s); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			content, _ := s.Content()
			cmd.Printf("content: %q\n", content)
			return nil
		},
	}
}

// appendLines appends every line of the command's input to the end of the
// document.
func appendLines(cmd *cobra.Command, s *session.Session, logger logging.Logger) {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		err := s.Append(scanner.Text() + "\n")
		if errors.Is(err, session.ErrSessionNotActive) {
			return
		}
		if err != nil {
			logging.LogFailure(logger, "append line", err)
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warnw("read input", "error", err)
	}
}

func init() {
	cmd := newConnectCmd()
	cmd.Flags().StringVar(
		&connectClientID,
		"client-id",
		"",
		"Client ID announced to the host, random if empty",
	)

	rootCmd.AddCommand(cmd)
}
