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
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yorkie-team/mdsync/internal/config"
	"github.com/yorkie-team/mdsync/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "mdsync",
	Short:         "Collaborative markdown editing core based on operational transformation",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Run executes CLI.
func Run() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}

	return 0
}

// loadConfig builds the configuration from the config file, if any, and lets
// flags and MDSYNC_ environment variables override it.
func loadConfig() (*config.Config, error) {
	conf := config.NewConfig()
	if path := viper.GetString("config"); path != "" {
		parsed, err := config.NewConfigFromFile(path)
		if err != nil {
			return nil, err
		}
		conf = parsed
	}

	if viper.IsSet("logLevel") {
		conf.Logging.Level = viper.GetString("logLevel")
	}
	if viper.IsSet("logFormat") {
		conf.Logging.Format = viper.GetString("logFormat")
	}
	if viper.IsSet("debounceInterval") {
		conf.Session.DebounceInterval = viper.GetString("debounceInterval")
	}

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := conf.Apply(); err != nil {
		return nil, err
	}

	return conf, nil
}

func init() {
	// Logs go to stderr so that command output can be piped.
	logging.SetOutput(os.Stderr)

	viper.SetEnvPrefix("mdsync")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().StringP(
		"config",
		"c",
		"",
		"Config path",
	)
	rootCmd.PersistentFlags().StringP(
		"log-level",
		"l",
		config.DefaultLogLevel,
		"Log level: debug, info, warn, error, panic, fatal",
	)
	rootCmd.PersistentFlags().String(
		"log-format",
		config.DefaultLogFormat,
		"Log format: console, json",
	)
	rootCmd.PersistentFlags().String(
		"debounce",
		"",
		"Period local changes are collected for before they are announced, e.g. 500ms",
	)

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("logLevel", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logFormat", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("debounceInterval", rootCmd.PersistentFlags().Lookup("debounce"))
}
