// Copyright 2024 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd holds the configuration-loading scaffolding shared by the
// tecnicofs-server and tecnicofs-client binaries: resolving an optional
// --config-file into viper, unmarshalling the result into a cfg.Config,
// and wiring the logger from the result.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tecnicofs-project/tecnicofs/cfg"
	"github.com/tecnicofs-project/tecnicofs/internal/logger"
)

// LoadConfig resolves cfgFile (if set) via viper, unmarshals the bound
// flags and config file into a cfg.Config, and initializes the logger
// from the resulting logging section.
func LoadConfig(cfgFile string) (cfg.Config, error) {
	if cfgFile != "" {
		resolved, err := filepath.Abs(cfgFile)
		if err != nil {
			return cfg.Config{}, fmt.Errorf("resolving config file path: %w", err)
		}
		viper.SetConfigFile(resolved)
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			return cfg.Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	var c cfg.Config
	if err := viper.Unmarshal(&c); err != nil {
		return cfg.Config{}, fmt.Errorf("unmarshalling configuration: %w", err)
	}

	if err := logger.InitLogFile(c.Logging); err != nil {
		return cfg.Config{}, fmt.Errorf("initializing logger: %w", err)
	}
	logger.SetLogFormat(c.Logging.Format)

	return c, nil
}

// BindConfigFileFlag registers the shared --config-file persistent flag
// on cmd, returning the string it will be populated into.
func BindConfigFileFlag(cmd *cobra.Command) *string {
	var cfgFile string
	cmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "Path to a YAML configuration file.")
	return &cfgFile
}

// RunOrExit executes root and exits the process with status 1 on error,
// matching the teacher's top-level Execute pattern.
func RunOrExit(root *cobra.Command) {
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
