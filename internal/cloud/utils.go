// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cloud provides components for interacting with Google Cloud
// services. This file contains the hierarchical configuration loader: a base
// TOML file is read first, then a runtime-specific file (e.g.
// .env.local.toml, .env.test.toml) overwrites whatever it redefines. The
// config directory and runtime name come from environment variables.
package cloud

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	ConfigFileBaseName  = ".env"              // Base name for configuration files, e.g. ".env.toml".
	ConfigFileExtension = ".toml"             // File extension for configuration files.
	ConfigSeparator     = "."                 // Separator in override file names, e.g. ".env.local.toml".
	EnvConfigFilePrefix = "GCP_CONFIG_PREFIX" // Environment variable naming the config directory.
	EnvConfigRuntime    = "GCP_RUNTIME"       // Environment variable naming the runtime, e.g. "local", "test", "prod".
)

// fileExists reports whether a file or directory exists at the given path.
func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// LoadConfig populates baseConfig from the base TOML file, then applies the
// runtime-specific override file on top. Missing files are skipped silently;
// a file that exists but fails to decode is fatal, since running with a half
// loaded configuration is worse than not starting.
func LoadConfig(baseConfig interface{}) {
	configurationFilePrefix := os.Getenv(EnvConfigFilePrefix)
	if len(configurationFilePrefix) > 0 && !strings.HasSuffix(configurationFilePrefix, string(os.PathSeparator)) {
		configurationFilePrefix = configurationFilePrefix + string(os.PathSeparator)
	}

	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "test"
	}

	baseConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigFileExtension
	envConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension
	slog.Info("loading configuration",
		"base_file", baseConfigFileName,
		"runtime_file", envConfigFileName,
		"runtime", runtimeEnvironment)

	if fileExists(baseConfigFileName) {
		if _, err := toml.DecodeFile(baseConfigFileName, baseConfig); err != nil {
			slog.Error("failed to decode base configuration file", "file", baseConfigFileName, "error", err)
			os.Exit(1)
		}
	}

	if fileExists(envConfigFileName) {
		if _, err := toml.DecodeFile(envConfigFileName, baseConfig); err != nil {
			slog.Error("failed to decode environment configuration file", "file", envConfigFileName, "error", err)
			os.Exit(1)
		}
	}
}
