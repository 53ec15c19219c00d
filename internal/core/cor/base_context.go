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

// Package cor (Chain of Responsibility) provides the building blocks the
// recap workflows are assembled from. This file defines BaseContext, the
// default Context implementation: a data map for values commands exchange,
// an error map keyed by command name, and the scratch-file and
// scratch-directory lists that Close sweeps. A sampling run writes hundreds
// of frame images into one directory, so directories are tracked whole and
// removed recursively rather than file by file.
package cor

import (
	"context"
	"log/slog"
	"os"
)

// BaseContext is the default implementation of the Context interface.
type BaseContext struct {
	data      map[string]interface{}
	errors    map[string]error
	tempFiles []string
	tempDirs  []string
	context   context.Context
}

// NewBaseContext returns a new, empty context ready for a workflow run.
func NewBaseContext() Context {
	return &BaseContext{
		data:      make(map[string]interface{}),
		errors:    make(map[string]error),
		tempFiles: make([]string, 0),
		tempDirs:  make([]string, 0),
	}
}

// SetContext sets the underlying standard Go context. The BaseChain updates
// this as it opens OpenTelemetry spans.
func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

// GetContext retrieves the underlying standard Go context.
func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// Close removes every tracked scratch file and directory. Removal failures
// are logged and do not stop the sweep.
func (c *BaseContext) Close() {
	for _, file := range c.tempFiles {
		if err := os.Remove(file); err != nil {
			slog.Warn("failed to remove scratch file", "path", file, "error", err)
		}
	}
	for _, dir := range c.tempDirs {
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("failed to remove scratch directory", "path", dir, "error", err)
		}
	}
}

// Add stores a key-value pair and returns the context for fluent chaining.
func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

// AddTempFile tracks a scratch file for removal at Close.
func (c *BaseContext) AddTempFile(file string) {
	c.tempFiles = append(c.tempFiles, file)
}

// GetTempFiles returns all tracked scratch file paths.
func (c *BaseContext) GetTempFiles() []string {
	return c.tempFiles
}

// AddTempDir tracks a scratch directory for recursive removal at Close.
func (c *BaseContext) AddTempDir(dir string) {
	c.tempDirs = append(c.tempDirs, dir)
}

// GetTempDirs returns all tracked scratch directory paths.
func (c *BaseContext) GetTempDirs() []string {
	return c.tempDirs
}

// AddError records an error under the command name that produced it.
func (c *BaseContext) AddError(key string, err error) {
	c.errors[key] = err
}

// GetErrors returns the collected errors keyed by command name.
func (c *BaseContext) GetErrors() map[string]error {
	return c.errors
}

// Get retrieves a value by key, or nil when the key is absent.
func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

// Remove deletes a key-value pair.
func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

// HasErrors reports whether any command recorded an error.
func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}
