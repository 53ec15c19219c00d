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
// recap workflows are assembled from. This file defines the interfaces:
// a Command is an atomic unit of work, a Chain is an ordered sequence of
// commands (and is itself a Command, so chains nest), and a Context is the
// shared property bag one workflow execution threads through its commands.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the reserved keys the chain uses to pipe one
// command's primary output into the next command's primary input.
const (
	// CtxIn is the default key a command reads its primary input from. The
	// chain copies the previous command's output here before each step.
	CtxIn = "__IN__"
	// CtxOut is the default key a command writes its primary output to.
	CtxOut = "__OUT__"
)

// Context is the shared state for one workflow execution. It carries the
// data commands exchange, the errors they raise, and the scratch files and
// directories they create so everything can be cleaned up in one place.
type Context interface {
	// SetContext sets the standard Go context used for cancellation and
	// OpenTelemetry trace propagation.
	SetContext(context context.Context)

	// GetContext retrieves the standard Go context.
	GetContext() context.Context

	// Add stores a key-value pair. Returns the Context for fluent chaining.
	Add(key string, value interface{}) Context

	// AddError records an error under the name of the command that hit it.
	// Recording an error stops a chain unless it was built with
	// ContinueOnFailure(true).
	AddError(key string, err error)

	// GetErrors returns every error recorded so far, keyed by command name.
	GetErrors() map[string]error

	// Get retrieves a value by key, or nil when absent.
	Get(key string) interface{}

	// Remove deletes a key-value pair.
	Remove(key string)

	// HasErrors reports whether any command recorded an error.
	HasErrors() bool

	// AddTempFile tracks a scratch file for removal at Close.
	AddTempFile(file string)

	// GetTempFiles returns every tracked scratch file path.
	GetTempFiles() []string

	// AddTempDir tracks a scratch directory for recursive removal at Close.
	// Frame extraction uses this: one directory per run holding every
	// sampled image.
	AddTempDir(dir string)

	// GetTempDirs returns every tracked scratch directory path.
	GetTempDirs() []string

	// Close removes all tracked scratch files and directories. Defer it as
	// soon as the context is created; it must run on every exit path.
	Close()
}

// Executable is anything with a core execution step.
type Executable interface {
	// Execute runs the business logic, reading inputs from and writing
	// outputs to the given Context.
	Execute(context Context)
}

// Command is an atomic, testable, thread-safe unit of work.
type Command interface {
	Executable

	// GetName returns the command's unique name, used for logging, metrics,
	// and as the error key in the Context.
	GetName() string

	// GetInputParam returns the Context key the command reads its primary
	// input from.
	GetInputParam() string

	// GetOutputParam returns the Context key the command writes its primary
	// output to.
	GetOutputParam() string

	// IsExecutable is the precondition check the chain runs before Execute.
	IsExecutable(context Context) bool

	// GetTracer returns the command's OpenTelemetry tracer.
	GetTracer() trace.Tracer

	// GetMeter returns the command's OpenTelemetry meter.
	GetMeter() metric.Meter

	// GetSuccessCounter counts successful executions.
	GetSuccessCounter() metric.Int64Counter

	// GetErrorCounter counts failed executions.
	GetErrorCounter() metric.Int64Counter
}

// Chain is an ordered sequence of commands, itself a Command so chains can
// be composed.
type Chain interface {
	Command

	// ContinueOnFailure configures whether the chain keeps executing after
	// a command records an error. The default is to stop.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
