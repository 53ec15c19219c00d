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

package cor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextDataAndErrors(t *testing.T) {
	ctx := NewBaseContext()
	ctx.SetContext(context.Background())

	ctx.Add("key", "value")
	assert.Equal(t, "value", ctx.Get("key"))
	assert.Nil(t, ctx.Get("missing"))

	ctx.Remove("key")
	assert.Nil(t, ctx.Get("key"))

	assert.False(t, ctx.HasErrors())
	ctx.AddError("some-command", errors.New("boom"))
	assert.True(t, ctx.HasErrors())
	assert.Len(t, ctx.GetErrors(), 1)
}

func TestContextCloseRemovesScratch(t *testing.T) {
	base := t.TempDir()

	file := filepath.Join(base, "scratch.bin")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	dir := filepath.Join(base, "frames")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frame_000001.jpg"), []byte("x"), 0o644))

	ctx := NewBaseContext()
	ctx.AddTempFile(file)
	ctx.AddTempDir(dir)
	ctx.Close()

	_, err := os.Stat(file)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

// recordingCommand appends its name to a shared log and copies its input to
// its output, so tests can observe ordering and piping.
type recordingCommand struct {
	BaseCommand
	calls *[]string
	fail  bool
}

func newRecordingCommand(name string, calls *[]string, fail bool) *recordingCommand {
	return &recordingCommand{BaseCommand: *NewBaseCommand(name), calls: calls, fail: fail}
}

func (c *recordingCommand) Execute(ctx Context) {
	*c.calls = append(*c.calls, c.GetName())
	if c.fail {
		ctx.AddError(c.GetName(), errors.New("induced failure"))
		return
	}
	in := ctx.Get(c.GetInputParam()).(string)
	ctx.Add(c.GetOutputParam(), in+"."+c.GetName())
}

func TestChainPipesOutputToInput(t *testing.T) {
	calls := make([]string, 0)
	chain := NewBaseChain("test-chain")
	chain.AddCommand(newRecordingCommand("first", &calls, false))
	chain.AddCommand(newRecordingCommand("second", &calls, false))

	ctx := NewBaseContext()
	ctx.SetContext(context.Background())
	ctx.Add(CtxIn, "seed")

	chain.Execute(ctx)

	require.Equal(t, []string{"first", "second"}, calls)
	assert.Equal(t, "seed.first.second", ctx.Get(CtxIn))
	assert.False(t, ctx.HasErrors())
}

func TestChainStopsOnError(t *testing.T) {
	calls := make([]string, 0)
	chain := NewBaseChain("test-chain")
	chain.AddCommand(newRecordingCommand("first", &calls, true))
	chain.AddCommand(newRecordingCommand("second", &calls, false))

	ctx := NewBaseContext()
	ctx.SetContext(context.Background())
	ctx.Add(CtxIn, "seed")

	chain.Execute(ctx)

	assert.Equal(t, []string{"first"}, calls)
	assert.True(t, ctx.HasErrors())
}

func TestChainContinueOnFailure(t *testing.T) {
	calls := make([]string, 0)
	chain := NewBaseChain("test-chain")
	chain.ContinueOnFailure(true)
	chain.AddCommand(newRecordingCommand("first", &calls, true))

	// The failed command wrote no output, so the second command reads from
	// its own named parameter instead of the piped input.
	second := newRecordingCommand("second", &calls, false)
	second.InputParamName = "seed_key"
	chain.AddCommand(second)

	ctx := NewBaseContext()
	ctx.SetContext(context.Background())
	ctx.Add(CtxIn, "seed")
	ctx.Add("seed_key", "seed")

	chain.Execute(ctx)

	assert.Equal(t, []string{"first", "second"}, calls)
	assert.True(t, ctx.HasErrors())
}
