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

package commands

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediawatch/gcp-go-video-recap/internal/core/cor"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/model"
)

func newParserContext(raw string) cor.Context {
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	ctx.Add(cor.CtxIn, raw)
	return ctx
}

func TestSummaryJsonToStructParsesFencedJSON(t *testing.T) {
	example, err := json.Marshal(model.GetExampleVideoSummary())
	require.NoError(t, err)

	ctx := newParserContext("```json\n" + string(example) + "\n```")
	cmd := NewSummaryJsonToStruct("summary-parser")
	cmd.Execute(ctx)

	require.False(t, ctx.HasErrors())
	summary := ctx.Get(cor.CtxOut).(*model.VideoSummary)
	assert.NotEmpty(t, summary.Summary)
	assert.Len(t, summary.KeyEvents, 3)
	assert.Equal(t, model.SignificanceHigh, summary.KeyEvents[1].Significance)
	assert.Same(t, summary, ctx.Get(GetVideoSummaryName()))
}

func TestSummaryJsonToStructRejectsGarbage(t *testing.T) {
	ctx := newParserContext("not json at all")
	cmd := NewSummaryJsonToStruct("summary-parser")
	cmd.Execute(ctx)

	require.True(t, ctx.HasErrors())
	var sumErr *model.SummaryError
	for _, e := range ctx.GetErrors() {
		assert.True(t, errors.As(e, &sumErr))
	}
}

func TestSummaryJsonToStructRejectsEmptySummary(t *testing.T) {
	ctx := newParserContext(`{"summary": "", "key_events": []}`)
	cmd := NewSummaryJsonToStruct("summary-parser")
	cmd.Execute(ctx)

	assert.True(t, ctx.HasErrors())
}
