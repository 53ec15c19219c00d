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

// Package commands provides the concrete Command implementations the recap
// workflows are built from. This file defines the persistence step: the
// assembled RecapRecord is streamed into BigQuery through a table Inserter,
// with the struct's bigquery tags mapping fields to columns.
//
// Persistence is best effort. The recap itself succeeded by the time this
// command runs, so a sink outage is logged rather than recorded as a chain
// error; the caller still gets the summary.
package commands

import (
	"log/slog"

	"cloud.google.com/go/bigquery"

	"github.com/mediawatch/gcp-go-video-recap/internal/core/cor"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/model"
)

// RecapPersistToBigQuery saves a RecapRecord to a BigQuery table.
type RecapPersistToBigQuery struct {
	cor.BaseCommand
	client  *bigquery.Client
	dataset string
	table   string
}

// NewRecapPersistToBigQuery constructs the persistence command for the
// given dataset and table.
func NewRecapPersistToBigQuery(name string, client *bigquery.Client, dataset string, table string) *RecapPersistToBigQuery {
	return &RecapPersistToBigQuery{BaseCommand: *cor.NewBaseCommand(name), client: client, dataset: dataset, table: table}
}

// Execute streams the record into the table.
func (s *RecapPersistToBigQuery) Execute(context cor.Context) {
	record := context.Get(s.GetInputParam()).(*model.RecapRecord)

	if s.client == nil {
		slog.Debug("no BigQuery client configured, skipping persistence", "id", record.Id)
		context.Add(s.GetOutputParam(), record)
		return
	}

	inserter := s.client.Dataset(s.dataset).Table(s.table).Inserter()
	if err := inserter.Put(context.GetContext(), record); err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		slog.Error("failed to persist recap record",
			"id", record.Id,
			"source", record.SourceUri,
			"error", err)
	} else {
		s.GetSuccessCounter().Add(context.GetContext(), 1)
		slog.Info("persisted recap record", "id", record.Id, "source", record.SourceUri)
	}

	// The record stays the chain output either way.
	context.Add(s.GetOutputParam(), record)
}
