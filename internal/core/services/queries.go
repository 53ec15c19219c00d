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

// Package services contains the business logic for interacting with data sources.
// This file, `queries.go`, centralizes the BigQuery SQL query strings used by
// the recap service. Keeping the queries as constants in one file makes them
// easy to review and reuse. Each query uses `fmt.Sprintf` format verbs
// (e.g., %s, %d) as placeholders for values injected at runtime.
package services

const (
	// QryFindRecapById defines a simple lookup query to retrieve a complete
	// recap record from the recap table using its unique ID.
	//
	// Placeholders:
	// - `%s`: The fully qualified name of the recap table.
	// - `%s`: The unique ID of the recap record to find.
	QryFindRecapById = "SELECT * FROM `%s` WHERE id = '%s'"

	// QryListRecaps defines the listing query for the recap history view.
	// Records are returned newest first so the most recent analysis leads.
	//
	// Placeholders:
	// - `%s`: The fully qualified name of the recap table.
	// - `%d`: The maximum number of records to return.
	QryListRecaps = "SELECT * FROM `%s` ORDER BY created_at DESC LIMIT %d"

	// QryListRecapsBySource narrows the history to a single source video,
	// which is how repeated runs over the same camera feed are compared.
	//
	// Placeholders:
	// - `%s`: The fully qualified name of the recap table.
	// - `%s`: The source URI the recaps were generated from.
	// - `%d`: The maximum number of records to return.
	QryListRecapsBySource = "SELECT * FROM `%s` WHERE source_uri = '%s' ORDER BY created_at DESC LIMIT %d"
)
