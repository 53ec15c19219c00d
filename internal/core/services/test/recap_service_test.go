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

// Package services_test contains tests for the recap data access layer that
// do not require live cloud clients: URI validation for signed URLs and the
// shape of the listing queries.
package services_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/zeebo/assert"

	"github.com/mediawatch/gcp-go-video-recap/internal/core/services"
)

// TestGenerateSignedURLRejectsBadURIs verifies that malformed GCS URIs are
// rejected before any client call is attempted.
func TestGenerateSignedURLRejectsBadURIs(t *testing.T) {
	svc := &services.RecapService{SignerEmail: "signer@project.iam.gserviceaccount.com"}
	ctx := context.Background()

	// Not a gs:// URI at all.
	_, err := svc.GenerateSignedURL(ctx, "https://storage.googleapis.com/bucket/object.mp4", time.Hour)
	assert.Error(t, err)

	// Bucket with no object path.
	_, err = svc.GenerateSignedURL(ctx, "gs://bucket-only", time.Hour)
	assert.Error(t, err)
}

// TestQueryConstantsFormat checks that the query templates expand with their
// placeholders in the documented order.
func TestQueryConstantsFormat(t *testing.T) {
	byId := fmt.Sprintf(services.QryFindRecapById, "proj.ds.recaps", "abc-123")
	assert.True(t, strings.Contains(byId, "`proj.ds.recaps`"))
	assert.True(t, strings.Contains(byId, "id = 'abc-123'"))

	listing := fmt.Sprintf(services.QryListRecaps, "proj.ds.recaps", 25)
	assert.True(t, strings.Contains(listing, "ORDER BY created_at DESC LIMIT 25"))

	bySource := fmt.Sprintf(services.QryListRecapsBySource, "proj.ds.recaps", "gs://bucket/cam.mp4", 10)
	assert.True(t, strings.Contains(bySource, "source_uri = 'gs://bucket/cam.mp4'"))
	assert.True(t, strings.Contains(bySource, "LIMIT 10"))
}
