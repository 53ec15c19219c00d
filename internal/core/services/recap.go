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
// This file, `recap.go`, defines the RecapService, which is responsible for
// retrieving recap records from BigQuery and generating secure, time-limited
// URLs for streaming the source videos stored in Google Cloud Storage (GCS).
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	credentialspb "cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/mediawatch/gcp-go-video-recap/internal/core/model"
)

// RecapService is a struct that encapsulates the clients and configuration
// needed to read back persisted recaps. It acts as a data access layer,
// abstracting the details of interacting with BigQuery and GCS.
type RecapService struct {
	BigqueryClient *bigquery.Client                  // Client for interacting with Google BigQuery.
	StorageClient  *storage.Client                   // Client for interacting with Google Cloud Storage.
	IAMClient      *credentials.IamCredentialsClient // Client for interacting with IAM, used for signing URLs.
	SignerEmail    string                            // The service account email used to sign URLs.
	DatasetName    string                            // The name of the BigQuery dataset (e.g., "video_recap_ds").
	RecapTable     string                            // The name of the BigQuery table containing recap records.
}

// GetFQN (Get Fully Qualified Name) returns the complete, queryable name for
// the recap table in BigQuery, formatted with dots instead of colons.
// Example: `gcp-project-id.video_recap_ds.recaps`
//
// Outputs:
//   - string: The fully qualified table name.
func (s *RecapService) GetFQN() string {
	fqn := s.BigqueryClient.Dataset(s.DatasetName).Table(s.RecapTable).FullyQualifiedName()
	return strings.Replace(fqn, ":", ".", -1)
}

// Get retrieves a single recap record from BigQuery based on its unique ID.
//
// Inputs:
//   - ctx: The context for the request, used for cancellation and tracing.
//   - id: The unique identifier of the recap record to retrieve.
//
// Outputs:
//   - *model.RecapRecord: A pointer to the retrieved record.
//   - error: An error if the query fails or no record is found.
func (s *RecapService) Get(ctx context.Context, id string) (*model.RecapRecord, error) {
	queryText := fmt.Sprintf(QryFindRecapById, s.GetFQN(), id)
	q := s.BigqueryClient.Query(queryText)
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, err
	}
	// ID is a primary key, so at most one row comes back.
	record := &model.RecapRecord{}
	err = itr.Next(record)
	if err == iterator.Done {
		return nil, fmt.Errorf("recap %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// List retrieves the most recent recap records, newest first. When sourceUri
// is non-empty the listing is restricted to recaps of that source video.
//
// Inputs:
//   - ctx: The context for the request.
//   - sourceUri: Optional source filter, empty for all sources.
//   - limit: The maximum number of records to return.
//
// Outputs:
//   - []*model.RecapRecord: The matching records, possibly empty.
//   - error: An error if the query or row iteration fails.
func (s *RecapService) List(ctx context.Context, sourceUri string, limit int) ([]*model.RecapRecord, error) {
	out := make([]*model.RecapRecord, 0)

	var queryText string
	if len(sourceUri) > 0 {
		queryText = fmt.Sprintf(QryListRecapsBySource, s.GetFQN(), sourceUri, limit)
	} else {
		queryText = fmt.Sprintf(QryListRecaps, s.GetFQN(), limit)
	}

	q := s.BigqueryClient.Query(queryText)
	itr, err := q.Read(ctx)
	if err != nil {
		return out, fmt.Errorf("failed to read from BigQuery: %w", err)
	}

	for {
		record := &model.RecapRecord{}
		err := itr.Next(record)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return out, fmt.Errorf("failed to iterate results: %w", err)
		}
		out = append(out, record)
	}
	return out, nil
}

// GenerateSignedURL creates a time-limited, secure URL to access a private GCS
// object. This allows clients (like a web browser) to stream the source video
// directly from GCS without needing their own credentials. The URL is signed
// through the IAM Credentials API using the service account in `s.SignerEmail`,
// so no local private key is needed.
//
// Inputs:
//   - ctx: The context for the request.
//   - gcsURI: The URI of the GCS object (e.g., "gs://bucket/object.mp4").
//   - expires: The duration for which the URL will be valid.
//
// Outputs:
//   - string: The generated signed URL.
//   - error: An error if parsing the URI or signing the URL fails.
func (s *RecapService) GenerateSignedURL(ctx context.Context, gcsURI string, expires time.Duration) (string, error) {
	// ---- 1. Parse the GCS URI ----
	// Example URI: gs://my-bucket/my-folder/my-video.mp4
	const prefix = "gs://"
	if !strings.HasPrefix(gcsURI, prefix) {
		return "", fmt.Errorf("invalid GCS URI format: %s", gcsURI)
	}
	path := strings.TrimPrefix(gcsURI, prefix)
	parts := strings.SplitN(path, "/", 2)
	if len(parts) < 2 {
		return "", fmt.Errorf("invalid GCS URI: unable to determine bucket and object from %s", gcsURI)
	}
	bucketName := parts[0]
	objectName := parts[1]

	// ---- 2. Define Signing Options ----
	// The SignBytes function delegates the actual signing to the IAM
	// Credentials API, which works on GCP infrastructure without local
	// service account keys.
	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(expires),
		GoogleAccessID: s.SignerEmail,
		SignBytes: func(b []byte) ([]byte, error) {
			req := &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.SignerEmail),
				Payload: b,
			}
			resp, err := s.IAMClient.SignBlob(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("IAMClient.SignBlob: %w", err)
			}
			return resp.SignedBlob, nil
		},
	}

	// ---- 3. Generate and Return the URL ----
	u, err := s.StorageClient.Bucket(bucketName).SignedURL(objectName, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).Object(%q).SignedURL: %w", bucketName, objectName, err)
	}
	return u, nil
}
