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
// services. This file defines the Google Cloud Storage notification payload
// and a lightweight internal object reference used by the ingestion
// workflow.
package cloud

// GetGCSObjectName returns the context key commands use to pass the GCS
// object reference through a workflow.
func GetGCSObjectName() string {
	return "__GCS__OBJ__"
}

// GCSPubSubNotification maps the JSON payload GCS publishes to Pub/Sub when
// an object changes in a monitored bucket. A finalize event on the input
// bucket is what triggers an automatic recap run.
type GCSPubSubNotification struct {
	Kind                    string                 `json:"kind"`
	ID                      string                 `json:"id"`
	SelfLink                string                 `json:"selfLink"`
	Name                    string                 `json:"name"`
	Bucket                  string                 `json:"bucket"`
	Generation              string                 `json:"generation"`
	MetaGeneration          string                 `json:"metageneration"`
	ContentType             string                 `json:"contentType"`
	TimeCreated             string                 `json:"timeCreated"`
	Updated                 string                 `json:"updated"`
	StorageClass            string                 `json:"storageClass"`
	TimeStorageClassUpdated string                 `json:"timeStorageClassUpdated"`
	Size                    string                 `json:"size"`
	MD5Hash                 string                 `json:"md5Hash"`
	MediaLink               string                 `json:"mediaLink"`
	MetaData                map[string]interface{} `json:"metadata"`
	Crc32c                  string                 `json:"crc32c"`
	ETag                    string                 `json:"etag"`
}

// GCSObject distills a notification down to what the pipeline needs to
// fetch and classify the video.
type GCSObject struct {
	Bucket   string
	Name     string
	MIMEType string
}

// URI returns the gs:// form of the object reference.
func (o *GCSObject) URI() string {
	return "gs://" + o.Bucket + "/" + o.Name
}
