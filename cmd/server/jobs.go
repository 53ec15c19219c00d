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

// Package main contains the in-memory job store backing the asynchronous
// recap API. A pipeline run takes minutes, so POST /recaps returns a job ID
// immediately and the caller polls for the result. Completed recaps are also
// persisted to BigQuery by the pipeline itself; the job store only tracks
// in-flight and recently finished runs for this process.
package main

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mediawatch/gcp-go-video-recap/internal/core/workflow"
)

// Job lifecycle states.
const (
	JobStatusRunning  = "RUNNING"
	JobStatusComplete = "COMPLETE"
	JobStatusFailed   = "FAILED"
)

// RecapJob tracks one asynchronous pipeline run.
type RecapJob struct {
	Id        string                `json:"id"`
	SourceUri string                `json:"source_uri"`
	Status    string                `json:"status"`
	Error     string                `json:"error,omitempty"`
	Result    *workflow.RecapResult `json:"result,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// JobStore is a mutex-guarded map of jobs keyed by ID.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*RecapJob
}

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*RecapJob)}
}

// Create registers a new running job for the given source and returns it.
func (s *JobStore) Create(sourceUri string) *RecapJob {
	now := time.Now().UTC()
	job := &RecapJob{
		Id:        uuid.New().String(),
		SourceUri: sourceUri,
		Status:    JobStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.Id] = job
	return job
}

// Get returns the job with the given ID, or nil.
func (s *JobStore) Get(id string) *RecapJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jobs[id]
}

// List returns all tracked jobs, newest first not guaranteed.
func (s *JobStore) List() []*RecapJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*RecapJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job)
	}
	return out
}

// Complete marks the job finished with its result.
func (s *JobStore) Complete(id string, result *workflow.RecapResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		job.Status = JobStatusComplete
		job.Result = result
		job.UpdatedAt = time.Now().UTC()
	}
}

// Fail marks the job failed with the error text.
func (s *JobStore) Fail(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		job.Status = JobStatusFailed
		job.Error = err.Error()
		job.UpdatedAt = time.Now().UTC()
	}
}
