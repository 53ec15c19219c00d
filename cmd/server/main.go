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

package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/mediawatch/gcp-go-video-recap/internal/core/model"
	"github.com/mediawatch/gcp-go-video-recap/internal/telemetry"
)

func main() {
	config := GetConfig()

	telemetry.SetupLogging(config.Application.Name)
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	InitState(ctx)
	slog.Info("Initialized State")

	r := gin.Default()

	// Add OpenTelemetry middleware
	r.Use(otelgin.Middleware("video-recap-server"))

	// Default CORS allows all origins, methods, and headers, which keeps
	// local frontend development friction free.
	r.Use(cors.Default())

	// Create the "/api/v1" group
	apiV1 := r.Group("/api/v1")
	{
		RecapRouter(apiV1)
		FileUpload(apiV1)
		Dashboard(apiV1)
	}

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	// Start the server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen: ", "error", err)
		}
	}()
	slog.Info("Server Ready on port 8080")

	// Wait for an interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed:", "error", err)
	}

	log.Println("Server exiting")
}

// recapRequest is the POST body for starting a run. Every sampling field is
// optional; omitted fields fall back to the configured defaults.
type recapRequest struct {
	SourceUri            string  `json:"source_uri" binding:"required"`
	SampleIntervalMillis int     `json:"sample_interval_millis"`
	ResizeRatio          float64 `json:"resize_ratio"`
	BatchSize            int     `json:"batch_size"`
	SlideSize            int     `json:"slide_size"`
}

// parameters merges the request overrides onto the configured defaults.
func (r *recapRequest) parameters() model.SampleParameters {
	params := state.config.Sampling.Parameters()
	if r.SampleIntervalMillis > 0 {
		params.SampleIntervalMillis = r.SampleIntervalMillis
	}
	if r.ResizeRatio > 0 {
		params.ResizeRatio = r.ResizeRatio
	}
	if r.BatchSize > 0 {
		params.BatchSize = r.BatchSize
	}
	if r.SlideSize > 0 {
		params.SlideSize = r.SlideSize
	}
	return params
}

// RecapRouter sets up the routes for starting recap runs and reading them back.
func RecapRouter(r *gin.RouterGroup) {
	recaps := r.Group("/recaps")
	{
		// Start an asynchronous recap run. Returns 202 with the job, which
		// the caller polls at /recaps/jobs/:id.
		recaps.POST("", func(c *gin.Context) {
			var req recapRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			params := req.parameters()
			if err := params.Validate(); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			job := state.jobs.Create(req.SourceUri)
			// The run outlives the HTTP request, so it gets a background
			// context rather than the request context.
			go func() {
				result, err := state.pipeline.Run(context.Background(), job.SourceUri, params)
				if err != nil {
					slog.Error("recap run failed", "job", job.Id, "source", job.SourceUri, "error", err)
					state.jobs.Fail(job.Id, err)
					return
				}
				state.jobs.Complete(job.Id, result)
			}()
			c.JSON(http.StatusAccepted, job)
		})

		// List persisted recaps, newest first. Optional ?source= filter.
		recaps.GET("", func(c *gin.Context) {
			count, err := strconv.Atoi(c.DefaultQuery("count", "25"))
			if err != nil {
				count = 25
			}
			records, err := state.recapService.List(c, c.Query("source"), count)
			if err != nil {
				log.Printf("Error listing recaps: %v\n", err)
				c.Status(http.StatusInternalServerError)
				return
			}
			c.JSON(http.StatusOK, records)
		})

		recaps.GET("/jobs/:id", func(c *gin.Context) {
			job := state.jobs.Get(c.Param("id"))
			if job == nil {
				c.Status(http.StatusNotFound)
				return
			}
			c.JSON(http.StatusOK, job)
		})

		recaps.GET("/:id", func(c *gin.Context) {
			out, err := state.recapService.Get(c, c.Param("id"))
			if err != nil {
				c.Status(http.StatusNotFound)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		// Generate a signed URL for streaming the source video of a recap.
		recaps.GET("/:id/stream", func(c *gin.Context) {
			record, err := state.recapService.Get(c, c.Param("id"))
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "Recap not found"})
				return
			}

			// The URL stays valid for 15 minutes.
			signedURL, err := state.recapService.GenerateSignedURL(c, record.SourceUri, 15*time.Minute)
			if err != nil {
				slog.Error("failed to sign streaming URL", "id", record.Id, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate streaming URL"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"url": signedURL})
		})
	}
}

// FileUpload sets up the route for handling video file uploads. Uploaded
// files land in the input bucket, whose notification topic then triggers
// the recap pipeline through the Pub/Sub listener.
func FileUpload(r *gin.RouterGroup) {
	upload := r.Group("/uploads")
	{
		upload.POST("", func(c *gin.Context) {
			form, err := c.MultipartForm()
			if err != nil {
				c.String(http.StatusBadRequest, "get form err: %s", err.Error())
				return
			}
			files := form.File["files"]
			bucket := state.cloud.StorageClient.Bucket(state.config.Storage.InputBucket)

			for _, file := range files {
				localPath := filepath.Join(os.TempDir(), file.Filename)
				if err := c.SaveUploadedFile(file, localPath); err != nil {
					c.String(http.StatusBadRequest, "upload file err: %s", err.Error())
					return
				}

				content, err := os.ReadFile(localPath)
				if err != nil {
					log.Println(err)
					c.Status(http.StatusInternalServerError)
					return
				}
				wc := bucket.Object(file.Filename).NewWriter(c)
				wc.ContentType = "video/mp4"
				if _, err = wc.Write(content); err != nil {
					c.String(http.StatusInternalServerError, "write file to bucket err: %s", err.Error())
					return
				}
				if err := wc.Close(); err != nil {
					log.Printf("failed to close bucket handle: %v\n", err)
				}
				if err := os.Remove(localPath); err != nil {
					log.Printf("failed to remove file from server: %v\n", err)
				}
			}
			c.String(http.StatusOK, "Uploaded successfully %d files.", len(files))
		})
	}
}
