// Package server provides the HTTP server for the ATIS broadcast compiler.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

import "github.com/maauso/atis-broadcast/internal/atis"

// GenerateAudioRequest is the HTTP request body for POST /generate-audio.
type GenerateAudioRequest = atis.Report

// CreateBroadcastRequest is the HTTP request body for compiling a raw prompt.
type CreateBroadcastRequest struct {
	// Prompt is the broadcast text, one phrase per line. Blank lines insert
	// a pause.
	Prompt string `json:"prompt" validate:"required"`
}

// BroadcastResponse is the HTTP response after compiling a broadcast.
type BroadcastResponse struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	ArtifactURL string `json:"artifact_url"`
	// Format describes the output, e.g. "8000Hz/16bit/1ch".
	Format     string `json:"format"`
	DurationMs int64  `json:"duration_ms"`
}

// JobResponse is the HTTP response for getting broadcast details.
type JobResponse struct {
	// ID is the unique identifier for the job.
	ID string `json:"id"`
	// Status is the current job status.
	Status string `json:"status"`
	// Tokens is the number of tokens in the prompt, delays included.
	Tokens int `json:"tokens"`
	// Delays is the number of pause tokens.
	Delays int `json:"delays"`
	// Error contains any error message if the job failed.
	Error string `json:"error,omitempty"`
	// ArtifactURL locates the output once the job is DONE.
	ArtifactURL string `json:"artifact_url,omitempty"`
	DurationMs  int64  `json:"duration_ms,omitempty"`
}

// ListBroadcastsResponse is the HTTP response for listing broadcasts.
type ListBroadcastsResponse struct {
	Broadcasts []JobResponse `json:"broadcasts"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
