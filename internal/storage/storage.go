// Package storage provides temporary and committed artifact storage for
// compiled broadcasts. It defines the Storage port and implementations for
// local disk and S3.
//
// Output is written to a temporary file first and only becomes visible under
// its key once Commit succeeds, so a failed run never leaves a partial artifact.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Static errors for storage operations.
var (
	// ErrArtifactNotFound is returned when no artifact exists under a key.
	ErrArtifactNotFound = errors.New("storage: artifact not found")
	// ErrInvalidKey is returned for keys that are empty or contain path elements.
	ErrInvalidKey = errors.New("storage: invalid artifact key")
)

// Artifact describes a committed output.
type Artifact struct {
	// Key is the invocation-scoped name the artifact was committed under.
	Key string `json:"key"`
	// Path is the local file path, set by disk-backed storage.
	Path string `json:"path,omitempty"`
	// URL is the object URL, set by remote storage.
	URL string `json:"url,omitempty"`
}

// Storage defines the interface for temporary and committed file storage.
type Storage interface {
	// CreateTemp creates an empty temporary file. The pattern is used as a
	// filename hint. The caller must close the file.
	CreateTemp(ctx context.Context, pattern string) (*os.File, error)

	// CleanupTemp removes the specified temporary files.
	// It continues cleanup even if some files fail to delete.
	CleanupTemp(ctx context.Context, paths []string) error

	// Commit moves a finished temporary file to its final location under key.
	// On success the temporary file no longer exists.
	Commit(ctx context.Context, tempPath, key string) (Artifact, error)

	// Open returns a reader for a committed artifact.
	// Returns ErrArtifactNotFound if nothing was committed under key.
	// The caller is responsible for closing the returned ReadCloser.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a committed artifact. Deleting a key that holds no
	// artifact is not an error.
	Delete(ctx context.Context, key string) error
}

// ValidateKey rejects keys that could address anything outside the
// artifact namespace.
func ValidateKey(key string) error {
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
		return nil
	}
}
