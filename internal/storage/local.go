package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Compile-time check that LocalStorage implements Storage.
var _ Storage = (*LocalStorage)(nil)

// Subdirectories created under the storage root.
const (
	tempSubdir      = "tmp"
	broadcastSubdir = "broadcasts"
)

// LocalStorage implements Storage on local disk. Temporary files and
// committed artifacts live under one root so Commit is a same-filesystem
// rename.
type LocalStorage struct {
	root    string
	tempDir string
	outDir  string
}

// NewLocalStorage creates a LocalStorage rooted at root.
// If root is empty, <os.TempDir()>/atis-broadcast is used.
// The directories are created if they don't exist.
func NewLocalStorage(root string) (*LocalStorage, error) {
	if root == "" {
		root = filepath.Join(os.TempDir(), "atis-broadcast")
	}

	s := &LocalStorage{
		root:    root,
		tempDir: filepath.Join(root, tempSubdir),
		outDir:  filepath.Join(root, broadcastSubdir),
	}
	for _, dir := range []string{s.tempDir, s.outDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}
	return s, nil
}

// Root returns the storage root directory.
func (s *LocalStorage) Root() string {
	return s.root
}

// TempDir returns the temporary directory path.
func (s *LocalStorage) TempDir() string {
	return s.tempDir
}

// CreateTemp creates an empty temporary file named after pattern with a
// unique suffix.
func (s *LocalStorage) CreateTemp(ctx context.Context, pattern string) (*os.File, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	f, err := os.CreateTemp(s.tempDir, pattern+"_*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return f, nil
}

// CleanupTemp removes the specified temporary files, returning the first
// error encountered. Files that are already gone are ignored.
func (s *LocalStorage) CleanupTemp(ctx context.Context, paths []string) error {
	var firstErr error
	for _, p := range paths {
		if err := checkContext(ctx); err != nil {
			return err
		}

		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = fmt.Errorf("remove temp file %s: %w", p, err)
			}
		}
	}
	return firstErr
}

// Commit renames the temporary file into the output directory as key.
func (s *LocalStorage) Commit(ctx context.Context, tempPath, key string) (Artifact, error) {
	if err := checkContext(ctx); err != nil {
		return Artifact{}, err
	}
	if err := ValidateKey(key); err != nil {
		return Artifact{}, err
	}

	dest := s.artifactPath(key)
	if err := os.Rename(tempPath, dest); err != nil {
		return Artifact{}, fmt.Errorf("commit artifact: %w", err)
	}
	return Artifact{Key: key, Path: dest}, nil
}

// Open returns a reader for the artifact committed under key.
func (s *LocalStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	f, err := os.Open(s.artifactPath(key)) // #nosec G304 - key is validated above
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, key)
		}
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	return f, nil
}

// Delete removes the artifact committed under key.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	if err := os.Remove(s.artifactPath(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete artifact: %w", err)
	}
	return nil
}

func (s *LocalStorage) artifactPath(key string) string {
	return filepath.Join(s.outDir, key)
}
