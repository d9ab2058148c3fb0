package compiler

import (
	"errors"
	"fmt"
)

// Static errors for compilation failures. Use errors.Is to match them;
// the typed errors below carry the offending token.
var (
	// ErrClipNotFound is matched by *ClipNotFoundError.
	ErrClipNotFound = errors.New("compiler: clip not found")
	// ErrNoResolvableAudio is returned when no word in the sequence resolves to a clip.
	ErrNoResolvableAudio = errors.New("compiler: no valid audio files to compile")
	// ErrDecode is matched by *DecodeError.
	ErrDecode = errors.New("compiler: decode failed")
)

// ClipNotFoundError reports a word that neither the mapping table nor the
// filename convention could resolve.
type ClipNotFoundError struct {
	Token string
}

func (e *ClipNotFoundError) Error() string {
	return fmt.Sprintf("audio file for token %q not found in mapping or directory", e.Token)
}

// Is reports whether target is ErrClipNotFound.
func (e *ClipNotFoundError) Is(target error) bool {
	return target == ErrClipNotFound
}

// DecodeError reports a resolved clip that could not be decoded.
type DecodeError struct {
	Token string
	Path  string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s for token %q: %v", e.Path, e.Token, e.Err)
}

// Unwrap returns the underlying decoder error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrDecode.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}
