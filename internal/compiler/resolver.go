package compiler

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/maauso/atis-broadcast/internal/mapping"
)

// Strategy names reported in Resolution.Strategy.
const (
	StrategyMapping    = "mapping"
	StrategyConvention = "convention"
)

// Strategy locates the clip for a word.
type Strategy interface {
	// Name identifies the strategy in logs and metrics.
	Name() string
	// Resolve returns the clip path for token, or false if the strategy has no match.
	Resolve(token string) (path string, ok bool)
}

// MappingStrategy resolves words through a mapping table.
// A hit is returned without checking that the file exists.
type MappingStrategy struct {
	Table mapping.Table
	Dir   string
}

// Name implements Strategy.
func (MappingStrategy) Name() string { return StrategyMapping }

// Resolve implements Strategy.
func (s MappingStrategy) Resolve(token string) (string, bool) {
	return s.Table.Path(s.Dir, token)
}

// ConventionStrategy resolves a word to <dir>/<lower(word)>.wav when that
// file exists.
type ConventionStrategy struct {
	Dir string
}

// Name implements Strategy.
func (ConventionStrategy) Name() string { return StrategyConvention }

// Resolve implements Strategy.
func (s ConventionStrategy) Resolve(token string) (string, bool) {
	path := filepath.Join(s.Dir, strings.ToLower(token)+".wav")
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

// Resolution records how a word was resolved.
type Resolution struct {
	Token    string `json:"token"`
	Path     string `json:"path"`
	Strategy string `json:"strategy"`
}

// Resolver tries strategies in order and returns the first match.
type Resolver struct {
	strategies []Strategy
}

// NewResolver creates a resolver over the given strategies.
func NewResolver(strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies}
}

// NewDefaultResolver resolves through table first and then the filename
// convention, both rooted at dir.
func NewDefaultResolver(dir string, table mapping.Table) *Resolver {
	return NewResolver(
		MappingStrategy{Table: table, Dir: dir},
		ConventionStrategy{Dir: dir},
	)
}

// Resolve returns the first strategy match for token.
// Returns *ClipNotFoundError when no strategy matches.
func (r *Resolver) Resolve(token string) (Resolution, error) {
	for _, s := range r.strategies {
		if path, ok := s.Resolve(token); ok {
			return Resolution{Token: token, Path: path, Strategy: s.Name()}, nil
		}
	}
	return Resolution{}, &ClipNotFoundError{Token: token}
}
