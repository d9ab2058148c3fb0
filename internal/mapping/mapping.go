// Package mapping loads the token-to-filename table that lets prompt words
// resolve to clips whose filenames do not follow the <token>.wav convention.
package mapping

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrMappingLoad is returned when a mapping file exists but cannot be read.
// It is never fatal: the accompanying table is empty and resolution falls back
// to the filename convention.
var ErrMappingLoad = errors.New("mapping: load failed")

// Table maps lower-cased tokens to clip filenames.
type Table map[string]string

// Lookup returns the filename mapped to token, ignoring case. An empty
// filename counts as a miss.
func (t Table) Lookup(token string) (string, bool) {
	name := t[strings.ToLower(token)]
	return name, name != ""
}

// Path returns the clip path for token, joining relative filenames onto dir.
func (t Table) Path(dir, token string) (string, bool) {
	name, ok := t.Lookup(token)
	if !ok {
		return "", false
	}
	if filepath.IsAbs(name) {
		return name, true
	}
	return filepath.Join(dir, name), true
}

// Load reads the tab-delimited mapping file at path.
// A missing file yields an empty table and no error.
func Load(path string) (Table, error) {
	f, err := os.Open(path) // #nosec G304 - path comes from configuration
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Table{}, nil
		}
		return Table{}, fmt.Errorf("%w: %w", ErrMappingLoad, err)
	}
	defer func() { _ = f.Close() }()

	table, err := Parse(f)
	if err != nil {
		return Table{}, fmt.Errorf("%w: %s: %w", ErrMappingLoad, path, err)
	}
	return table, nil
}

// Parse reads mapping entries from r. Each line is trimmed, then split on
// tabs; lines with fewer than two fields or an empty filename are skipped.
// The first field is the token and the second the filename. Later duplicates
// overwrite earlier ones.
func Parse(r io.Reader) (Table, error) {
	table := Table{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Split(strings.TrimSpace(scanner.Text()), "\t")
		if len(fields) < 2 || fields[1] == "" {
			continue
		}
		table[strings.ToLower(fields[0])] = fields[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return table, nil
}
