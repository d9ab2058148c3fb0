package mapping

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMapping(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mapping.tsv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeMapping(t, "KNOTS\tknots.wav\nRwyInUse\trunway_in_use.wav\textra\n")

	table, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, Table{
		"knots":    "knots.wav",
		"rwyinuse": "runway_in_use.wav",
	}, table)
}

func TestLoad_MissingFile(t *testing.T) {
	table, err := Load(filepath.Join(t.TempDir(), "nope.tsv"))

	require.NoError(t, err)
	assert.Empty(t, table)
}

func TestLoad_UnreadableIsNonFatal(t *testing.T) {
	// A directory exists but cannot be read as a file.
	table, err := Load(t.TempDir())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMappingLoad)
	assert.NotNil(t, table)
	assert.Empty(t, table)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Table
	}{
		{
			name:  "skips lines with one field",
			input: "alpha\nbravo\tbravo.wav\n\n",
			want:  Table{"bravo": "bravo.wav"},
		},
		{
			name:  "later duplicate wins",
			input: "A\tfirst.wav\na\tsecond.wav\n",
			want:  Table{"a": "second.wav"},
		},
		{
			name:  "strips surrounding whitespace and CRLF",
			input: "  ONE\tone.wav  \r\nTWO\ttwo.wav\r\n",
			want:  Table{"one": "one.wav", "two": "two.wav"},
		},
		{
			name:  "value kept verbatim",
			input: "QNH\tSub Dir/Q N H.WAV\n",
			want:  Table{"qnh": "Sub Dir/Q N H.WAV"},
		},
		{
			name:  "empty filename skipped",
			input: "knots\t\tx\nwind\twind.wav\n",
			want:  Table{"wind": "wind.wav"},
		},
		{
			name:  "empty filename does not replace earlier entry",
			input: "knots\tknots_v2.wav\nknots\t\n",
			want:  Table{"knots": "knots_v2.wav"},
		},
		{
			name:  "space separated is not a field break",
			input: "ALPHA alpha.wav\n",
			want:  Table{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTable_Lookup(t *testing.T) {
	table := Table{"knots": "knots.wav"}

	name, ok := table.Lookup("KNOTS")
	assert.True(t, ok)
	assert.Equal(t, "knots.wav", name)

	_, ok = table.Lookup("FOO")
	assert.False(t, ok)

	_, ok = Table{"gusts": ""}.Path("/audio", "GUSTS")
	assert.False(t, ok)
}

func TestTable_Path(t *testing.T) {
	table := Table{
		"knots": "knots.wav",
		"abs":   "/srv/clips/abs.wav",
	}

	path, ok := table.Path("/audio", "Knots")
	assert.True(t, ok)
	assert.Equal(t, filepath.Join("/audio", "knots.wav"), path)

	path, ok = table.Path("/audio", "ABS")
	assert.True(t, ok)
	assert.Equal(t, "/srv/clips/abs.wav", path)

	_, ok = table.Path("/audio", "missing")
	assert.False(t, ok)
}
