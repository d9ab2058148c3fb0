package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Token
	}{
		{
			name: "digits split individually",
			text: "G10",
			want: []Token{Word("G"), Word("1"), Word("0")},
		},
		{
			name: "punctuation dropped",
			text: "KNOTS.",
			want: []Token{Word("KNOTS")},
		},
		{
			name: "case preserved",
			text: "Wind calm",
			want: []Token{Word("Wind"), Word("calm")},
		},
		{
			name: "blank line is one delay",
			text: "ALPHA\n\nBRAVO",
			want: []Token{Word("ALPHA"), Delay(), Word("BRAVO")},
		},
		{
			name: "whitespace-only line is one delay",
			text: "ALPHA\n \t \nBRAVO",
			want: []Token{Word("ALPHA"), Delay(), Word("BRAVO")},
		},
		{
			name: "consecutive blank lines",
			text: "A\n\n\nB",
			want: []Token{Word("A"), Delay(), Delay(), Word("B")},
		},
		{
			name: "crlf line endings",
			text: "A\r\n\r\nB\r\n",
			want: []Token{Word("A"), Delay(), Word("B")},
		},
		{
			name: "trailing newline adds nothing",
			text: "TIME 1230Z.\n",
			want: []Token{Word("TIME"), Word("1"), Word("2"), Word("3"), Word("0"), Word("Z")},
		},
		{
			name: "line of only separators yields nothing",
			text: "A\n...\nB",
			want: []Token{Word("A"), Word("B")},
		},
		{
			name: "minus and flight level",
			text: "TEMPERATURE MINUS 5 DEGREES\nTRANSITIONLEVEL FL070.",
			want: []Token{
				Word("TEMPERATURE"), Word("MINUS"), Word("5"), Word("DEGREES"),
				Word("TRANSITIONLEVEL"), Word("FL"), Word("0"), Word("7"), Word("0"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.text))
		})
	}
}

func TestTokenize_Empty(t *testing.T) {
	assert.Empty(t, Tokenize(""))
}

func TestTokenize_SingleBlankLine(t *testing.T) {
	assert.Equal(t, []Token{Delay()}, Tokenize("   "))
}

func TestWords(t *testing.T) {
	got := Words([]Token{Word("A"), Delay(), Word("b")})
	assert.Equal(t, []string{"A", "<delay>", "b"}, got)
}

func TestCountDelays(t *testing.T) {
	assert.Equal(t, 2, CountDelays(Tokenize("A\n\nB\n\nC")))
	assert.Zero(t, CountDelays(Tokenize("A B C")))
}
