// Package prompt turns broadcast prompt text into the ordered token stream
// consumed by the compiler.
package prompt

import (
	"regexp"
	"strings"
)

// Kind distinguishes spoken words from timed pauses.
type Kind int

const (
	// KindWord is a token resolved to a recorded clip.
	KindWord Kind = iota
	// KindDelay is a fixed pause produced by a blank line.
	KindDelay
)

// Token is one unit of a prompt.
type Token struct {
	Kind Kind
	// Text is the word as written. Empty for delays.
	Text string
}

// Word returns a word token.
func Word(text string) Token {
	return Token{Kind: KindWord, Text: text}
}

// Delay returns a delay token.
func Delay() Token {
	return Token{Kind: KindDelay}
}

// IsDelay reports whether the token is a pause.
func (t Token) IsDelay() bool {
	return t.Kind == KindDelay
}

func (t Token) String() string {
	if t.IsDelay() {
		return "<delay>"
	}
	return t.Text
}

// wordPattern matches a run of letters or a single digit.
var wordPattern = regexp.MustCompile(`[A-Za-z]+|[0-9]`)

// Tokenize splits text line by line. A blank line yields one Delay; any other
// line yields its letter runs and individual digits in order. Everything else
// is a separator. A trailing newline does not start an extra line.
func Tokenize(text string) []Token {
	if text == "" {
		return nil
	}

	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	tokens := make([]Token, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			tokens = append(tokens, Delay())
			continue
		}
		for _, m := range wordPattern.FindAllString(line, -1) {
			tokens = append(tokens, Word(m))
		}
	}
	return tokens
}

// Words returns the text of every token, rendering delays as "<delay>".
func Words(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.String()
	}
	return out
}

// CountDelays returns the number of delay tokens.
func CountDelays(tokens []Token) int {
	n := 0
	for _, t := range tokens {
		if t.IsDelay() {
			n++
		}
	}
	return n
}
