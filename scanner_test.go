package toml

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScannerAdvance(t *testing.T) {
	test := func(input string, n int, expected string, wantLine, wantCol int) func(*testing.T) {
		return func(t *testing.T) {
			s := NewScanner(input)
			got := s.Advance(n)
			assert.Equal(t, expected, got)
			assert.Equal(t, wantLine, s.Line())
			assert.Equal(t, wantCol, s.Column())
		}
	}

	t.Run("plain", test("hello", 5, "hello", 1, 5))
	t.Run("partial", test("hello", 2, "he", 1, 2))
	t.Run("newline", test("ab\ncd", 4, "ab\nc", 2, 1))
	t.Run("two newlines", test("a\nb\ncd", 5, "a\nb\nc", 3, 1))
}

func TestScannerAtLiteralAndPattern(t *testing.T) {
	s := NewScanner(`"""hello"""`)
	assert.True(t, s.AtLiteral(`"""`))
	assert.False(t, s.AtLiteral(`'''`))

	re := regexp.MustCompile(`^"+`)
	assert.True(t, s.AtPattern(re))

	s.Advance(3)
	assert.False(t, s.AtLiteral(`"""`))
}

func TestScannerPeekDoesNotConsume(t *testing.T) {
	s := NewScanner("abcdef")
	require.Equal(t, "abc", s.Peek(3))
	require.Equal(t, "abc", s.Peek(3))
	s.Advance(3)
	assert.Equal(t, "def", s.Peek(10))
}

func TestScannerAdvanceWhile(t *testing.T) {
	s := NewScanner("abc123xyz")
	got := s.AdvanceWhile(func(b byte) bool { return b >= 'a' && b <= 'z' })
	assert.Equal(t, "abc", got)
	assert.Equal(t, "123xyz", s.Peek(100))
}

func TestScannerAdvanceUntil(t *testing.T) {
	s := NewScanner("abc#comment\nrest")
	got := s.AdvanceUntil("\n")
	assert.Equal(t, "abc#comment\n", got)
	assert.Equal(t, "rest", s.Peek(100))

	s2 := NewScanner("no terminator here")
	got2 := s2.AdvanceUntil("\n")
	assert.Equal(t, "no terminator here", got2)
	assert.True(t, s2.AtEnd())
}

func TestScannerBacktrackPreservesLineColumn(t *testing.T) {
	s := NewScanner("ab\ncd\nef")
	s.Advance(8) // consume everything
	require.Equal(t, 3, s.Line())
	require.Equal(t, 2, s.Column())

	s.Backtrack(3) // rewind over the trailing "\nef", back to right after "cd"
	assert.Equal(t, 2, s.Line())
	assert.Equal(t, 2, s.Column())
}

func TestScannerBacktrackToStart(t *testing.T) {
	s := NewScanner("abc\ndef")
	s.Advance(7)
	s.Backtrack(7)
	assert.Equal(t, 1, s.Line())
	assert.Equal(t, 0, s.Column())
	assert.Equal(t, "abc\ndef", s.Peek(100))
}
