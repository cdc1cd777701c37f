package toml

import (
	"regexp"
	"strings"
)

// Scanner is a position-tracked cursor over TOML source text. It never
// backtracks more than a handful of bytes (used by the triple-quote string
// delimiter logic) and never mutates the source it was given.
//
// Modeled on sqlparser.Scanner's cursor/Pos bookkeeping, generalized to the
// at_literal/at_pattern/peek/advance/advance_while/advance_until/backtrack
// contract used by qtoml's ParseState.
type Scanner struct {
	src string

	pos  int // byte offset of current position
	line int // one-based
	col  int // zero-based
}

// NewScanner returns a Scanner positioned at the start of src.
func NewScanner(src string) *Scanner {
	return &Scanner{src: src, line: 1}
}

// AtEnd reports whether the scanner has consumed all of src.
func (s *Scanner) AtEnd() bool {
	return s.pos >= len(s.src)
}

// AtLiteral reports whether the remainder of the source starts with lit,
// without consuming anything.
func (s *Scanner) AtLiteral(lit string) bool {
	return strings.HasPrefix(s.src[s.pos:], lit)
}

// AtPattern reports whether re matches at the current position (anchored),
// without consuming anything.
func (s *Scanner) AtPattern(re *regexp.Regexp) bool {
	_, ok := s.PeekPattern(re)
	return ok
}

// PeekPattern returns the text re matches at the current position (anchored)
// without consuming it, and whether a match was found at all. Go's RE2
// engine has no lookahead, so callers that need a lookahead-style check
// (e.g. the numeric-literal end-of-token rule in §4.2) inspect the text
// right after the returned match themselves.
func (s *Scanner) PeekPattern(re *regexp.Regexp) (string, bool) {
	loc := re.FindStringIndex(s.src[s.pos:])
	if loc == nil || loc[0] != 0 {
		return "", false
	}
	return s.src[s.pos : s.pos+loc[1]], true
}

// Peek returns up to the next n bytes without consuming them.
func (s *Scanner) Peek(n int) string {
	end := s.pos + n
	if end > len(s.src) {
		end = len(s.src)
	}
	return s.src[s.pos:end]
}

// Advance consumes the next n bytes and returns them, updating line/column.
func (s *Scanner) Advance(n int) string {
	if n > len(s.src)-s.pos {
		n = len(s.src) - s.pos
	}
	d := s.src[s.pos : s.pos+n]
	s.bump(d)
	s.pos += n
	return d
}

// AdvanceWhile greedily consumes bytes for which class returns true.
func (s *Scanner) AdvanceWhile(class func(byte) bool) string {
	i := s.pos
	for i < len(s.src) && class(s.src[i]) {
		i++
	}
	return s.Advance(i - s.pos)
}

// AdvanceUntil consumes up to and including the first occurrence of lit,
// or to the end of input if lit is never found.
func (s *Scanner) AdvanceUntil(lit string) string {
	idx := strings.Index(s.src[s.pos:], lit)
	if idx == -1 {
		return s.Advance(len(s.src) - s.pos)
	}
	return s.Advance(idx + len(lit))
}

// Backtrack rewinds n bytes, re-deriving line/column exactly (not just
// approximately) so that error positions reported after a backtrack remain
// accurate. Used only by the triple-quote delimiter logic in §4.2.
func (s *Scanner) Backtrack(n int) {
	if n > s.pos {
		n = s.pos
	}
	d := s.src[s.pos-n : s.pos]
	s.line -= strings.Count(d, "\n")
	s.pos -= n
	if idx := strings.LastIndexByte(s.src[:s.pos], '\n'); idx >= 0 {
		s.col = s.pos - idx - 1
	} else {
		s.col = s.pos
	}
}

// bump updates line/column for bytes just consumed, per the rule in
// spec.md §4.1: line += newlines in d; column is either the length of the
// suffix after the final newline, or col += len(d) if d has no newline.
func (s *Scanner) bump(d string) {
	if nl := strings.Count(d, "\n"); nl > 0 {
		s.line += nl
		last := strings.LastIndexByte(d, '\n')
		s.col = len(d) - last - 1
	} else {
		s.col += len(d)
	}
}

// Line returns the one-based line of the current position.
func (s *Scanner) Line() int { return s.line }

// Column returns the zero-based column of the current position.
func (s *Scanner) Column() int { return s.col }

// Pos returns the current position as a Pos, for embedding in errors.
func (s *Scanner) Pos() Pos { return Pos{Line: s.line, Col: s.col} }
