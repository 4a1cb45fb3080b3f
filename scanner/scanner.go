// Package scanner provides nesting-aware scanning of call argument text.
// It tracks the depth of array and object literals so callers can find
// top-level separators without re-implementing that bookkeeping.
//
// Depth is counted character by character. Quotes carry no meaning here:
// a bracket inside a string literal still moves the depth, and a comma
// inside a string literal at depth zero still separates arguments.
package scanner

import "strings"

// CodeScanner iterates byte-by-byte over argument text, tracking bracket
// depth.
//
// Depth() counts '[' and '{' openers minus ']' and '}' closers; the kinds
// are not required to match, so "[1}" returns to depth zero.
type CodeScanner struct {
	src   string
	pos   int
	depth int
}

// New creates a CodeScanner for the given text.
// Call Next() to advance to the first byte.
func New(src string) *CodeScanner {
	return &CodeScanner{src: src, pos: -1}
}

// Next advances to the next byte, updating the depth.
// Returns the byte and true, or (0, false) at end of input.
func (s *CodeScanner) Next() (byte, bool) {
	s.pos++
	if s.pos >= len(s.src) {
		return 0, false
	}
	ch := s.src[s.pos]
	switch {
	case IsOpenBracket(ch):
		s.depth++
	case IsCloseBracket(ch):
		s.depth--
	}
	return ch, true
}

// Depth returns the bracket depth after the last byte returned by Next.
func (s *CodeScanner) Depth() int { return s.depth }

// Pos returns the current byte offset (the position of the last byte
// returned by Next). Returns -1 before the first call to Next.
func (s *CodeScanner) Pos() int { return s.pos }

// Src returns the full text being scanned.
func (s *CodeScanner) Src() string { return s.src }

// Peek returns the next byte without advancing, or (0, false) at end.
func (s *CodeScanner) Peek() (byte, bool) {
	if s.pos+1 >= len(s.src) {
		return 0, false
	}
	return s.src[s.pos+1], true
}

// IsOpenBracket reports whether ch opens an array or object literal.
func IsOpenBracket(ch byte) bool {
	return ch == '[' || ch == '{'
}

// IsCloseBracket reports whether ch closes an array or object literal.
func IsCloseBracket(ch byte) bool {
	return ch == ']' || ch == '}'
}

// FindAllTopLevel returns the offsets of every byte equal to sep that sits
// at depth zero. A separator read while the depth is negative, after a
// stray closer, is not top level either.
func FindAllTopLevel(src string, sep byte) []int {
	var positions []int
	sc := New(src)
	for ch, ok := sc.Next(); ok; ch, ok = sc.Next() {
		if ch == sep && sc.Depth() == 0 {
			positions = append(positions, sc.Pos())
		}
	}
	return positions
}

// SplitTopLevel splits src around every top-level occurrence of sep.
// Pieces are returned untrimmed. An empty src yields a single empty piece,
// mirroring strings.Split.
func SplitTopLevel(src string, sep byte) []string {
	cuts := FindAllTopLevel(src, sep)
	if len(cuts) == 0 {
		return []string{src}
	}
	parts := make([]string, 0, len(cuts)+1)
	start := 0
	for _, c := range cuts {
		parts = append(parts, src[start:c])
		start = c + 1
	}
	return append(parts, src[start:])
}

// SplitArgs splits an argument list at top-level commas and trims each
// piece. An argument list that is empty after trimming yields no pieces.
func SplitArgs(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	parts := SplitTopLevel(list, ',')
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
