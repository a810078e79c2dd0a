// Package textbuf implements the mutable line-oriented text storage backing
// tracked documents.
//
// A Buffer stores text as a slice of lines, each line keeping its content and
// its terminator separately, so ranged replacements only touch the affected
// lines. Offsets are byte offsets into the UTF-8 text; UTF-16 conversion for
// the wire protocol lives in position.go.
package textbuf

import (
	"errors"
	"strings"
)

// Errors returned by buffer operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrPosOutOfRange    = errors.New("position out of range")
	ErrRangeInvalid     = errors.New("invalid range")
)

// Pos is a 0-based line/column position. Col counts bytes from the line start.
type Pos struct {
	Line int
	Col  int
}

// line is one buffer line: content without its terminator, plus the
// terminator itself ("" only on the final line).
type line struct {
	text string
	term string
}

// Buffer is a mutable line-oriented text container.
// It always holds at least one line; the final line has no terminator.
type Buffer struct {
	lines []line
	size  int
}

// New creates a buffer holding the given text.
func New(text string) *Buffer {
	b := &Buffer{}
	b.Reset(text)
	return b
}

// Reset replaces the entire buffer content.
func (b *Buffer) Reset(text string) {
	b.lines = splitLines(text)
	b.size = len(text)
}

// Len returns the total byte length of the buffer.
func (b *Buffer) Len() int { return b.size }

// LineCount returns the number of lines. A trailing terminator starts a new
// (empty) final line, so "a\n" has two lines.
func (b *Buffer) LineCount() int { return len(b.lines) }

// LineLen returns the byte length of a line, excluding its terminator.
// Out-of-range lines report 0.
func (b *Buffer) LineLen(i int) int {
	if i < 0 || i >= len(b.lines) {
		return 0
	}
	return len(b.lines[i].text)
}

// TermLen returns the byte width of a line's terminator (0, 1 or 2).
func (b *Buffer) TermLen(i int) int {
	if i < 0 || i >= len(b.lines) {
		return 0
	}
	return len(b.lines[i].term)
}

// Text returns the full buffer content.
func (b *Buffer) Text() string {
	var sb strings.Builder
	sb.Grow(b.size)
	for _, ln := range b.lines {
		sb.WriteString(ln.text)
		sb.WriteString(ln.term)
	}
	return sb.String()
}

// Slice returns the text in the byte range [start, end).
func (b *Buffer) Slice(start, end int) (string, error) {
	if start < 0 || start > end || end > b.size {
		return "", ErrRangeInvalid
	}
	var sb strings.Builder
	sb.Grow(end - start)
	off := 0
	for _, ln := range b.lines {
		if off >= end {
			break
		}
		full := ln.text + ln.term
		lo, hi := start-off, end-off
		if lo < 0 {
			lo = 0
		}
		if hi > len(full) {
			hi = len(full)
		}
		if lo < hi {
			sb.WriteString(full[lo:hi])
		}
		off += len(full)
	}
	return sb.String(), nil
}

// OffsetToPos converts a byte offset in [0, Len()] to a line/column position.
// Offsets falling inside a two-byte terminator resolve to the end of that
// line's content.
func (b *Buffer) OffsetToPos(offset int) (Pos, error) {
	if offset < 0 || offset > b.size {
		return Pos{}, ErrOffsetOutOfRange
	}
	off := offset
	for i, ln := range b.lines {
		if off <= len(ln.text) {
			return Pos{Line: i, Col: off}, nil
		}
		span := len(ln.text) + len(ln.term)
		if off < span {
			// Inside a \r\n terminator.
			return Pos{Line: i, Col: len(ln.text)}, nil
		}
		off -= span
	}
	// offset == size lands on the final line above; unreachable.
	return Pos{}, ErrOffsetOutOfRange
}

// PosToOffset converts a line/column position to a byte offset.
// Col may address up to and including the line's terminator end.
func (b *Buffer) PosToOffset(p Pos) (int, error) {
	if p.Line < 0 || p.Line >= len(b.lines) {
		return 0, ErrPosOutOfRange
	}
	ln := b.lines[p.Line]
	if p.Col < 0 || p.Col > len(ln.text)+len(ln.term) {
		return 0, ErrPosOutOfRange
	}
	off := p.Col
	for i := range p.Line {
		off += len(b.lines[i].text) + len(b.lines[i].term)
	}
	return off, nil
}

// Replace substitutes the byte range [start, end) with text. Boundaries may
// fall anywhere in [0, Len()], including between the bytes of a \r\n
// terminator; exactly the requested bytes are replaced.
func (b *Buffer) Replace(start, end int, text string) error {
	if start < 0 || start > end || end > b.size {
		return ErrRangeInvalid
	}
	startLine, startByte := b.locate(start)
	endLine, endByte := b.locate(end)

	startFull := b.lines[startLine].text + b.lines[startLine].term
	endFull := b.lines[endLine].text + b.lines[endLine].term
	merged := splitLines(startFull[:startByte] + text + endFull[endByte:])

	tail := b.lines[endLine+1:]
	if len(tail) > 0 {
		// splitLines leaves the last merged line terminator-less; its text
		// continues into the first line after the replaced region.
		next := tail[0]
		merged[len(merged)-1] = line{text: merged[len(merged)-1].text + next.text, term: next.term}
		tail = tail[1:]
	}
	b.lines = append(b.lines[:startLine], append(merged, tail...)...)
	b.size += len(text) - (end - start)
	return nil
}

// locate maps a byte offset in [0, size] to a line index and a byte position
// within that line's full span (content plus terminator). Offsets on a span
// boundary resolve to the earlier line.
func (b *Buffer) locate(offset int) (int, int) {
	for i, ln := range b.lines {
		span := len(ln.text) + len(ln.term)
		if offset <= span {
			return i, offset
		}
		offset -= span
	}
	last := len(b.lines) - 1
	return last, len(b.lines[last].text)
}

// splitLines breaks text into lines, recognizing \n, \r\n and \r terminators.
// It always emits a final line with an empty terminator.
func splitLines(s string) []line {
	var lines []line
	start := 0
	i := 0
	for i < len(s) {
		switch s[i] {
		case '\n':
			lines = append(lines, line{text: s[start:i], term: "\n"})
			i++
			start = i
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				lines = append(lines, line{text: s[start:i], term: "\r\n"})
				i += 2
			} else {
				lines = append(lines, line{text: s[start:i], term: "\r"})
				i++
			}
			start = i
		default:
			i++
		}
	}
	return append(lines, line{text: s[start:]})
}
