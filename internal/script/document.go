// Package script implements the versioned document model consumed by an
// incremental analysis engine: per-file version counters, edit-history
// accumulation, offset/position conversion over a line-oriented text
// container, and point-in-time snapshots that can describe what changed
// between two versions as a single conservative range.
package script

import (
	"errors"
	"fmt"

	"github.com/jbarket/atom-typescript/internal/textbuf"
)

// ErrOutOfRange reports an offset or position outside the document.
var ErrOutOfRange = errors.New("out of range")

// Container is the mutable text storage a Document delegates to.
// *textbuf.Buffer is the stock implementation.
type Container interface {
	Len() int
	Text() string
	Slice(start, end int) (string, error)
	LineCount() int
	LineLen(i int) int
	TermLen(i int) int
	OffsetToPos(offset int) (textbuf.Pos, error)
	PosToOffset(p textbuf.Pos) (int, error)
	Replace(start, end int, text string) error
	Reset(text string)
}

// Document is the tracked, versioned in-memory representation of one file.
//
// The version starts at 1 and increases by exactly one on every content
// mutation; it is never reused. history records one ChangeRange per ranged
// edit since the container was last fully replaced, so the history suffix of
// length version−v reconstructs the text evolution from any version v the
// history still covers.
type Document struct {
	path string
	buf  Container

	version int
	history []ChangeRange

	// starts caches the byte offset of each line start; stale marks it for
	// lazy rebuild after a mutation.
	starts []int
	stale  bool

	open bool
}

// NewDocument creates a document at version 1 with the given content.
func NewDocument(path, text string) *Document {
	return &Document{
		path:    path,
		buf:     textbuf.New(text),
		version: 1,
		stale:   true,
	}
}

// NewDocumentWith creates a document backed by a caller-supplied container.
func NewDocumentWith(path string, buf Container) *Document {
	return &Document{path: path, buf: buf, version: 1, stale: true}
}

// Path returns the document's identity.
func (d *Document) Path() string { return d.path }

// Version returns the current content version (≥ 1).
func (d *Document) Version() int { return d.version }

// Len returns the current byte length of the text.
func (d *Document) Len() int { return d.buf.Len() }

// Text returns the current full text.
func (d *Document) Text() string { return d.buf.Text() }

// Open reports the editor-open state. It is independent of content and does
// not participate in versioning.
func (d *Document) Open() bool { return d.open }

// SetOpen records the editor-open state without touching the version.
func (d *Document) SetOpen(open bool) { d.open = open }

// UpdateContent replaces the text wholesale. The edit history is cleared —
// a full replace cannot be expressed as a span edit, so snapshots taken
// before it can no longer be bridged incrementally.
func (d *Document) UpdateContent(text string) {
	d.buf.Reset(text)
	d.history = nil
	d.version++
	d.stale = true
}

// EditContent replaces the byte range [oldStart, oldEnd) with newText and
// records the edit in the history. Offsets are interpreted against the text
// as it is before this call; callers must not reuse pre-edit offsets
// afterwards.
func (d *Document) EditContent(oldStart, oldEnd int, newText string) error {
	if oldStart < 0 || oldStart > oldEnd || oldEnd > d.buf.Len() {
		return fmt.Errorf("edit [%d,%d) in %d bytes: %w", oldStart, oldEnd, d.buf.Len(), ErrOutOfRange)
	}
	if err := d.buf.Replace(oldStart, oldEnd, newText); err != nil {
		return err
	}

	d.history = append(d.history, ChangeRange{
		Span:      TextSpan{Start: oldStart, Length: oldEnd - oldStart},
		NewLength: len(newText),
	})
	d.version++
	d.stale = true
	return nil
}

// LineStarts returns the byte offset of each line start. The slice is
// rebuilt lazily on first access after a mutation and must not be modified
// by the caller.
func (d *Document) LineStarts() []int {
	if d.stale {
		starts := make([]int, 0, d.buf.LineCount())
		off := 0
		for i := range d.buf.LineCount() {
			starts = append(starts, off)
			off += d.buf.LineLen(i) + d.buf.TermLen(i)
		}
		d.starts = starts
		d.stale = false
	}
	return d.starts
}

// OffsetAt converts a line/column position to a byte offset.
func (d *Document) OffsetAt(p textbuf.Pos) (int, error) {
	return d.buf.PosToOffset(p)
}

// PositionAt converts a byte offset to a line/column position.
func (d *Document) PositionAt(offset int) (textbuf.Pos, error) {
	return d.buf.OffsetToPos(offset)
}

// LineText returns the content of one line without its terminator.
func (d *Document) LineText(i int) string {
	starts := d.LineStarts()
	if i < 0 || i >= len(starts) {
		return ""
	}
	s, err := d.buf.Slice(starts[i], starts[i]+d.buf.LineLen(i))
	if err != nil {
		return ""
	}
	return s
}
