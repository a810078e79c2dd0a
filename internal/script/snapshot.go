package script

import "slices"

// Snapshot is an immutable point-in-time view of a Document. It never
// changes after capture, so callers may retain it across later mutations of
// the owning document and diff it against newer snapshots at any time.
type Snapshot struct {
	text    string
	version int
	starts  []int

	// history is the owning document's edit history as of capture time.
	// The document only ever appends to it (a full replace installs a fresh
	// slice), so holding the header with a fixed length is safe.
	history []ChangeRange
}

// Snapshot captures the document's current state.
func (d *Document) Snapshot() *Snapshot {
	return &Snapshot{
		text:    d.buf.Text(),
		version: d.version,
		starts:  slices.Clone(d.LineStarts()),
		history: d.history,
	}
}

// Text returns the captured full text.
func (s *Snapshot) Text() string { return s.text }

// Len returns the captured text length in bytes.
func (s *Snapshot) Len() int { return len(s.text) }

// Version returns the document version at capture time.
func (s *Snapshot) Version() int { return s.version }

// LineStarts returns the captured line-start offsets.
func (s *Snapshot) LineStarts() []int { return s.starts }

// ChangeRangeSince describes what changed between an older snapshot of the
// same document and this one, collapsed into a single conservative range.
//
// A nil result means the retained edit history cannot bridge the version gap
// (a full replace happened in between, or old postdates this snapshot); the
// caller must treat the document as fully changed. Same-version snapshots
// yield the empty range.
func (s *Snapshot) ChangeRangeSince(old *Snapshot) *ChangeRange {
	if old.version == s.version {
		return &ChangeRange{}
	}
	gap := s.version - old.version
	if gap < 0 || gap > len(s.history) {
		return nil
	}
	r := Collapse(s.history[len(s.history)-gap:])
	return &r
}
