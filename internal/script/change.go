package script

// TextSpan is a contiguous byte region of a document.
type TextSpan struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

// End returns the exclusive end offset of the span.
func (s TextSpan) End() int { return s.Start + s.Length }

// ChangeRange describes one replacement: the span of the old text that was
// replaced, and the length of the text that replaced it. It is both the
// per-edit descriptor recorded in a document's history and the collapsed
// result handed to an incremental reparser.
type ChangeRange struct {
	Span      TextSpan `json:"span"`
	NewLength int      `json:"newLength"`
}

// Collapse folds an ordered run of edits into a single conservative range
// relative to the oldest text state. Each edit is expressed against the state
// immediately before it was applied; the fold re-expresses every subsequent
// edit in terms of the cumulative shift already absorbed and widens the
// envelope to cover both. The result over-approximates the affected region
// rather than minimizing it: everything outside the returned old span is
// guaranteed untouched, so a reparser only ever loses performance, never
// correctness.
func Collapse(changes []ChangeRange) ChangeRange {
	if len(changes) == 0 {
		return ChangeRange{}
	}
	first := changes[0]
	oldStart := first.Span.Start
	oldEnd := first.Span.End()
	newEnd := first.Span.Start + first.NewLength

	for _, c := range changes[1:] {
		s2 := c.Span.Start
		e2 := c.Span.End()
		n2 := c.Span.Start + c.NewLength

		oldStart = min(oldStart, s2)
		oldEnd = max(oldEnd, oldEnd+(e2-newEnd))
		newEnd = max(n2, n2+(newEnd-e2))
	}

	return ChangeRange{
		Span:      TextSpan{Start: oldStart, Length: oldEnd - oldStart},
		NewLength: newEnd - oldStart,
	}
}
