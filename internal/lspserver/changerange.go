package lspserver

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/jbarket/atom-typescript/internal/host"
	"github.com/jbarket/atom-typescript/internal/script"
	"github.com/jbarket/atom-typescript/internal/textbuf"
)

// methodChangeRange is the custom pull request an analysis client issues to
// learn what changed in a document since its previous pull. The response
// carries the collapsed change range relative to that previous pull, or null
// when no incremental description is possible (first pull, or the retained
// history cannot bridge the gap).
const methodChangeRange = "atomts/changeRange"

// changeRangeParams identifies the document to diff.
type changeRangeParams struct {
	URI string `json:"uri"`
}

// changeRangeResult is the wire shape of a change-range pull.
type changeRangeResult struct {
	Version int                 `json:"version"`
	Range   *script.ChangeRange `json:"range"`
}

// retainedSnapshots keeps, per document, the snapshot served by the previous
// change-range pull. It stands in for the cache the analysis engine keeps on
// its side of the contract.
type retainedSnapshots struct {
	mu    sync.Mutex
	snaps map[string]*script.Snapshot
}

// swap stores cur as the retained snapshot and returns the previous one.
func (r *retainedSnapshots) swap(path string, cur *script.Snapshot) *script.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.snaps == nil {
		r.snaps = make(map[string]*script.Snapshot)
	}
	prev := r.snaps[path]
	r.snaps[path] = cur
	return prev
}

func (r *retainedSnapshots) drop(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.snaps, path)
}

// handleChangeRange serves an atomts/changeRange pull.
func (s *Server) handleChangeRange(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params changeRangeParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return replyParseError(ctx, reply, err)
	}

	path := uriToPath(params.URI)
	cur, ok := s.registry.SnapshotOf(path)
	if !ok {
		return reply(ctx, nil, jsonrpc2.Errorf(jsonrpc2.InvalidParams, "untracked document: %s", path))
	}

	result := changeRangeResult{Version: cur.Version()}
	if prev := s.retained.swap(path, cur); prev != nil {
		result.Range = cur.ChangeRangeSince(prev)
	}
	return reply(ctx, result, nil)
}

// applyRangedChange converts a protocol range (UTF-16 line/character) to
// byte offsets against the document's current text and applies it as a span
// edit, preserving the edit history.
func (s *Server) applyRangedChange(path string, rng protocol.Range, text string) error {
	snap, ok := s.registry.SnapshotOf(path)
	if !ok {
		return host.ErrNotFound
	}
	start := offsetForPosition(snap, rng.Start)
	end := offsetForPosition(snap, rng.End)
	return s.registry.Edit(path, start, end, text)
}

// offsetForPosition resolves a UTF-16 position against a snapshot's line
// starts. Positions past the end of the document clamp to the document end.
func offsetForPosition(snap *script.Snapshot, pos protocol.Position) int {
	starts := snap.LineStarts()
	text := snap.Text()
	line := int(pos.Line)
	if line >= len(starts) {
		return len(text)
	}

	lineStart := starts[line]
	lineEnd := len(text)
	if line+1 < len(starts) {
		lineEnd = starts[line+1]
	}
	lineText := strings.TrimRight(text[lineStart:lineEnd], "\r\n")

	return lineStart + textbuf.ByteColFromUTF16(lineText, int(pos.Character))
}
