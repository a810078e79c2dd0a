// Package lsptest implements black-box protocol tests for the tshost LSP server.
//
// Each test launches tshost lsp --stdio as a real subprocess and communicates
// over Content-Length-framed JSON-RPC on stdin/stdout. Coverage data from the
// subprocess is collected via GOCOVERDIR.
package lsptest

import (
	"testing"
	"time"

	"github.com/gkampitakis/go-snaps/match"
	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
)

func TestLSP_Initialize(t *testing.T) {
	t.Parallel()
	ts := startTestServer(t)
	result := ts.initialize(t)

	// Snapshot the full server capabilities; version is dynamic.
	snaps.MatchStandaloneJSON(t, result, match.Any("serverInfo.version"))
}

func TestLSP_ShutdownExit(t *testing.T) {
	t.Parallel()
	ts := startTestServer(t)
	ts.initialize(t)

	ts.shutdown(t)

	// After exit notification, the subprocess should terminate.
	exited := make(chan error, 1)
	go func() { exited <- ts.cmd.Wait() }()

	select {
	case <-exited:
		// Process exited (exit code may be non-zero due to jsonrpc2 handler teardown).
	case <-time.After(5 * time.Second):
		t.Fatal("server process did not exit after shutdown+exit")
	}
}

func TestLSP_ChangeRangeAcrossEdits(t *testing.T) {
	t.Parallel()
	ts := startTestServer(t)
	ts.initialize(t)

	uri := protocol.DocumentURI("file:///tmp/test-edits/main.ts")
	ts.openDocument(t, uri, "abc\ndef")
	ts.waitTracked(t, uri)

	// First pull establishes the baseline; no previous snapshot to diff against.
	first := ts.pullChangeRange(t, uri, 1)
	assert.Equal(t, 1, first.Version)

	// Two ranged edits: "b" -> "XY" on line 0, then insert "Z" at the start.
	ts.changeDocument(t, uri, 2, protocol.Range{
		Start: protocol.Position{Line: 0, Character: 1},
		End:   protocol.Position{Line: 0, Character: 2},
	}, "XY")
	ts.changeDocument(t, uri, 3, protocol.Range{
		Start: protocol.Position{Line: 0, Character: 0},
		End:   protocol.Position{Line: 0, Character: 0},
	}, "Z")

	got := ts.pullChangeRange(t, uri, 3)
	assert.Equal(t, 3, got.Version)
	if assert.NotNil(t, got.Range) {
		// Both edits grew the document by one byte each; whatever baseline the
		// pull landed on, the collapsed range must account for the net growth.
		assert.GreaterOrEqual(t, got.Range.Span.Start, 0)
		assert.Positive(t, got.Range.NewLength-got.Range.Span.Length)
	}
}

func TestLSP_FullReplaceBreaksIncrementality(t *testing.T) {
	t.Parallel()
	ts := startTestServer(t)
	ts.initialize(t)

	uri := protocol.DocumentURI("file:///tmp/test-replace/main.ts")
	ts.openDocument(t, uri, "let x = 1;\n")
	ts.waitTracked(t, uri)

	first := ts.pullChangeRange(t, uri, 1)
	assert.Equal(t, 1, first.Version)

	// A full-sync change discards the edit history, so the next pull cannot
	// describe the difference incrementally.
	ts.replaceDocument(t, uri, 2, "let y = 2;\n")

	got := ts.pullChangeRange(t, uri, 2)
	assert.Equal(t, 2, got.Version)
	assert.Nil(t, got.Range)
}

func TestLSP_CloseForgetsBaseline(t *testing.T) {
	t.Parallel()
	ts := startTestServer(t)
	ts.initialize(t)

	uri := protocol.DocumentURI("file:///tmp/test-close/main.ts")
	ts.openDocument(t, uri, "const a = 1;\n")
	ts.waitTracked(t, uri)
	ts.pullChangeRange(t, uri, 1)

	ts.closeDocument(t, uri)

	// The document stays tracked after close, but the retained pull baseline
	// is dropped, so a pull starts over with no range. Until the close
	// notification lands, a pull sees its own baseline and reports an empty
	// (non-nil) range instead.
	require.Eventually(t, func() bool {
		got := ts.pullChangeRange(t, uri, 1)
		return got.Version == 1 && got.Range == nil
	}, 5*time.Second, 10*time.Millisecond)
}

func TestLSP_UntrackedDocumentPullFails(t *testing.T) {
	t.Parallel()
	ts := startTestServer(t)
	ts.initialize(t)

	ctx := t.Context()
	var result changeRangeWire
	_, err := ts.conn.Call(ctx, "atomts/changeRange", map[string]string{
		"uri": "file:///tmp/test-untracked/nothing.ts",
	}, &result)
	assert.Error(t, err)
}
