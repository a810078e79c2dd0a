// Package lspserver feeds editor document events into the tracked document
// registry over the Language Server Protocol.
//
// The server is the ingress side of the system: didOpen/didChange/didClose
// notifications mutate the registry, while the analysis engine pulls
// snapshots and change ranges on its own schedule. Document sync is
// incremental — ranged changes are applied as span edits so the per-document
// edit history stays collapsible.
//
// Transport: stdio only (--stdio).
// Protocol: LSP 3.16 types via go.lsp.dev/protocol, JSON-RPC via go.lsp.dev/jsonrpc2.
package lspserver

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/jbarket/atom-typescript/internal/host"
	"github.com/jbarket/atom-typescript/internal/version"
)

const serverName = "tshost"

// Server is the document-sync server.
type Server struct {
	conn     jsonrpc2.Conn
	registry *host.Registry
	log      *logrus.Entry

	retained retainedSnapshots
}

// New creates a server over the given registry.
func New(registry *host.Registry) *Server {
	return &Server{
		registry: registry,
		log:      logrus.StandardLogger().WithField("component", "lsp"),
	}
}

// RunStdio starts the server on stdin/stdout.
// It blocks until the connection is closed or the context is cancelled.
func (s *Server) RunStdio(ctx context.Context) error {
	stream := jsonrpc2.NewStream(stdioReadWriteCloser{})
	conn := jsonrpc2.NewConn(stream)
	s.conn = conn

	conn.Go(ctx, jsonrpc2.AsyncHandler(jsonrpc2.ReplyHandler(s.handle)))

	select {
	case <-ctx.Done():
		return conn.Close()
	case <-conn.Done():
		return conn.Err()
	}
}

// handle dispatches incoming JSON-RPC messages to the appropriate handler.
func (s *Server) handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	switch req.Method() {
	// Lifecycle
	case protocol.MethodInitialize:
		return s.handleInitialize(ctx, reply, req)
	case protocol.MethodInitialized:
		return reply(ctx, nil, nil)
	case protocol.MethodShutdown:
		return reply(ctx, nil, nil)
	case protocol.MethodExit:
		return s.conn.Close()
	case protocol.MethodSetTrace:
		return reply(ctx, nil, nil)

	// Document sync
	case protocol.MethodTextDocumentDidOpen:
		return s.handleDidOpen(ctx, reply, req)
	case protocol.MethodTextDocumentDidChange:
		return s.handleDidChange(ctx, reply, req)
	case protocol.MethodTextDocumentDidSave:
		return s.handleDidSave(ctx, reply, req)
	case protocol.MethodTextDocumentDidClose:
		return s.handleDidClose(ctx, reply, req)

	// Change-range pulls
	case methodChangeRange:
		return s.handleChangeRange(ctx, reply, req)

	// Workspace
	case protocol.MethodWorkspaceDidChangeConfiguration:
		return reply(ctx, nil, nil)

	default:
		return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
	}
}

// handleInitialize responds to the initialize request with server capabilities.
func (s *Server) handleInitialize(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.InitializeParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return replyParseError(ctx, reply, err)
	}

	s.log.WithField("client", clientInfoString(params.ClientInfo)).Info("initialize")

	result := protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindIncremental,
				Save: &protocol.SaveOptions{
					IncludeText: true,
				},
			},
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    serverName,
			Version: version.RawVersion(),
		},
	}

	return reply(ctx, result, nil)
}

// handleDidOpen registers the document and marks it editor-open.
func (s *Server) handleDidOpen(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return replyParseError(ctx, reply, err)
	}

	path := uriToPath(string(params.TextDocument.URI))
	s.registry.Update(path, params.TextDocument.Text)
	if err := s.registry.SetOpen(path, true); err != nil {
		s.log.WithError(err).Warn("didOpen")
	}
	return reply(ctx, nil, nil)
}

// contentChange mirrors TextDocumentContentChangeEvent with a pointer range,
// so a change without a range (full replace) stays distinguishable from a
// ranged change at the zero position.
type contentChange struct {
	Range *protocol.Range `json:"range,omitempty"`
	Text  string          `json:"text"`
}

// didChangeParams is DidChangeTextDocumentParams over contentChange.
type didChangeParams struct {
	TextDocument   protocol.VersionedTextDocumentIdentifier `json:"textDocument"`
	ContentChanges []contentChange                          `json:"contentChanges"`
}

// handleDidChange applies the content changes to the tracked document.
// Ranged changes become span edits; a change without a range replaces the
// whole document. A ranged change that cannot be applied is dropped: its
// text is a fragment, never a valid replacement for the full content.
func (s *Server) handleDidChange(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params didChangeParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return replyParseError(ctx, reply, err)
	}

	path := uriToPath(string(params.TextDocument.URI))
	for _, change := range params.ContentChanges {
		if change.Range == nil {
			s.registry.Update(path, change.Text)
			continue
		}
		if err := s.applyRangedChange(path, *change.Range, change.Text); err != nil {
			s.log.WithError(err).WithField("path", path).Warn("didChange: dropping unappliable change")
		}
	}
	return reply(ctx, nil, nil)
}

// handleDidSave refreshes the content when the client includes the text.
func (s *Server) handleDidSave(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidSaveTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return replyParseError(ctx, reply, err)
	}

	if params.Text != "" {
		s.registry.Update(uriToPath(string(params.TextDocument.URI)), params.Text)
	}
	return reply(ctx, nil, nil)
}

// handleDidClose clears the editor-open flag. The document stays tracked so
// the engine can keep pulling snapshots for project files.
func (s *Server) handleDidClose(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return replyParseError(ctx, reply, err)
	}

	path := uriToPath(string(params.TextDocument.URI))
	if err := s.registry.SetOpen(path, false); err != nil {
		s.log.WithError(err).Warn("didClose")
	}
	s.retained.drop(path)
	return reply(ctx, nil, nil)
}

// replyParseError sends a JSON-RPC parse error.
func replyParseError(ctx context.Context, reply jsonrpc2.Replier, err error) error {
	return reply(ctx, nil, jsonrpc2.Errorf(jsonrpc2.ParseError, "invalid params: %v", err))
}

// clientInfoString formats client info for logging.
func clientInfoString(info *protocol.ClientInfo) string {
	if info == nil {
		return "unknown"
	}
	if info.Version != "" {
		return info.Name + " " + info.Version
	}
	return info.Name
}

// uriToPath converts a file:// URI to a local file path.
func uriToPath(docURI string) string {
	parsed, err := url.Parse(docURI)
	if err != nil {
		return strings.TrimPrefix(docURI, "file://")
	}
	path := parsed.Path
	// On Windows, file URIs look like file:///C:/path, so Path is /C:/path.
	if runtime.GOOS == "windows" && len(path) > 2 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path)
}

// stdioReadWriteCloser wraps stdin/stdout as an io.ReadWriteCloser for JSON-RPC.
type stdioReadWriteCloser struct{}

func (stdioReadWriteCloser) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioReadWriteCloser) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdioReadWriteCloser) Close() error                { return nil }
