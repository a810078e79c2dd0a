// Package host maintains the path-keyed set of tracked documents and fulfils
// the pull-based contract the analysis engine consumes: file list, per-file
// version string, per-file snapshot, compiler options, working directory and
// the default runtime library name.
//
// The registry owns its documents exclusively; snapshots handed out are
// independently owned copies, so removing a document never invalidates a
// snapshot a caller still holds.
package host

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/jbarket/atom-typescript/internal/config"
	"github.com/jbarket/atom-typescript/internal/script"
	"github.com/jbarket/atom-typescript/internal/textbuf"
)

// defaultLibFileName is the runtime library the analysis engine loads when a
// project does not name one.
const defaultLibFileName = "lib.d.ts"

// ErrNotFound reports an operation on an unregistered path where the
// contract requires prior registration.
var ErrNotFound = errors.New("document not found")

// Registry maps file paths to tracked documents.
type Registry struct {
	mu   sync.RWMutex
	docs map[string]*script.Document

	project *config.Project
	cwd     string
	log     *logrus.Entry
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger; the standard logrus logger is used otherwise.
func WithLogger(l *logrus.Logger) Option {
	return func(r *Registry) {
		r.log = l.WithField("component", "host")
	}
}

// WithWorkingDir sets the working directory reported to the engine.
func WithWorkingDir(dir string) Option {
	return func(r *Registry) { r.cwd = dir }
}

// New creates a registry for the given project configuration.
// A nil project falls back to the defaults.
func New(project *config.Project, opts ...Option) *Registry {
	if project == nil {
		p := config.Default()
		project = &p
	}
	r := &Registry{
		docs:    make(map[string]*script.Document),
		project: project,
		log:     logrus.StandardLogger().WithField("component", "host"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cwd == "" {
		if wd, err := os.Getwd(); err == nil {
			r.cwd = wd
		}
	}
	return r
}

// Add registers a path, reading its content from disk. A read failure is
// swallowed: the document is registered with empty content so one unreadable
// file never blocks the registry. Adding an already-tracked path is a no-op.
func (r *Registry) Add(path string) *script.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc, ok := r.docs[path]; ok {
		return doc
	}
	text := ""
	if data, err := os.ReadFile(path); err == nil {
		text = string(data)
	} else {
		r.log.WithError(err).WithField("path", path).Debug("registering unreadable file as empty")
	}
	doc := script.NewDocument(path, text)
	r.docs[path] = doc
	return doc
}

// Update replaces a document's content wholesale, registering the path if it
// is not yet tracked.
func (r *Registry) Update(path, content string) *script.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[path]
	if !ok {
		doc = script.NewDocument(path, content)
		r.docs[path] = doc
		return doc
	}
	doc.UpdateContent(content)
	return doc
}

// Edit applies a ranged edit to a tracked document. Unlike Update it never
// creates the document: edits require a prior open or add.
func (r *Registry) Edit(path string, oldStart, oldEnd int, newText string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[path]
	if !ok {
		return fmt.Errorf("edit %s: %w", path, ErrNotFound)
	}
	return doc.EditContent(oldStart, oldEnd, newText)
}

// SetOpen records a document's editor-open state.
func (r *Registry) SetOpen(path string, open bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[path]
	if !ok {
		return fmt.Errorf("set open %s: %w", path, ErrNotFound)
	}
	doc.SetOpen(open)
	return nil
}

// Remove drops a document from the registry. Snapshots already handed out
// stay valid.
func (r *Registry) Remove(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, path)
}

// RemoveAll drops every tracked document.
func (r *Registry) RemoveAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = make(map[string]*script.Document)
}

// Has reports whether a path is tracked.
func (r *Registry) Has(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.docs[path]
	return ok
}

// Content returns a document's current text.
func (r *Registry) Content(path string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[path]
	if !ok {
		return "", false
	}
	return doc.Text(), true
}

// OffsetOf converts a line/column position to a byte offset. Unknown paths
// and invalid positions yield -1; this call never registers anything.
func (r *Registry) OffsetOf(path string, pos textbuf.Pos) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[path]
	if !ok {
		return -1
	}
	off, err := doc.OffsetAt(pos)
	if err != nil {
		return -1
	}
	return off
}

// PositionOf converts a byte offset to a line/column position. An unknown
// path is implicitly registered with empty content before answering — the
// historical counterpart to OffsetOf's non-registering behavior.
func (r *Registry) PositionOf(path string, offset int) (textbuf.Pos, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[path]
	if !ok {
		doc = script.NewDocument(path, "")
		r.docs[path] = doc
	}
	pos, err := doc.PositionAt(offset)
	if err != nil {
		return textbuf.Pos{}, false
	}
	return pos, true
}

// LoadProject scans the project file list and registers every match.
// It returns the registered paths.
func (r *Registry) LoadProject() ([]string, error) {
	files, err := r.project.Scan()
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		r.Add(f)
	}
	return files, nil
}

// Host contract.

// FileNames returns the tracked paths in sorted order.
func (r *Registry) FileNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.docs))
	for path := range r.docs {
		names = append(names, path)
	}
	sort.Strings(names)
	return names
}

// Version returns a document's version as a string, or "" when untracked.
func (r *Registry) Version(path string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[path]
	if !ok {
		return ""
	}
	return strconv.Itoa(doc.Version())
}

// IsOpen reports a document's editor-open state.
func (r *Registry) IsOpen(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[path]
	return ok && doc.Open()
}

// SnapshotOf captures an immutable snapshot of a tracked document.
// Takes the write lock: capturing may rebuild the document's line-start cache.
func (r *Registry) SnapshotOf(path string) (*script.Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[path]
	if !ok {
		return nil, false
	}
	return doc.Snapshot(), true
}

// CompilerOptions returns the compiler configuration for the engine.
func (r *Registry) CompilerOptions() config.CompilerOptions {
	return r.project.CompilerOptions
}

// WorkingDirectory returns the directory relative paths resolve against.
func (r *Registry) WorkingDirectory() string { return r.cwd }

// DefaultLibFileName returns the default runtime library file name.
func (r *Registry) DefaultLibFileName() string { return defaultLibFileName }
