package lspserver

import (
	"io"
	"sync"
)

// memPipe is a thread-safe in-memory buffer implementing io.ReadWriteCloser,
// used to connect two jsonrpc2 streams without real file descriptors.
type memPipe struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []byte
	closed bool
}

func newMemPipe() *memPipe {
	p := &memPipe{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

func (p *memPipe) Read(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.buf) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.buf) == 0 && p.closed {
		return 0, io.EOF
	}
	n := copy(data, p.buf)
	p.buf = p.buf[n:]
	return n, nil
}

func (p *memPipe) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, io.ErrClosedPipe
	}
	p.buf = append(p.buf, data...)
	p.cond.Signal()
	return len(data), nil
}

func (p *memPipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	p.cond.Broadcast()
	return nil
}

// rwc joins separate reader and writer halves into a ReadWriteCloser.
type rwc struct {
	reader io.Reader
	writer io.Writer
}

func (r rwc) Read(p []byte) (int, error)  { return r.reader.Read(p) }
func (r rwc) Write(p []byte) (int, error) { return r.writer.Write(p) }
func (r rwc) Close() error                { return nil }
