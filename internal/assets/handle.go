package assets

import (
	"context"
	"io"
	"sync"

	"github.com/Faultbox/modelview/pkg/scene"
)

// entry is one cached load, shared by every handle on the same id.
// refs and pinned are guarded by the manager lock.
type entry struct {
	id     string
	refs   int
	pinned bool
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	status   Status
	progress float64
	root     *scene.Node
	err      error
}

func newEntry(id string, cancel context.CancelFunc) *entry {
	return &entry{id: id, cancel: cancel, done: make(chan struct{})}
}

func failedEntry(id string, err error) *entry {
	e := newEntry(id, func() {})
	e.fail(err)
	return e
}

// setProgress records a read ratio. Progress never decreases, never
// reaches 1 before decoding finishes, and freezes once resolved.
func (e *entry) setProgress(p float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != StatusPending {
		return
	}
	if p > 0.99 {
		p = 0.99
	}
	if p > e.progress {
		e.progress = p
	}
}

func (e *entry) succeed(root *scene.Node) {
	e.mu.Lock()
	e.status = StatusLoaded
	e.root = root
	e.progress = 1
	e.mu.Unlock()
	close(e.done)
}

func (e *entry) fail(err error) {
	e.mu.Lock()
	e.status = StatusFailed
	e.err = err
	e.mu.Unlock()
	close(e.done)
}

func (e *entry) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *entry) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Handle is one consumer's reference to a load. Handles are safe for
// concurrent use.
type Handle struct {
	m    *Manager
	e    *entry
	once sync.Once
}

// ID returns the resolved asset id.
func (h *Handle) ID() string { return h.e.id }

// Root returns the loaded scene graph, or nil until loaded. The graph is
// shared and must not be modified.
func (h *Handle) Root() *scene.Node {
	h.e.mu.Lock()
	defer h.e.mu.Unlock()
	return h.e.root
}

// Progress returns the load ratio in [0, 1].
func (h *Handle) Progress() float64 {
	h.e.mu.Lock()
	defer h.e.mu.Unlock()
	return h.e.progress
}

// Status returns the load state.
func (h *Handle) Status() Status { return h.e.Status() }

// Err returns the *LoadError of a failed load.
func (h *Handle) Err() error { return h.e.Err() }

// Done is closed when the load resolves.
func (h *Handle) Done() <-chan struct{} { return h.e.done }

// Release drops the reference. Releasing the last reference of an
// in-flight load cancels it. Safe to call more than once.
func (h *Handle) Release() {
	h.once.Do(func() {
		if h.m != nil {
			h.m.release(h.e)
		}
	})
}

// progressReader reports the fraction of total bytes read so far.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	report func(float64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		if p.total > 0 {
			p.report(float64(p.read) / float64(p.total))
		}
	}
	return n, err
}
