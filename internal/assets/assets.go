// Package assets loads 3D assets in the background and shares decoded
// scene graphs between viewers that show the same asset.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/modelview/pkg/formats"
	"github.com/Faultbox/modelview/pkg/scene"
)

// Loader errors.
var (
	ErrEmptyID           = errors.New("empty asset id")
	ErrUnsupportedFormat = formats.ErrUnsupportedFormat
	ErrClosed            = errors.New("asset manager closed")
)

// LoadError reports a failed fetch or decode.
type LoadError struct {
	ID    string
	Cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading asset %q: %v", e.ID, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Status is the lifecycle state of a load.
type Status int

const (
	StatusPending Status = iota
	StatusLoaded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DecodeFunc turns an asset body into a scene graph.
type DecodeFunc func(format formats.Format, r io.Reader, fsys fs.FS) (*scene.Node, error)

// Options configures a Manager.
type Options struct {
	// DefaultAsset is loaded for blank ids. Empty means blank ids fail
	// with ErrEmptyID.
	DefaultAsset string
	// Source opens asset bytes. Defaults to a Router over the working
	// directory and HTTP with Timeout.
	Source  Source
	Timeout time.Duration
	// Decode defaults to formats.Decode.
	Decode DecodeFunc
	// PreloadConcurrency bounds PreloadAll. Zero means 4.
	PreloadConcurrency int
	Logger             *zap.Logger
}

// Stats counts cache activity.
type Stats struct {
	Entries int
	Hits    int
	Misses  int
	Fetches int
}

// Manager loads assets and caches them by id. A second Load of an id that
// is in flight or loaded shares the first result. Loaded assets stay
// cached until invalidated; in-flight loads nobody wants are cancelled.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*entry
	stats   Stats
	closed  bool

	opts   Options
	source Source
	decode DecodeFunc
	log    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a new asset manager.
func NewManager(opts Options) *Manager {
	if opts.Source == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		opts.Source = NewRouter("", timeout)
	}
	if opts.Decode == nil {
		opts.Decode = formats.Decode
	}
	if opts.PreloadConcurrency <= 0 {
		opts.PreloadConcurrency = 4
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		entries: make(map[string]*entry),
		opts:    opts,
		source:  opts.Source,
		decode:  opts.Decode,
		log:     log.Named("assets"),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (m *Manager) resolve(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return strings.TrimSpace(m.opts.DefaultAsset)
	}
	return id
}

// Load returns a handle on id, starting a background load when the id is
// not cached. Every handle must be released.
func (m *Manager) Load(id string) *Handle {
	e, err := m.acquire(id, false)
	if err != nil {
		return &Handle{e: failedEntry(id, err)}
	}
	return &Handle{m: m, e: e}
}

// Preload starts loading id without a consumer. The result stays cached
// until invalidated.
func (m *Manager) Preload(id string) error {
	_, err := m.acquire(id, true)
	return err
}

// PreloadAll preloads ids concurrently and waits for them to resolve.
// It returns the first load failure.
func (m *Manager) PreloadAll(ctx context.Context, ids []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.PreloadConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			e, err := m.acquire(id, true)
			if err != nil {
				return err
			}
			select {
			case <-e.done:
				return e.Err()
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	return g.Wait()
}

func (m *Manager) acquire(id string, pin bool) (*entry, error) {
	key := m.resolve(id)
	if key == "" {
		return nil, &LoadError{ID: id, Cause: ErrEmptyID}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, &LoadError{ID: key, Cause: ErrClosed}
	}

	if e, ok := m.entries[key]; ok && e.Status() != StatusFailed {
		m.stats.Hits++
		if pin {
			e.pinned = true
		} else {
			e.refs++
		}
		return e, nil
	}

	m.stats.Misses++
	ctx, cancel := context.WithCancel(m.ctx)
	e := newEntry(key, cancel)
	if pin {
		e.pinned = true
	} else {
		e.refs = 1
	}
	m.entries[key] = e

	m.wg.Add(1)
	go m.run(ctx, e)
	return e, nil
}

func (m *Manager) release(e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.refs--
	if e.refs > 0 || e.pinned || e.Status() != StatusPending {
		return
	}
	m.log.Debug("cancelling orphaned load", zap.String("asset", e.id))
	e.cancel()
	if m.entries[e.id] == e {
		delete(m.entries, e.id)
	}
}

func (m *Manager) run(ctx context.Context, e *entry) {
	defer m.wg.Done()
	defer e.cancel()

	start := time.Now()
	root, err := m.fetch(ctx, e)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}

	if err != nil {
		lerr := &LoadError{ID: e.id, Cause: err}
		e.fail(lerr)
		m.evict(e)
		if errors.Is(err, context.Canceled) {
			m.log.Debug("load cancelled", zap.String("asset", e.id))
		} else {
			m.log.Warn("load failed", zap.String("asset", e.id), zap.Error(err))
		}
		return
	}

	e.succeed(root)
	nodes, prims := root.Count()
	m.log.Debug("asset loaded",
		zap.String("asset", e.id),
		zap.Int("nodes", nodes),
		zap.Int("primitives", prims),
		zap.Duration("took", time.Since(start)))
}

func (m *Manager) fetch(ctx context.Context, e *entry) (root *scene.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("decoder panic", zap.String("asset", e.id), zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			root, err = nil, fmt.Errorf("decoder panic: %v", r)
		}
	}()

	format, err := formats.DetectFormat(e.id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.stats.Fetches++
	m.mu.Unlock()

	res, err := m.source.Open(ctx, e.id)
	if err != nil {
		return nil, fmt.Errorf("opening: %w", err)
	}
	defer res.Body.Close()

	body := &progressReader{r: res.Body, total: res.Size, report: e.setProgress}
	root, err = m.decode(format, body, res.FS)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, fmt.Errorf("decoder returned no scene")
	}
	return root, nil
}

func (m *Manager) evict(e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries[e.id] == e {
		delete(m.entries, e.id)
	}
}

// Invalidate drops id from the cache so the next Load fetches it again.
// Existing handles keep their result.
func (m *Manager) Invalidate(id string) {
	key := m.resolve(id)
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return
	}
	delete(m.entries, key)
	if e.refs <= 0 {
		e.cancel()
	}
}

// Wait blocks until h resolves or ctx ends and returns the load error.
func (m *Manager) Wait(ctx context.Context, h *Handle) error {
	select {
	case <-h.Done():
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns cache statistics.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stats
	s.Entries = len(m.entries)
	return s
}

// Close cancels every load and empties the cache. Handles stay valid.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.entries = make(map[string]*entry)
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
}
