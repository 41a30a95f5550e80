package assets

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Resource is an opened asset body.
type Resource struct {
	Body io.ReadCloser
	// Size in bytes, or -1 when unknown.
	Size int64
	// FS resolves files referenced by the asset, such as external glTF
	// buffers. Nil when the asset cannot reference other files.
	FS fs.FS
}

// Source opens asset bytes by id.
type Source interface {
	Open(ctx context.Context, id string) (*Resource, error)
}

// FileSource reads assets from the local filesystem. Relative paths are
// resolved against Root.
type FileSource struct {
	Root string
}

// Open implements Source. Both plain paths and file:// URLs are accepted.
func (s FileSource) Open(ctx context.Context, id string) (*Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := id
	if strings.HasPrefix(id, "file://") {
		u, err := url.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", id, err)
		}
		p = filepath.FromSlash(u.Path)
	}
	if !filepath.IsAbs(p) && s.Root != "" {
		p = filepath.Join(s.Root, p)
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%s is a directory", p)
	}
	return &Resource{
		Body: f,
		Size: info.Size(),
		FS:   os.DirFS(filepath.Dir(p)),
	}, nil
}

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// HTTPSource fetches assets over HTTP(S).
type HTTPSource struct {
	Client *http.Client
}

// NewHTTPSource creates a source with the given per-request timeout.
func NewHTTPSource(timeout time.Duration) HTTPSource {
	return HTTPSource{Client: &http.Client{Timeout: timeout}}
}

func (s HTTPSource) client() *http.Client {
	if s.Client == nil {
		return http.DefaultClient
	}
	return s.Client
}

// Open implements Source.
func (s HTTPSource) Open(ctx context.Context, id string) (*Resource, error) {
	body, size, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(id)
	if err != nil {
		body.Close()
		return nil, fmt.Errorf("parsing %s: %w", id, err)
	}
	return &Resource{
		Body: body,
		Size: size,
		FS:   httpFS{ctx: ctx, src: s, base: base},
	}, nil
}

func (s HTTPSource) get(ctx context.Context, rawURL string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	resp, err := s.client().Do(req)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, 0, &StatusError{URL: rawURL, Code: resp.StatusCode}
	}
	return resp.Body, resp.ContentLength, nil
}

// httpFS resolves names relative to the asset URL.
type httpFS struct {
	ctx  context.Context
	src  HTTPSource
	base *url.URL
}

func (h httpFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	ref, err := url.Parse(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	target := h.base.ResolveReference(ref).String()
	body, size, err := h.src.get(h.ctx, target)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return &httpFile{ReadCloser: body, name: path.Base(name), size: size}, nil
}

type httpFile struct {
	io.ReadCloser
	name string
	size int64
}

func (f *httpFile) Stat() (fs.FileInfo, error) { return f, nil }

func (f *httpFile) Name() string       { return f.name }
func (f *httpFile) Size() int64        { return f.size }
func (f *httpFile) Mode() fs.FileMode  { return 0444 }
func (f *httpFile) ModTime() time.Time { return time.Time{} }
func (f *httpFile) IsDir() bool        { return false }
func (f *httpFile) Sys() any           { return nil }

// Router dispatches http(s) ids to HTTP and everything else to Files.
type Router struct {
	HTTP  Source
	Files Source
}

// NewRouter creates a router with default file and HTTP sources.
func NewRouter(root string, timeout time.Duration) Router {
	return Router{HTTP: NewHTTPSource(timeout), Files: FileSource{Root: root}}
}

// Open implements Source.
func (r Router) Open(ctx context.Context, id string) (*Resource, error) {
	lower := strings.ToLower(id)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		if r.HTTP == nil {
			return nil, fmt.Errorf("no HTTP source for %s", id)
		}
		return r.HTTP.Open(ctx, id)
	}
	if r.Files == nil {
		return nil, fmt.Errorf("no file source for %s", id)
	}
	return r.Files.Open(ctx, id)
}
