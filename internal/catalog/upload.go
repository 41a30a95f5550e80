package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// MaxUploadSize is the largest file the catalog accepts.
const MaxUploadSize = 100 << 20

// UploadExtensions lists the file types the catalog accepts.
var UploadExtensions = []string{".glb", ".gltf", ".fbx", ".obj", ".stl", ".usdz"}

// ErrInvalidUpload is wrapped by every upload validation failure.
var ErrInvalidUpload = errors.New("invalid upload")

// UploadRequest names a local file to publish.
type UploadRequest struct {
	Name string
	Path string
}

// Uploader publishes new catalog entries. progress receives whole percents
// from 0 to 100 and may be nil.
type Uploader interface {
	Upload(ctx context.Context, req UploadRequest, progress func(int)) error
}

// ValidateUpload checks the name, extension and size of an upload. A limit
// of zero means MaxUploadSize.
func ValidateUpload(req UploadRequest, limit int64) error {
	if limit <= 0 {
		limit = MaxUploadSize
	}
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: please enter a model name", ErrInvalidUpload)
	}
	if req.Path == "" {
		return fmt.Errorf("%w: please select a model file", ErrInvalidUpload)
	}
	ext := strings.ToLower(filepath.Ext(req.Path))
	if !slices.Contains(UploadExtensions, ext) {
		return fmt.Errorf("%w: unsupported file type %q (allowed: %s)",
			ErrInvalidUpload, ext, strings.Join(UploadExtensions, ", "))
	}
	info, err := os.Stat(req.Path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidUpload, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrInvalidUpload, req.Path)
	}
	if info.Size() > limit {
		return fmt.Errorf("%w: file is %.1f MB, limit is %d MB",
			ErrInvalidUpload, float64(info.Size())/(1<<20), limit>>20)
	}
	return nil
}

// Upload streams the file as multipart form data (fields "name" and "file").
// Cancelling ctx aborts the transfer.
func (c *Client) Upload(ctx context.Context, req UploadRequest, progress func(int)) error {
	if err := ValidateUpload(req, c.MaxUploadSize); err != nil {
		return err
	}
	if progress == nil {
		progress = func(int) {}
	}

	f, err := os.Open(req.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	written := make(chan error, 1)
	go func() {
		err := writeForm(mw, strings.TrimSpace(req.Name), f, info.Size(), progress)
		pw.CloseWithError(err)
		written <- err
	}()

	progress(0)
	err = c.post(ctx, pr, mw.FormDataContentType())
	// Unblock the writer if the transport stopped reading early.
	pr.Close()
	werr := <-written
	if err != nil {
		return fmt.Errorf("uploading %s: %w", req.Path, err)
	}
	if werr != nil && !errors.Is(werr, io.ErrClosedPipe) {
		return fmt.Errorf("uploading %s: %w", req.Path, werr)
	}

	progress(100)
	c.log.Info("uploaded model",
		zap.String("name", req.Name),
		zap.String("file", filepath.Base(req.Path)),
		zap.Int64("bytes", info.Size()))
	return nil
}

func (c *Client) post(ctx context.Context, body io.Reader, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/upload-model", body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(req, resp)
}

func writeForm(mw *multipart.Writer, name string, f *os.File, size int64, progress func(int)) error {
	if err := mw.WriteField("name", name); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("file", filepath.Base(f.Name()))
	if err != nil {
		return err
	}
	pw := &progressWriter{total: size, report: progress}
	if _, err := io.Copy(io.MultiWriter(part, pw), f); err != nil {
		return err
	}
	return mw.Close()
}

// progressWriter reports percentages of total bytes written, below 100
// until the server has answered.
type progressWriter struct {
	total   int64
	written int64
	last    int
	report  func(int)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.total > 0 {
		pct := int(p.written * 100 / p.total)
		pct = min(pct, 99)
		if pct != p.last {
			p.last = pct
			p.report(pct)
		}
	}
	return len(b), nil
}
