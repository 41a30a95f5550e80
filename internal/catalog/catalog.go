// Package catalog talks to the model catalog service: listing, deleting and
// uploading asset entries.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Model is one catalog entry.
type Model struct {
	ID        string
	Name      string
	URL       string
	Format    string
	SizeMB    float64
	UpdatedAt time.Time
}

// Service lists and deletes catalog entries.
type Service interface {
	List(ctx context.Context) ([]Model, error)
	Delete(ctx context.Context, id string) error
}

// StatusError is returned when the catalog answers with a non-2xx status.
type StatusError struct {
	Method  string
	URL     string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Code, http.StatusText(e.Code))
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Client is the HTTP implementation of Service and Uploader.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	// MaxUploadSize bounds upload files in bytes. Zero means MaxUploadSize.
	MaxUploadSize int64

	log *zap.Logger
}

// NewClient creates a client for the catalog API rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		log:     log.Named("catalog"),
	}
}

// wireModel is the catalog's JSON shape.
type wireModel struct {
	ID        string   `json:"_id"`
	Name      string   `json:"name"`
	FileURL   string   `json:"fileUrl"`
	FileSize  flexSize `json:"fileSize"`
	UpdatedAt string   `json:"updatedAt"`
}

// flexSize accepts the file size either as a JSON number or a numeric string.
type flexSize float64

func (s *flexSize) UnmarshalJSON(data []byte) error {
	text := strings.Trim(string(data), `"`)
	if text == "" || text == "null" {
		*s = 0
		return nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("fileSize %s: %w", data, err)
	}
	*s = flexSize(v)
	return nil
}

func (w wireModel) model() Model {
	m := Model{
		ID:     w.ID,
		Name:   w.Name,
		URL:    w.FileURL,
		Format: formatOf(w.FileURL),
		SizeMB: float64(w.FileSize),
	}
	if t, err := time.Parse(time.RFC3339Nano, w.UpdatedAt); err == nil {
		m.UpdatedAt = t
	}
	return m
}

// formatOf derives the format label from the asset URL extension.
func formatOf(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
	if ext == "" {
		return "glb"
	}
	return ext
}

// List fetches every catalog entry.
func (c *Client) List(ctx context.Context) ([]Model, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/all-models", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(req, resp); err != nil {
		return nil, err
	}

	var wire []wireModel
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decoding model list: %w", err)
	}
	models := make([]Model, 0, len(wire))
	for _, w := range wire {
		models = append(models, w.model())
	}
	c.log.Debug("listed models", zap.Int("count", len(models)))
	return models, nil
}

// Delete removes the entry with the given id. Deleting an entry that no
// longer exists succeeds.
func (c *Client) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("delete: empty id")
	}
	body, err := json.Marshal(struct {
		ID string `json:"id"`
	}{id})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.BaseURL+"/delete-model", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("deleting model %s: %w", id, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		c.log.Debug("model already gone", zap.String("id", id))
		return nil
	}
	if err := checkStatus(req, resp); err != nil {
		return err
	}
	c.log.Info("deleted model", zap.String("id", id))
	return nil
}

func checkStatus(req *http.Request, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &StatusError{
		Method:  req.Method,
		URL:     req.URL.String(),
		Code:    resp.StatusCode,
		Message: errorMessage(resp.Body),
	}
}

// errorMessage extracts {"error": ...} or {"message": ...} from a response body.
func errorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &body) == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return strings.TrimSpace(string(data))
}
