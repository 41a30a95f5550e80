package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/", 5*time.Second, nil)
}

func TestListMapsWireFields(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/all-models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[
			{"_id":"a1","name":"Chair","fileUrl":"https://cdn.example.com/chair.GLB","fileSize":"2.5","updatedAt":"2024-05-01T10:00:00Z"},
			{"_id":"b2","name":"Robot","fileUrl":"https://cdn.example.com/robot.obj?v=2","fileSize":12},
			{"_id":"c3","name":"Blob","fileUrl":"https://cdn.example.com/blob"}
		]`)
	}))

	models, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 3)

	assert.Equal(t, Model{
		ID:        "a1",
		Name:      "Chair",
		URL:       "https://cdn.example.com/chair.GLB",
		Format:    "glb",
		SizeMB:    2.5,
		UpdatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}, models[0])
	assert.Equal(t, "obj", models[1].Format)
	assert.Equal(t, 12.0, models[1].SizeMB)
	assert.True(t, models[1].UpdatedAt.IsZero())
	assert.Equal(t, "glb", models[2].Format)
	assert.Zero(t, models[2].SizeMB)
}

func TestListStatusError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"message":"database down"}`)
	}))

	_, err := c.List(context.Background())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, "database down", se.Message)
	assert.Contains(t, err.Error(), "GET")
}

func TestListBadJSON(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"not":"a list"}`)
	}))
	_, err := c.List(context.Background())
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	got := make(chan string, 1)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/delete-model", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body struct {
			ID string `json:"id"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		got <- body.ID
		w.WriteHeader(http.StatusOK)
	}))

	require.NoError(t, c.Delete(context.Background(), "a1"))
	assert.Equal(t, "a1", <-got)
}

func TestDeleteMissingIsSuccess(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	assert.NoError(t, c.Delete(context.Background(), "gone"))
}

func TestDeleteErrors(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"error":"not yours"}`)
	}))

	assert.Error(t, c.Delete(context.Background(), " "))

	err := c.Delete(context.Background(), "a1")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Code)
	assert.Equal(t, "not yours", se.Message)
}

func writeFile(t *testing.T, name string, size int) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, make([]byte, size), 0o644))
	return p
}

func TestValidateUpload(t *testing.T) {
	glb := writeFile(t, "chair.glb", 2048)
	upper := writeFile(t, "ROBOT.OBJ", 16)
	txt := writeFile(t, "notes.txt", 16)

	tests := []struct {
		name  string
		req   UploadRequest
		limit int64
		ok    bool
	}{
		{"valid", UploadRequest{Name: "Chair", Path: glb}, 0, true},
		{"uppercase extension", UploadRequest{Name: "Robot", Path: upper}, 0, true},
		{"blank name", UploadRequest{Name: "  ", Path: glb}, 0, false},
		{"no file", UploadRequest{Name: "Chair"}, 0, false},
		{"bad extension", UploadRequest{Name: "Notes", Path: txt}, 0, false},
		{"missing file", UploadRequest{Name: "Chair", Path: filepath.Join(t.TempDir(), "x.glb")}, 0, false},
		{"too large", UploadRequest{Name: "Chair", Path: glb}, 1024, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(tt.req, tt.limit)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidUpload)
		})
	}
}

func TestUploadStreamsMultipart(t *testing.T) {
	path := writeFile(t, "chair.glb", 256<<10)

	var (
		srvMu   sync.Mutex
		gotName string
		gotFile string
		gotSize int64
	)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/upload-model", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		n, _ := io.Copy(io.Discard, f)
		srvMu.Lock()
		gotName, gotFile, gotSize = r.FormValue("name"), hdr.Filename, n
		srvMu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}))

	var (
		mu  sync.Mutex
		pct []int
	)
	err := c.Upload(context.Background(), UploadRequest{Name: " Chair ", Path: path}, func(p int) {
		mu.Lock()
		pct = append(pct, p)
		mu.Unlock()
	})
	require.NoError(t, err)

	srvMu.Lock()
	assert.Equal(t, "Chair", gotName)
	assert.Equal(t, "chair.glb", gotFile)
	assert.EqualValues(t, 256<<10, gotSize)
	srvMu.Unlock()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, pct)
	assert.Equal(t, 0, pct[0])
	assert.Equal(t, 100, pct[len(pct)-1])
	assert.IsNonDecreasing(t, pct)
	for _, p := range pct {
		assert.True(t, p >= 0 && p <= 100, "progress %d out of range", p)
	}
}

func TestUploadRejectsInvalidWithoutRequest(t *testing.T) {
	called := false
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	err := c.Upload(context.Background(), UploadRequest{Name: "Notes", Path: writeFile(t, "notes.txt", 4)}, nil)
	assert.ErrorIs(t, err, ErrInvalidUpload)
	assert.False(t, called)
}

func TestUploadServerError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"message":"duplicate name"}`)
	}))

	last := -1
	err := c.Upload(context.Background(), UploadRequest{Name: "Chair", Path: writeFile(t, "c.glb", 64)}, func(p int) { last = p })
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "duplicate name", se.Message)
	assert.Less(t, last, 100)
}

func TestUploadCancel(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 1024)
		io.ReadFull(r.Body, buf)
		close(started)
		<-release
	}))

	path := writeFile(t, "big.stl", 8<<20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.Upload(ctx, UploadRequest{Name: "Big", Path: path}, nil)
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("upload never reached the server")
	}
	cancel()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("upload did not stop after cancel")
	}
}

func TestClientImplementsInterfaces(t *testing.T) {
	var _ Service = (*Client)(nil)
	var _ Uploader = (*Client)(nil)
}
