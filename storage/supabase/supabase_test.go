package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entadmin/adminkit/logger"
	"github.com/entadmin/adminkit/storage"
)

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string]string
	types   map[string]string
	authz   []string
}

func (f *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authz = append(f.authz, r.Header.Get("Authorization"))

	const object = "/storage/v1/object/docs/"
	switch {
	case r.URL.Path == "/storage/v1/object/list/docs":
		var body struct {
			Prefix string `json:"prefix"`
			Search string `json:"search"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		items := []map[string]any{{"name": "sub", "id": ""}}
		for k, v := range f.objects {
			if strings.HasPrefix(k, body.Prefix) && !strings.Contains(strings.TrimPrefix(k, body.Prefix), "/") {
				items = append(items, map[string]any{
					"name": strings.TrimPrefix(k, body.Prefix), "id": "id-" + k,
					"updated_at": "2026-10-01T08:00:00Z",
					"metadata":   map[string]any{"size": len(v), "mimetype": f.types[k]},
				})
			}
		}
		_ = json.NewEncoder(w).Encode(items)
	case strings.HasPrefix(r.URL.Path, "/storage/v1/object/sign/docs/"):
		key := strings.TrimPrefix(r.URL.Path, "/storage/v1/object/sign/docs/")
		_ = json.NewEncoder(w).Encode(map[string]string{"signedURL": "/object/sign/docs/" + key + "?token=t"})
	case r.URL.Path == "/storage/v1/object/docs" && r.Method == http.MethodDelete:
		var body struct {
			Prefixes []string `json:"prefixes"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		for _, p := range body.Prefixes {
			delete(f.objects, p)
		}
		_, _ = w.Write([]byte(`[]`))
	case strings.HasPrefix(r.URL.Path, object):
		key := strings.TrimPrefix(r.URL.Path, object)
		switch r.Method {
		case http.MethodPost:
			data, _ := io.ReadAll(r.Body)
			f.objects[key] = string(data)
			f.types[key] = r.Header.Get("Content-Type")
			_, _ = w.Write([]byte(`{"Key":"docs/` + key + `"}`))
		case http.MethodHead, http.MethodGet:
			v, ok := f.objects[key]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			if r.Method == http.MethodGet {
				_, _ = io.WriteString(w, v)
			}
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestStorage(t *testing.T) (*Storage, *fakeBucket, string) {
	t.Helper()
	fake := &fakeBucket{objects: map[string]string{}, types: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewStorage(storage.Config{URL: srv.URL, Bucket: "docs", SecretKey: "service"}, logger.Nop())
	require.NoError(t, err)
	return s, fake, srv.URL
}

func TestSupabaseStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, fake, _ := newTestStorage(t)

	require.NoError(t, s.Upload(ctx, "e-1/licence.pdf", strings.NewReader("pdf"), "application/pdf"))
	require.NoError(t, s.Upload(ctx, "e-1/logo.png", strings.NewReader("png!"), ""))
	assert.Equal(t, "application/pdf", fake.types["e-1/licence.pdf"])
	assert.Equal(t, "application/octet-stream", fake.types["e-1/logo.png"])

	ok, err := s.Exists(ctx, "e-1/licence.pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Download(ctx, "e-1/logo.png")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, "png!", string(data))

	files, err := s.List(ctx, "e-1/")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "e-1/licence.pdf", files[0].Path)
	assert.Equal(t, int64(3), files[0].Size)
	assert.Equal(t, 2026, files[0].LastModified.Year())

	files, err = s.List(ctx, "e-1/lo")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "e-1/logo.png", files[0].Path)

	require.NoError(t, s.Delete(ctx, "e-1/logo.png"))
	ok, err = s.Exists(ctx, "e-1/logo.png")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Download(ctx, "e-1/logo.png")
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	for _, a := range fake.authz {
		assert.Equal(t, "Bearer service", a)
	}
}

func TestSupabaseURLs(t *testing.T) {
	ctx := context.Background()
	s, _, base := newTestStorage(t)

	u, err := s.URL(ctx, "e-1/licence.pdf")
	require.NoError(t, err)
	assert.Equal(t, base+"/storage/v1/object/public/docs/e-1/licence.pdf", u)

	signed, err := s.SignedURL(ctx, "e-1/licence.pdf", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, base+"/storage/v1/object/sign/docs/e-1/licence.pdf?token=t", signed)
}

func TestUploadFailureIncludesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"new row violates row-level security policy"}`))
	}))
	defer srv.Close()

	s, err := NewStorage(storage.Config{URL: srv.URL, Bucket: "docs", SecretKey: "k"}, logger.Nop())
	require.NoError(t, err)
	err = s.Upload(context.Background(), "a.txt", strings.NewReader("x"), "text/plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}
