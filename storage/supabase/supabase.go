// Package supabase stores files in a platform storage bucket.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/entadmin/adminkit/apiclient"
	"github.com/entadmin/adminkit/logger"
	"github.com/entadmin/adminkit/storage"
	platform "github.com/entadmin/adminkit/supabase"
)

const listLimit = 1000

func init() {
	storage.RegisterFactory(storage.ProviderSupabase, func(cfg storage.Config, log *logger.Logger) (storage.Storage, error) {
		return NewStorage(cfg, log)
	})
}

// Storage implements storage.Storage over the storage REST API. JSON calls
// go through the shared request client; object bodies are streamed directly.
type Storage struct {
	api        *apiclient.Client
	baseURL    string
	bucket     string
	serviceKey string
	httpClient *http.Client
	log        *logger.Logger
}

// NewStorage connects to the bucket named by cfg.Bucket using cfg.SecretKey
// as the service key.
func NewStorage(cfg storage.Config, log *logger.Logger) (*Storage, error) {
	l := logger.OrGlobal(log).WithComponent("storage.supabase")
	project, err := platform.New(platform.Config{URL: cfg.URL, ServiceKey: cfg.SecretKey}, l)
	if err != nil {
		return nil, err
	}
	api, err := project.Storage()
	if err != nil {
		return nil, err
	}
	return &Storage{
		api:        api,
		baseURL:    project.URL() + platform.StoragePath,
		bucket:     cfg.Bucket,
		serviceKey: cfg.SecretKey,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		log:        l,
	}, nil
}

func (s *Storage) objectURL(path string) string {
	return fmt.Sprintf("%s/object/%s/%s", s.baseURL, s.bucket, escapePath(path))
}

func (s *Storage) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.objectURL(path), body)
	if err != nil {
		return nil, fmt.Errorf("storage: supabase create request: %w", err)
	}
	req.Header.Set(platform.HeaderAPIKey, s.serviceKey)
	req.Header.Set(apiclient.HeaderAuthorization, "Bearer "+s.serviceKey)
	return req, nil
}

// Upload writes reader to the bucket, replacing any existing object.
func (s *Storage) Upload(ctx context.Context, path string, reader io.Reader, contentType string) error {
	req, err := s.newRequest(ctx, http.MethodPost, path, reader)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set(apiclient.HeaderContentType, contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("storage: supabase upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("storage: supabase upload failed (status %d): %s", resp.StatusCode, string(body))
	}
	s.log.Debug("object uploaded", logger.Fields(logger.FieldPath, path))
	return nil
}

func (s *Storage) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	req, err := s.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage: supabase download: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, path)
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("storage: supabase download failed (status %d): %s", resp.StatusCode, string(body))
	}
	return resp.Body, nil
}

// Delete removes the object. Missing objects are not an error.
func (s *Storage) Delete(ctx context.Context, path string) error {
	env := apiclient.Send[json.RawMessage](ctx, s.api, http.MethodDelete, "/object/"+s.bucket,
		map[string][]string{"prefixes": {path}})
	if !env.Success && env.Code != http.StatusNotFound {
		return fmt.Errorf("storage: supabase delete: %w", env.Err())
	}
	return nil
}

func (s *Storage) Exists(ctx context.Context, path string) (bool, error) {
	req, err := s.newRequest(ctx, http.MethodHead, path, nil)
	if err != nil {
		return false, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("storage: supabase head: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusBadRequest:
		return false, nil
	case resp.StatusCode >= 400:
		return false, fmt.Errorf("storage: supabase exists check failed (status %d)", resp.StatusCode)
	}
	return true, nil
}

// URL returns the public URL of the object. The bucket must be public.
func (s *Storage) URL(_ context.Context, path string) (string, error) {
	return fmt.Sprintf("%s/object/public/%s/%s", s.baseURL, s.bucket, escapePath(path)), nil
}

type listItem struct {
	Name      string `json:"name"`
	ID        string `json:"id"`
	UpdatedAt string `json:"updated_at"`
	Metadata  struct {
		Size     int64  `json:"size"`
		MimeType string `json:"mimetype"`
	} `json:"metadata"`
}

// List returns the objects directly under the folder part of prefix whose
// names start with the remainder.
func (s *Storage) List(ctx context.Context, prefix string) ([]storage.FileInfo, error) {
	folder, search := prefix, ""
	if idx := strings.LastIndex(prefix, "/"); idx >= 0 {
		folder, search = prefix[:idx+1], prefix[idx+1:]
	} else {
		folder, search = "", prefix
	}

	body := map[string]any{"prefix": folder, "limit": listLimit}
	if search != "" {
		body["search"] = search
	}
	env := apiclient.Post[[]listItem](ctx, s.api, "/object/list/"+s.bucket, body)
	if !env.Success {
		return nil, fmt.Errorf("storage: supabase list: %w", env.Err())
	}

	files := []storage.FileInfo{}
	for _, item := range env.Value() {
		// Folders come back without an id.
		if item.ID == "" || !strings.HasPrefix(item.Name, search) {
			continue
		}
		fi := storage.FileInfo{
			Path:        folder + item.Name,
			Size:        item.Metadata.Size,
			ContentType: item.Metadata.MimeType,
		}
		if t, err := time.Parse(time.RFC3339, item.UpdatedAt); err == nil {
			fi.LastModified = t
		}
		files = append(files, fi)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// SignedURL returns a time-limited URL for a private object.
func (s *Storage) SignedURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	env := apiclient.Post[struct {
		SignedURL string `json:"signedURL"`
	}](ctx, s.api, "/object/sign/"+s.bucket+"/"+escapePath(path),
		map[string]int{"expiresIn": int(expiry.Seconds())})
	if !env.Success {
		return "", fmt.Errorf("storage: supabase sign: %w", env.Err())
	}

	signed := env.Value().SignedURL
	if signed == "" {
		return "", fmt.Errorf("storage: supabase sign returned empty URL")
	}
	// The API answers with a path relative to the storage root.
	if !strings.HasPrefix(signed, "http") {
		return s.baseURL + "/" + strings.TrimLeft(signed, "/"), nil
	}
	return signed, nil
}

func escapePath(p string) string {
	parts := strings.Split(strings.TrimLeft(p, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// compile-time checks
var (
	_ storage.Storage           = (*Storage)(nil)
	_ storage.SignedURLProvider = (*Storage)(nil)
)
