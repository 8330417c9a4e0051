package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/entadmin/adminkit/errors"
	"github.com/entadmin/adminkit/logger"
)

type enterprise struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: baseURL}, opts...)
	require.NoError(t, err)
	return c
}

// assertEnvelopeShape checks that exactly one of Data and Error is present.
func assertEnvelopeShape[T any](t *testing.T, env Envelope[T]) {
	t.Helper()
	if env.Success {
		assert.NotNil(t, env.Data, "successful envelope must carry data")
		assert.Empty(t, env.Error)
	} else {
		assert.Nil(t, env.Data, "failed envelope must not carry data")
		assert.NotEmpty(t, env.Error)
		assert.NotZero(t, env.Code)
	}
}

// ctxRecorder captures the context of every outgoing request.
type ctxRecorder struct {
	mu   sync.Mutex
	ctxs []context.Context
	next http.RoundTripper
}

func (r *ctxRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	r.mu.Lock()
	r.ctxs = append(r.ctxs, req.Context())
	r.mu.Unlock()
	return r.next.RoundTrip(req)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorContains(t, err, "base_url is required")

	c, err := New(Config{BaseURL: "http://example.test"})
	require.NoError(t, err)
	assert.Equal(t, defaultTimeout, c.timeout)
	assert.Equal(t, map[string]string{HeaderContentType: ContentTypeJSON}, c.Headers())
}

func TestNew_CustomHeadersReplaceDefaults(t *testing.T) {
	c, err := New(Config{BaseURL: "http://example.test", Headers: map[string]string{"apikey": "k"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"apikey": "k"}, c.Headers())
}

func TestGet_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/enterprises/e-1", r.URL.Path)
		assert.Equal(t, ContentTypeJSON, r.Header.Get(HeaderContentType))
		_ = json.NewEncoder(w).Encode(enterprise{ID: "e-1", Name: "Acme"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/api")
	env := Get[enterprise](context.Background(), c, "/enterprises/e-1")

	assertEnvelopeShape(t, env)
	require.True(t, env.Success)
	assert.Equal(t, "Acme", env.Data.Name)
	assert.NoError(t, env.Err())
}

func TestURLIsPlainConcatenation(t *testing.T) {
	var gotURI string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURI = r.RequestURI
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/rest/v1")
	env := Get[[]enterprise](context.Background(), c, "/enterprises?select=*&order=created_at.desc")
	require.True(t, env.Success)
	assert.Equal(t, "/rest/v1/enterprises?select=*&order=created_at.desc", gotURI)
	assert.Empty(t, env.Value())
}

func TestPostPutPatch_SendJSONBody(t *testing.T) {
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch} {
		t.Run(method, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, method, r.Method)
				var in enterprise
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
				in.ID = "new-id"
				w.WriteHeader(http.StatusCreated)
				_ = json.NewEncoder(w).Encode(in)
			}))
			defer srv.Close()

			c := newTestClient(t, srv.URL)
			body := enterprise{Name: "Acme"}
			var env Envelope[enterprise]
			switch method {
			case http.MethodPost:
				env = Post[enterprise](context.Background(), c, "/e", body)
			case http.MethodPut:
				env = Put[enterprise](context.Background(), c, "/e", body)
			default:
				env = Patch[enterprise](context.Background(), c, "/e", body)
			}
			require.True(t, env.Success, env.Error)
			assert.Equal(t, enterprise{ID: "new-id", Name: "Acme"}, env.Value())
		})
	}
}

func TestGet_BodyIsDropped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		assert.Empty(t, b)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	env := Send[map[string]bool](context.Background(), c, http.MethodGet, "/x", map[string]string{"ignored": "yes"})
	require.True(t, env.Success)
	assert.True(t, env.Value()["ok"])
}

func TestDelete_EmptyBodyDecodesToZeroValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	env := Delete[struct{}](context.Background(), c, "/enterprises/e-1")
	assertEnvelopeShape(t, env)
	assert.True(t, env.Success)
}

func TestNon2xx_UsesMessageFromBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"enterprise already exists"}`))
	}))
	defer srv.Close()

	env := Post[enterprise](context.Background(), newTestClient(t, srv.URL), "/e", enterprise{})
	assertEnvelopeShape(t, env)
	assert.False(t, env.Success)
	assert.Equal(t, "enterprise already exists", env.Error)
	assert.Equal(t, http.StatusConflict, env.Code)
	assert.True(t, apperrors.HasCode(env.Err(), apperrors.ErrCodeConflict))
}

func TestNon2xx_FallsBackToStatus(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no body", ""},
		{"not json", "<html>bad gateway</html>"},
		{"no message field", `{"error":"x"}`},
		{"non-string message", `{"message":42}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			env := Get[enterprise](context.Background(), newTestClient(t, srv.URL), "/e")
			assertEnvelopeShape(t, env)
			assert.Equal(t, "HTTP 502", env.Error)
			assert.Equal(t, http.StatusBadGateway, env.Code)
			assert.True(t, env.Retryable())
		})
	}
}

func TestNon2xx_ErrorKeys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Email not confirmed"}`))
	}))
	defer srv.Close()

	env := Get[enterprise](context.Background(), newTestClient(t, srv.URL), "/token")
	assert.Equal(t, "HTTP 400", env.Error)

	c := newTestClient(t, srv.URL, WithErrorKeys("message", "msg", "error_description"))
	env = Get[enterprise](context.Background(), c, "/token")
	assert.Equal(t, "Email not confirmed", env.Error)
	assert.Equal(t, http.StatusBadRequest, env.Code)
}

func TestTimeout_Reports408AndReleasesTimer(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	rec := &ctxRecorder{next: http.DefaultTransport}
	c, err := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond},
		WithHTTPClient(&http.Client{Transport: rec}))
	require.NoError(t, err)

	start := time.Now()
	env := Get[enterprise](context.Background(), c, "/slow")

	assert.Less(t, time.Since(start), 2*time.Second)
	assertEnvelopeShape(t, env)
	assert.Equal(t, CodeTimeout, env.Code)
	assert.Equal(t, MessageTimeout, env.Error)
	assert.True(t, env.TimedOut())
	assert.True(t, apperrors.HasCode(env.Err(), apperrors.ErrCodeTimeout))

	require.Len(t, rec.ctxs, 1)
	assert.Error(t, rec.ctxs[0].Err(), "request context must be finished after return")
}

func TestSuccess_ReleasesTimer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	rec := &ctxRecorder{next: http.DefaultTransport}
	c := newTestClient(t, srv.URL, WithHTTPClient(&http.Client{Transport: rec}))
	env := Get[enterprise](context.Background(), c, "/fast")
	require.True(t, env.Success)

	require.Len(t, rec.ctxs, 1)
	assert.ErrorIs(t, rec.ctxs[0].Err(), context.Canceled)
}

func TestPerCallTimeoutOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
			_, _ = w.Write([]byte(`{}`))
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	env := Get[enterprise](context.Background(), c, "/slow", WithTimeout(30*time.Millisecond))
	assert.Equal(t, CodeTimeout, env.Code)
}

func TestCallerCancellation_Reports408(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	env := Get[enterprise](ctx, newTestClient(t, srv.URL), "/hang")
	assertEnvelopeShape(t, env)
	assert.Equal(t, CodeTimeout, env.Code)
	assert.Equal(t, MessageTimeout, env.Error)
}

func TestNetworkFailure_Reports500(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	env := Get[enterprise](context.Background(), newTestClient(t, url), "/gone")
	assertEnvelopeShape(t, env)
	assert.Equal(t, CodeFailure, env.Code)
	assert.NotEqual(t, MessageTimeout, env.Error)
}

func TestDecodeFailure_Reports500(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 12}`))
	}))
	defer srv.Close()

	env := Get[enterprise](context.Background(), newTestClient(t, srv.URL), "/e")
	assertEnvelopeShape(t, env)
	assert.Equal(t, CodeFailure, env.Code)
	assert.True(t, strings.HasPrefix(env.Error, "decode response"))

	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv2.Close()
	env = Get[enterprise](context.Background(), newTestClient(t, srv2.URL), "/e")
	assert.Equal(t, CodeFailure, env.Code)
}

func TestHeaders_PerCallOverridesDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/plain", r.Header.Get(HeaderContentType))
		assert.Equal(t, "default", r.Header.Get("X-Tenant"))
		assert.Equal(t, "call", r.Header.Get("X-Trace"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	c.SetHeader("X-Tenant", "default")
	env := Post[map[string]any](context.Background(), c, "/x", map[string]int{"a": 1},
		WithHeader(HeaderContentType, "text/plain"),
		WithHeaders(map[string]string{"X-Trace": "call"}))
	require.True(t, env.Success, env.Error)

	assert.Equal(t, ContentTypeJSON, c.Headers()[HeaderContentType], "per-call override must not leak into defaults")
}

func TestAuthToken_SetAndClear(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get(HeaderAuthorization))
		mu.Unlock()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	Get[struct{}](ctx, c, "/a")
	c.SetAuthToken("tok-1")
	Get[struct{}](ctx, c, "/b")
	c.ClearAuthToken()
	Get[struct{}](ctx, c, "/c")

	assert.Equal(t, []string{"", "Bearer tok-1", ""}, seen)
}

// blockingTransport pauses each request after its headers are built.
type blockingTransport struct {
	entered chan http.Header
	release chan struct{}
}

func (b *blockingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	b.entered <- req.Header.Clone()
	<-b.release
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{},
		Body:       io.NopCloser(bytes.NewBufferString(`{"auth":"` + req.Header.Get(HeaderAuthorization) + `"}`)),
		Request:    req,
	}, nil
}

func TestAuthToken_ClearDoesNotAffectInFlight(t *testing.T) {
	bt := &blockingTransport{entered: make(chan http.Header, 1), release: make(chan struct{})}
	c := newTestClient(t, "http://admin.test", WithHTTPClient(&http.Client{Transport: bt}))
	c.SetAuthToken("live")

	done := make(chan Envelope[map[string]string], 1)
	go func() {
		done <- Get[map[string]string](context.Background(), c, "/me")
	}()

	<-bt.entered
	c.ClearAuthToken()
	close(bt.release)

	env := <-done
	require.True(t, env.Success, env.Error)
	assert.Equal(t, "Bearer live", env.Value()["auth"])
	assert.NotContains(t, c.Headers(), HeaderAuthorization)
}

func TestConcurrentRequestsAndTokenChanges(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.True(t, Get[struct{}](context.Background(), c, "/x").Success)
		}()
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				c.SetAuthToken("t")
			} else {
				c.ClearAuthToken()
			}
		}(i)
	}
	wg.Wait()
}

func TestRequestLogging(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: logger.FormatJSON}, "test", &buf)
	c := newTestClient(t, srv.URL, WithLogger(log))

	Get[struct{}](context.Background(), c, "/missing")

	out := buf.String()
	assert.Contains(t, out, `"message":"request failed"`)
	assert.Contains(t, out, `"component":"apiclient"`)
	assert.Contains(t, out, `"status":404`)
	assert.Contains(t, out, `"error":"HTTP 404"`)
}
