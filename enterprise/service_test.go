package enterprise

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entadmin/adminkit/apiclient"
	"github.com/entadmin/adminkit/errors"
	"github.com/entadmin/adminkit/logger"
	"github.com/entadmin/adminkit/resilience"
	"github.com/entadmin/adminkit/storage"
)

// fakeAPI records requests and answers them with a handler.
type fakeAPI struct {
	mu       sync.Mutex
	requests []apiclient.Request
	handle   func(n int, req apiclient.Request) apiclient.Envelope[json.RawMessage]
}

func (f *fakeAPI) Do(_ context.Context, req apiclient.Request) apiclient.Envelope[json.RawMessage] {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	n := len(f.requests)
	f.mu.Unlock()
	return f.handle(n, req)
}

func (f *fakeAPI) last() apiclient.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func okJSON(t *testing.T, v any) apiclient.Envelope[json.RawMessage] {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return apiclient.OK(json.RawMessage(data))
}

func rows(es ...Enterprise) []Enterprise { return es }

func TestListEncodesQuery(t *testing.T) {
	api := &fakeAPI{handle: func(int, apiclient.Request) apiclient.Envelope[json.RawMessage] {
		return okJSON(t, rows(Enterprise{ID: "e-1", Name: "Acme", Status: StatusPending}))
	}}
	svc := NewService(api, WithLogger(logger.Nop()))

	list, err := svc.List(context.Background(), Query{Status: StatusPending, Search: "acme", Page: 3, Limit: 20})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Acme", list[0].Name)

	req := api.last()
	assert.Equal(t, http.MethodGet, req.Method)
	assert.True(t, strings.HasPrefix(req.Endpoint, "/enterprises?"))
	assert.Contains(t, req.Endpoint, "order=created_at.desc")
	assert.Contains(t, req.Endpoint, "status=eq.pending")
	assert.Contains(t, req.Endpoint, "name=ilike.%2Aacme%2A")
	assert.Contains(t, req.Endpoint, "limit=20")
	assert.Contains(t, req.Endpoint, "offset=40")
	assert.NotContains(t, req.Endpoint, "type=")
}

func TestGetNotFound(t *testing.T) {
	api := &fakeAPI{handle: func(int, apiclient.Request) apiclient.Envelope[json.RawMessage] {
		return okJSON(t, rows())
	}}
	_, err := NewService(api).Get(context.Background(), "missing")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func TestCreateValidatesBeforeCalling(t *testing.T) {
	api := &fakeAPI{handle: func(int, apiclient.Request) apiclient.Envelope[json.RawMessage] {
		t.Fatal("no request expected")
		return apiclient.Envelope[json.RawMessage]{}
	}}
	_, err := NewService(api).Create(context.Background(), "u-1", CreateParams{
		Name:              "",
		Type:              "corporation",
		RegisteredCapital: "lots",
		Email:             "not-an-email",
	})
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInvalidInput, appErr.Code)
	assert.Contains(t, appErr.Message, "name: enterprise name is required")
	assert.Contains(t, appErr.Message, "type: unknown enterprise type")
	assert.Contains(t, appErr.Message, "address: address is required")
	assert.Contains(t, appErr.Message, "registered capital must be a non-negative number")
	assert.Contains(t, appErr.Message, "email: invalid email address")
}

func TestCreateDropsBlankFieldsAndCoercesCapital(t *testing.T) {
	api := &fakeAPI{handle: func(int, apiclient.Request) apiclient.Envelope[json.RawMessage] {
		return okJSON(t, rows(Enterprise{ID: "e-9", Name: "Acme", Status: StatusDraft}))
	}}
	e, err := NewService(api).Create(context.Background(), "u-1", CreateParams{
		Name:              "Acme",
		Type:              TypeLimitedLiability,
		Address:           "1 Main St",
		RegisteredCapital: " 1500000.50 ",
		Industry:          "  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "e-9", e.ID)

	req := api.last()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/enterprises", req.Endpoint)
	body, ok := req.Body.([]map[string]any)
	require.True(t, ok)
	require.Len(t, body, 1)
	row := body[0]
	assert.Equal(t, 1500000.5, row["registered_capital"])
	assert.Equal(t, "u-1", row["auth_user_id"])
	assert.Equal(t, StatusDraft, row["status"])
	assert.NotContains(t, row, "industry")
	assert.NotContains(t, row, "phone")
}

func TestCreateRequiresOwner(t *testing.T) {
	_, err := NewService(&fakeAPI{}).Create(context.Background(), "", CreateParams{})
	assert.True(t, errors.HasCode(err, errors.ErrCodeMissingField))
}

func TestUpdateSendsOnlySetFields(t *testing.T) {
	api := &fakeAPI{handle: func(int, apiclient.Request) apiclient.Envelope[json.RawMessage] {
		return okJSON(t, rows(Enterprise{ID: "e-1", Name: "Renamed"}))
	}}
	name := "Renamed"
	e, err := NewService(api).Update(context.Background(), "e-1", UpdateParams{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", e.Name)

	req := api.last()
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "/enterprises?id=eq.e-1", req.Endpoint)
	data, err := json.Marshal(req.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Renamed"}`, string(data))

	bad := Type("corporation")
	_, err = NewService(api).Update(context.Background(), "e-1", UpdateParams{Type: &bad})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
}

func TestDelete(t *testing.T) {
	api := &fakeAPI{handle: func(int, apiclient.Request) apiclient.Envelope[json.RawMessage] {
		return apiclient.OK[json.RawMessage](nil)
	}}
	require.NoError(t, NewService(api).Delete(context.Background(), "e-1"))
	assert.Equal(t, http.MethodDelete, api.last().Method)
	assert.Equal(t, "/enterprises?id=eq.e-1", api.last().Endpoint)
}

func TestSubmitMovesDraftToPending(t *testing.T) {
	fixed := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	api := &fakeAPI{handle: func(n int, req apiclient.Request) apiclient.Envelope[json.RawMessage] {
		if req.Method == http.MethodGet {
			return okJSON(t, rows(Enterprise{ID: "e-1", Status: StatusDraft}))
		}
		return okJSON(t, rows(Enterprise{ID: "e-1", Status: StatusPending, SubmittedAt: &fixed}))
	}}
	e, err := NewService(api, WithClock(func() time.Time { return fixed })).Submit(context.Background(), "e-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, e.Status)

	req := api.last()
	assert.Equal(t, "/enterprises?id=eq.e-1&status=eq.draft", req.Endpoint)
	patch := req.Body.(map[string]any)
	assert.Equal(t, StatusPending, patch["status"])
	assert.Equal(t, fixed, patch["submitted_at"])
}

func TestSubmitRejectsNonDraft(t *testing.T) {
	api := &fakeAPI{handle: func(int, apiclient.Request) apiclient.Envelope[json.RawMessage] {
		return okJSON(t, rows(Enterprise{ID: "e-1", Status: StatusApproved}))
	}}
	_, err := NewService(api).Submit(context.Background(), "e-1")
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidState))
	assert.Len(t, api.requests, 1)
}

func TestSubmitLosesRace(t *testing.T) {
	api := &fakeAPI{handle: func(n int, req apiclient.Request) apiclient.Envelope[json.RawMessage] {
		if req.Method == http.MethodGet {
			return okJSON(t, rows(Enterprise{ID: "e-1", Status: StatusDraft}))
		}
		return okJSON(t, rows())
	}}
	_, err := NewService(api).Submit(context.Background(), "e-1")
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidState))
}

func TestReview(t *testing.T) {
	fixed := time.Date(2026, 10, 2, 9, 0, 0, 0, time.UTC)
	api := &fakeAPI{handle: func(n int, req apiclient.Request) apiclient.Envelope[json.RawMessage] {
		if req.Method == http.MethodGet {
			return okJSON(t, rows(Enterprise{ID: "e-1", Status: StatusPending}))
		}
		return okJSON(t, rows(Enterprise{ID: "e-1", Status: StatusApproved, ApprovedBy: "admin-1"}))
	}}
	svc := NewService(api, WithClock(func() time.Time { return fixed }))

	e, err := svc.Review(context.Background(), "e-1", ReviewParams{Status: StatusApproved, ReviewerID: "admin-1"})
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, e.Status)
	patch := api.last().Body.(map[string]any)
	assert.Equal(t, fixed, patch["approved_at"])
	assert.Equal(t, "admin-1", patch["approved_by"])
	assert.Contains(t, api.last().Endpoint, "status=eq.pending")

	_, err = svc.Review(context.Background(), "e-1", ReviewParams{Status: StatusSuspended})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))

	_, err = svc.Review(context.Background(), "e-1", ReviewParams{Status: StatusRejected})
	assert.True(t, errors.HasCode(err, errors.ErrCodeMissingField))
}

func TestReadsRetryRetryableFailures(t *testing.T) {
	api := &fakeAPI{handle: func(n int, req apiclient.Request) apiclient.Envelope[json.RawMessage] {
		if n < 3 {
			return apiclient.Fail[json.RawMessage](apiclient.CodeTimeout, apiclient.MessageTimeout)
		}
		return okJSON(t, rows(Enterprise{ID: "e-1"}))
	}}
	svc := NewService(api, WithRetry(resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond}))

	list, err := svc.List(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Len(t, api.requests, 3)
}

func TestFailedEnvelopeBecomesAppError(t *testing.T) {
	api := &fakeAPI{handle: func(int, apiclient.Request) apiclient.Envelope[json.RawMessage] {
		return apiclient.Fail[json.RawMessage](http.StatusForbidden, "permission denied for table enterprises")
	}}
	_, err := NewService(api).List(context.Background(), Query{})
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeForbidden, appErr.Code)
	assert.Equal(t, "permission denied for table enterprises", appErr.Message)
}

// memStore is a minimal storage.Storage for upload tests.
type memStore struct {
	mu      sync.Mutex
	objects map[string]string
}

func (m *memStore) Upload(_ context.Context, p string, r io.Reader, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[p] = string(data)
	return nil
}

func (m *memStore) Download(context.Context, string) (io.ReadCloser, error) {
	return nil, storage.ErrNotFound
}

func (m *memStore) Delete(_ context.Context, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, p)
	return nil
}

func (m *memStore) Exists(_ context.Context, p string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[p]
	return ok, nil
}

func (m *memStore) URL(_ context.Context, p string) (string, error) {
	return "https://files.example.com/" + p, nil
}

func (m *memStore) List(context.Context, string) ([]storage.FileInfo, error) { return nil, nil }

func TestUploadDocument(t *testing.T) {
	store := &memStore{objects: map[string]string{}}
	api := &fakeAPI{handle: func(n int, req apiclient.Request) apiclient.Envelope[json.RawMessage] {
		if req.Method == http.MethodGet {
			return okJSON(t, rows(Enterprise{ID: "e-1"}))
		}
		docs := req.Body.([]Document)
		docs[0].ID = "d-1"
		return okJSON(t, docs)
	}}
	var logs bytes.Buffer
	logger.Register("enterprise", logger.NewWithWriter(&logger.Config{Level: "info", Format: logger.FormatJSON}, "test", &logs))
	t.Cleanup(logger.ResetComponents)
	svc := NewService(api, WithStorage(store))

	doc, err := svc.UploadDocument(context.Background(), "e-1", DocumentUpload{
		DocumentType: "business_licence",
		FileName:     "licence.pdf",
		ContentType:  "application/pdf",
		Size:         3,
		Body:         strings.NewReader("pdf"),
	})
	require.NoError(t, err)
	assert.Equal(t, "d-1", doc.ID)
	assert.True(t, strings.HasPrefix(doc.FilePath, "enterprises/e-1/licence_"))
	assert.True(t, strings.HasSuffix(doc.FilePath, ".pdf"))
	assert.Equal(t, "https://files.example.com/"+doc.FilePath, doc.FileURL)
	assert.Equal(t, "pdf", store.objects[doc.FilePath])
	assert.Equal(t, "/enterprise_documents", api.last().Endpoint)
	assert.Contains(t, logs.String(), "document uploaded")

	// Timestamps are left to the table defaults.
	body, err := json.Marshal(api.last().Body)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "created_at")
	assert.NotContains(t, string(body), "updated_at")
}

func TestDocumentsEscapesEnterpriseID(t *testing.T) {
	api := &fakeAPI{handle: func(int, apiclient.Request) apiclient.Envelope[json.RawMessage] {
		return okJSON(t, []Document{{ID: "d-1", EnterpriseID: "e 1&x"}})
	}}

	docs, err := NewService(api).Documents(context.Background(), "e 1&x")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "/enterprise_documents?select=*&order=created_at.desc&enterprise_id=eq.e+1%26x", api.last().Endpoint)
}

func TestUploadDocumentRejectsBadFiles(t *testing.T) {
	svc := NewService(&fakeAPI{}, WithStorage(&memStore{objects: map[string]string{}}), WithMaxDocumentSize(10))

	_, err := svc.UploadDocument(context.Background(), "e-1", DocumentUpload{
		DocumentType: "licence", FileName: "a.exe", ContentType: "application/x-msdownload", Size: 1,
	})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))

	_, err = svc.UploadDocument(context.Background(), "e-1", DocumentUpload{
		DocumentType: "licence", FileName: "scan.png", ContentType: "image/png", Size: 11,
	})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
}

func TestUploadDocumentRemovesObjectWhenRecordFails(t *testing.T) {
	store := &memStore{objects: map[string]string{}}
	api := &fakeAPI{handle: func(n int, req apiclient.Request) apiclient.Envelope[json.RawMessage] {
		if req.Method == http.MethodGet {
			return okJSON(t, rows(Enterprise{ID: "e-1"}))
		}
		return apiclient.Fail[json.RawMessage](http.StatusInternalServerError, "insert failed")
	}}
	svc := NewService(api, WithStorage(store))

	_, err := svc.UploadDocument(context.Background(), "e-1", DocumentUpload{
		DocumentType: "licence", FileName: "scan.png", ContentType: "image/png", Size: 3,
		Body: strings.NewReader("png"),
	})
	require.Error(t, err)
	assert.Empty(t, store.objects)
}

func TestUploadDocumentWithoutStorage(t *testing.T) {
	_, err := NewService(&fakeAPI{}).UploadDocument(context.Background(), "e-1", DocumentUpload{})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInternal))
}
