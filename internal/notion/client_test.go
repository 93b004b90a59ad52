package notion

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
	"go.uber.org/zap"
)

type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   map[string]any
}

type fakeNotion struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r recordedRequest)
}

func newFakeNotion(t *testing.T, handler func(w http.ResponseWriter, r recordedRequest)) (*Client, *fakeNotion) {
	t.Helper()

	fake := &fakeNotion{handler: handler}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone()}
		if len(data) > 0 {
			_ = json.Unmarshal(data, &rec.Body)
		}

		fake.mu.Lock()
		fake.requests = append(fake.requests, rec)
		fake.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		fake.handler(w, rec)
	}))
	t.Cleanup(server.Close)

	client := New(zap.NewNop(), "secret-token", "db-1")
	client.APIURL = server.URL
	client.SetRateLimit(0)
	return client, fake
}

func (f *fakeNotion) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func props(t *testing.T, r recordedRequest) map[string]any {
	t.Helper()
	p, ok := r.Body["properties"].(map[string]any)
	require.True(t, ok, "properties missing in %v", r.Body)
	return p
}

func textContent(t *testing.T, prop any, kind string) string {
	t.Helper()
	items := prop.(map[string]any)[kind].([]any)
	return items[0].(map[string]any)["text"].(map[string]any)["content"].(string)
}

func TestUpsertCreatesPage(t *testing.T) {
	client, fake := newFakeNotion(t, func(w http.ResponseWriter, _ recordedRequest) {
		_, _ = io.WriteString(w, `{"object":"page","id":"page-123"}`)
	})

	id, err := client.Upsert(context.Background(), Record{
		Company:     "Acme",
		Position:    "Go Engineer",
		AppliedDate: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		CVFiles:     map[string]string{"pdf": "/tmp/out/cv.pdf", "txt": "cv.txt", "html": "cv.html"},
		Description: strings.Repeat("a", 2500),
		JobType:     "Full-time",
	})
	require.NoError(t, err)
	assert.Equal(t, "page-123", id)

	req := fake.last()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/v1/pages", req.Path)
	assert.Equal(t, "Bearer secret-token", req.Header.Get("Authorization"))
	assert.Equal(t, notionVersion, req.Header.Get("Notion-Version"))
	assert.Equal(t, "db-1", req.Body["parent"].(map[string]any)["database_id"])

	p := props(t, req)
	assert.Equal(t, "Acme", textContent(t, p["Company"], "title"))
	assert.Equal(t, "Not specified", textContent(t, p["Location"], "rich_text"))
	assert.Equal(t, "PDF: cv.pdf | TXT: cv.txt", textContent(t, p["CV Files"], "rich_text"))
	assert.Len(t, textContent(t, p["Job Description"], "rich_text"), richTextLimit)
	assert.Equal(t, "2025-03-10", p["Applied Date"].(map[string]any)["date"].(map[string]any)["start"])
	assert.Equal(t, "Applied", p["Status"].(map[string]any)["select"].(map[string]any)["name"])
	assert.Equal(t, "Full-time", p["Job Type"].(map[string]any)["select"].(map[string]any)["name"])
	assert.NotContains(t, p, "Salary")
}

func TestUpsertUpdatesExistingPage(t *testing.T) {
	client, fake := newFakeNotion(t, func(w http.ResponseWriter, _ recordedRequest) {
		_, _ = io.WriteString(w, `{"object":"page","id":"page-9"}`)
	})

	id, err := client.Upsert(context.Background(), Record{PageID: "page-9", Company: "Acme", Salary: "100k"})
	require.NoError(t, err)
	assert.Equal(t, "page-9", id)

	req := fake.last()
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "/v1/pages/page-9", req.Path)
	assert.NotContains(t, req.Body, "parent")
	assert.Equal(t, "100k", textContent(t, props(t, req)["Salary"], "rich_text"))
}

func TestPageUpdates(t *testing.T) {
	client, fake := newFakeNotion(t, func(w http.ResponseWriter, _ recordedRequest) {
		_, _ = io.WriteString(w, `{"object":"page","id":"p"}`)
	})
	ctx := context.Background()

	require.NoError(t, client.UpdateStatus(ctx, "p", "Rejected", ""))
	p := props(t, fake.last())
	assert.Equal(t, "Rejected", p["Status"].(map[string]any)["select"].(map[string]any)["name"])
	assert.NotContains(t, p, "Notes")

	interview := time.Date(2025, 3, 14, 15, 30, 0, 0, time.UTC)
	require.NoError(t, client.ScheduleInterview(ctx, "p", interview, "Video", "Sam", "bring portfolio"))
	p = props(t, fake.last())
	assert.Equal(t, "Interview Scheduled", p["Status"].(map[string]any)["select"].(map[string]any)["name"])
	assert.Equal(t, "2025-03-14T15:30:00Z", p["Interview Date"].(map[string]any)["date"].(map[string]any)["start"])
	assert.Equal(t, "Sam", textContent(t, p["Interviewer"], "rich_text"))
	assert.Equal(t, "bring portfolio", textContent(t, p["Interview Notes"], "rich_text"))

	require.NoError(t, client.AddFollowUp(ctx, "p", time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC), "Email", ""))
	p = props(t, fake.last())
	assert.Equal(t, "2025-03-20", p["Follow-up Date"].(map[string]any)["date"].(map[string]any)["start"])
	assert.Equal(t, "Email", p["Follow-up Type"].(map[string]any)["select"].(map[string]any)["name"])
	assert.NotContains(t, p, "Follow-up Notes")

	assert.Error(t, client.UpdateStatus(ctx, " ", "Applied", ""))
}

func TestAPIError(t *testing.T) {
	client, _ := newFakeNotion(t, func(w http.ResponseWriter, _ recordedRequest) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"object":"error","status":400,"code":"validation_error","message":"Status is not a property"}`)
	})

	err := client.UpdateStatus(context.Background(), "p", "Applied", "")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "validation_error", apiErr.Code)
	assert.Contains(t, err.Error(), "Status is not a property")
}

func TestNotConfigured(t *testing.T) {
	client := New(nil, "", "db")
	assert.False(t, client.Configured())

	_, err := client.Upsert(context.Background(), Record{Company: "Acme"})
	assert.True(t, errors.Is(err, ErrNotConfigured))
	_, err = client.Query(context.Background())
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestRateLimiterHonoursContext(t *testing.T) {
	client, fake := newFakeNotion(t, func(w http.ResponseWriter, _ recordedRequest) {
		_, _ = io.WriteString(w, `{}`)
	})
	client.SetRateLimit(0.001)

	require.NoError(t, client.UpdateStatus(context.Background(), "p", "Applied", ""))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, client.UpdateStatus(ctx, "p", "Applied", ""))
	assert.Len(t, fake.requests, 1)
}
