package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/audiochunk/internal/adapter/http/ratelimit"
	"github.com/bnema/audiochunk/internal/domain"
	"github.com/bnema/audiochunk/internal/service"
)

var mp4Header = []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00}

type fakeConversions struct {
	result     service.SubmitResult
	err        error
	stats      service.QueueStats
	files      map[string]string
	gotName    string
	gotURL     string
	gotParams  domain.Params
	gotPayload []byte
}

func (f *fakeConversions) SubmitUpload(_ context.Context, filename string, src io.Reader, params domain.Params) (service.SubmitResult, int64, error) {
	f.gotName = filename
	f.gotParams = params
	data, _ := io.ReadAll(src)
	f.gotPayload = data
	if f.err != nil {
		return service.SubmitResult{}, 0, f.err
	}
	return f.result, int64(len(data)), nil
}

func (f *fakeConversions) SubmitURL(_ context.Context, rawURL, filename string, params domain.Params) (service.SubmitResult, error) {
	f.gotURL = rawURL
	f.gotName = filename
	f.gotParams = params
	return f.result, f.err
}

func (f *fakeConversions) ResultFile(jobID, name string) (string, error) {
	p, ok := f.files[jobID+"/"+name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (f *fakeConversions) Stats() service.QueueStats {
	return f.stats
}

type fakeStatus struct {
	snaps map[string]domain.StatusSnapshot
	err   error
}

func (f *fakeStatus) Query(_ context.Context, jobID string) (domain.StatusSnapshot, error) {
	if f.err != nil {
		return domain.StatusSnapshot{}, f.err
	}
	snap, ok := f.snaps[jobID]
	if !ok {
		return domain.StatusSnapshot{}, domain.ErrNotFound
	}
	return snap, nil
}

var testDefaults = Defaults{ChunkSizeMB: 25, Bitrate: domain.Bitrate192k, MaxUploadSize: 10 << 20}

func newTestServer(conv *fakeConversions, status *fakeStatus) *Server {
	return NewServer(conv, status, service.NewEventBus(), ServerConfig{Defaults: testDefaults})
}

func admitted(id string) service.SubmitResult {
	return service.SubmitResult{
		Job:                 &domain.Job{ID: id, State: domain.JobStateRunning},
		AdmittedImmediately: true,
	}
}

func queued(id string, pos, length int) service.SubmitResult {
	return service.SubmitResult{
		Job:           &domain.Job{ID: id, State: domain.JobStateQueued},
		QueuePosition: pos,
		QueueLength:   length,
	}
}

func multipartBody(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	conv := &fakeConversions{stats: service.QueueStats{Running: 2, Waiting: 5, MaxConcurrent: 3}}
	s := newTestServer(conv, &fakeStatus{})

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	body := decode[healthResponse](t, rec)
	assert.Equal(t, healthResponse{Status: "ok", Running: 2, Waiting: 5, MaxConcurrent: 3}, body)
}

func TestSubmitFile_Admitted(t *testing.T) {
	conv := &fakeConversions{result: admitted("job-1")}
	s := newTestServer(conv, &fakeStatus{})

	content := append(append([]byte{}, mp4Header...), []byte("payload")...)
	body, ct := multipartBody(t, "My Talk.mp4", content, map[string]string{"chunk_size": "10", "bitrate": "128k"})
	req := httptest.NewRequest(http.MethodPost, "/api/conversion/file", body)
	req.Header.Set("Content-Type", ct)

	rec := do(t, s, req)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	resp := decode[submitResponse](t, rec)
	assert.Equal(t, "job-1", resp.JobID)
	assert.Equal(t, "My Talk.mp4", resp.Filename)
	assert.Equal(t, int64(len(content)), resp.FileSize)
	assert.Equal(t, "processing", resp.Status)
	assert.False(t, resp.IsQueued)
	assert.Zero(t, resp.QueuePosition)

	assert.Equal(t, content, conv.gotPayload, "upload must be passed from the first byte")
	assert.Equal(t, domain.Params{ChunkSizeBytes: 10 << 20, Bitrate: domain.Bitrate128k}, conv.gotParams)
}

func TestSubmitFile_QueuedUsesDefaults(t *testing.T) {
	conv := &fakeConversions{result: queued("job-2", 2, 4)}
	s := newTestServer(conv, &fakeStatus{})

	body, ct := multipartBody(t, "talk.MP4", mp4Header, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/conversion/file", body)
	req.Header.Set("Content-Type", ct)

	rec := do(t, s, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	resp := decode[submitResponse](t, rec)
	assert.Equal(t, "queued", resp.Status)
	assert.True(t, resp.IsQueued)
	assert.Equal(t, 2, resp.QueuePosition)
	assert.Equal(t, 4, resp.QueueLength)
	assert.Equal(t, domain.Params{ChunkSizeBytes: 25 << 20, Bitrate: domain.Bitrate192k}, conv.gotParams)
}

func TestSubmitFile_SanitizesFilename(t *testing.T) {
	conv := &fakeConversions{result: admitted("job-3")}
	s := newTestServer(conv, &fakeStatus{})

	body, ct := multipartBody(t, `..\..\evil"name.mp4`, mp4Header, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/conversion/file", body)
	req.Header.Set("Content-Type", ct)

	rec := do(t, s, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "evil_name.mp4", conv.gotName)
}

func TestSubmitFile_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		fields   map[string]string
		wantCode int
		wantMsg  string
	}{
		{name: "no file part", wantCode: http.StatusBadRequest, wantMsg: "no file part"},
		{name: "wrong extension", filename: "talk.mkv", content: mp4Header, wantCode: http.StatusBadRequest, wantMsg: "must be MP4"},
		{name: "not mp4 content", filename: "talk.mp4", content: []byte("<html>hello</html>"), wantCode: http.StatusBadRequest, wantMsg: "not MP4"},
		{name: "empty file", filename: "talk.mp4", content: nil, wantCode: http.StatusBadRequest, wantMsg: "not MP4"},
		{name: "chunk size not a number", filename: "talk.mp4", content: mp4Header, fields: map[string]string{"chunk_size": "big"}, wantCode: http.StatusBadRequest, wantMsg: "integer"},
		{name: "chunk size out of range", filename: "talk.mp4", content: mp4Header, fields: map[string]string{"chunk_size": "501"}, wantCode: http.StatusBadRequest, wantMsg: "chunk size"},
		{name: "bad bitrate", filename: "talk.mp4", content: mp4Header, fields: map[string]string{"bitrate": "96k"}, wantCode: http.StatusBadRequest, wantMsg: "bitrate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := &fakeConversions{result: admitted("never")}
			s := newTestServer(conv, &fakeStatus{})

			body, ct := multipartBody(t, tt.filename, tt.content, tt.fields)
			req := httptest.NewRequest(http.MethodPost, "/api/conversion/file", body)
			req.Header.Set("Content-Type", ct)

			rec := do(t, s, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, decode[errorResponse](t, rec).Message, tt.wantMsg)
			assert.Empty(t, conv.gotName, "nothing may be submitted")
		})
	}
}

func TestSubmitFile_TooLarge(t *testing.T) {
	conv := &fakeConversions{result: admitted("job")}
	s := NewServer(conv, &fakeStatus{}, service.NewEventBus(), ServerConfig{
		Defaults: Defaults{ChunkSizeMB: 25, Bitrate: domain.Bitrate192k, MaxUploadSize: 1024},
	})

	body, ct := multipartBody(t, "big.mp4", append(mp4Header, make([]byte, 4096)...), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/conversion/file", body)
	req.Header.Set("Content-Type", ct)

	rec := do(t, s, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "File too large", decode[errorResponse](t, rec).Error)
}

func TestSubmitFile_ServiceError(t *testing.T) {
	conv := &fakeConversions{err: errors.New("store upload: write /data/uploads/x: no space left on device")}
	s := newTestServer(conv, &fakeStatus{})

	body, ct := multipartBody(t, "talk.mp4", mp4Header, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/conversion/file", body)
	req.Header.Set("Content-Type", ct)

	rec := do(t, s, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "server is out of disk space", decode[errorResponse](t, rec).Message)
}

func TestSubmitURL(t *testing.T) {
	conv := &fakeConversions{result: queued("job-u", 1, 1)}
	s := newTestServer(conv, &fakeStatus{})

	req := httptest.NewRequest(http.MethodPost, "/api/conversion/url",
		strings.NewReader(`{"url":"https://cdn.example.com/v/talk.mp4","filename":"episode","chunk_size":5,"bitrate":"320k"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := do(t, s, req)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	resp := decode[submitResponse](t, rec)
	assert.Equal(t, "job-u", resp.JobID)
	assert.Equal(t, "https://cdn.example.com/v/talk.mp4", resp.URL)
	assert.True(t, resp.IsQueued)
	assert.Equal(t, 1, resp.QueuePosition)

	assert.Equal(t, "https://cdn.example.com/v/talk.mp4", conv.gotURL)
	assert.Equal(t, "episode", conv.gotName)
	assert.Equal(t, domain.Params{ChunkSizeBytes: 5 << 20, Bitrate: domain.Bitrate320k}, conv.gotParams)
}

func TestSubmitURL_Rejections(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantMsg     string
	}{
		{name: "not json", contentType: "text/plain", body: `url=x`, wantMsg: "must be JSON"},
		{name: "malformed json", contentType: "application/json", body: `{"url":`, wantMsg: "invalid JSON"},
		{name: "missing url", contentType: "application/json", body: `{}`, wantMsg: "url must be"},
		{name: "ftp url", contentType: "application/json", body: `{"url":"ftp://example.com/a.mp4"}`, wantMsg: "url must be"},
		{name: "relative url", contentType: "application/json", body: `{"url":"/a.mp4"}`, wantMsg: "url must be"},
		{name: "zero chunk size", contentType: "application/json", body: `{"url":"http://example.com/a.mp4","chunk_size":0}`, wantMsg: "chunk size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := &fakeConversions{result: admitted("never")}
			s := newTestServer(conv, &fakeStatus{})

			req := httptest.NewRequest(http.MethodPost, "/api/conversion/url", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)

			rec := do(t, s, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decode[errorResponse](t, rec).Message, tt.wantMsg)
			assert.Empty(t, conv.gotURL)
		})
	}
}

func TestSubmit_RateLimited(t *testing.T) {
	conv := &fakeConversions{result: admitted("job")}
	s := NewServer(conv, &fakeStatus{}, service.NewEventBus(), ServerConfig{
		Defaults: testDefaults,
		Limiter:  ratelimit.NewSubmissionLimiter(1, time.Hour),
	})

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/conversion/url", strings.NewReader(`{"url":"https://example.com/a.mp4"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "192.0.2.10:4000"
		return do(t, s, req)
	}

	assert.Equal(t, http.StatusAccepted, send().Code)
	limited := send()
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))

	// Status polling is not limited.
	status := do(t, s, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, status.Code)
}

func TestStatus(t *testing.T) {
	st := &fakeStatus{snaps: map[string]domain.StatusSnapshot{
		"q": {JobID: "q", State: domain.JobStateQueued, QueuePosition: 3, QueueLength: 7},
		"r": {JobID: "r", State: domain.JobStateRunning},
		"f": {JobID: "f", State: domain.JobStateFailed, Error: "transcode: no audio track"},
		"c": {JobID: "c", State: domain.JobStateCompleted, Outputs: []domain.Output{
			{Name: "talk_part1.mp3", Size: 100, Locator: "/api/download/c/talk_part1.mp3"},
			{Name: "talk_part2.mp3", Size: 50, Locator: "/api/download/c/talk_part2.mp3"},
		}},
	}}
	s := newTestServer(&fakeConversions{}, st)

	tests := []struct {
		id   string
		want statusResponse
	}{
		{id: "q", want: statusResponse{JobID: "q", Status: "queued", QueuePosition: 3, QueueLength: 7, Files: []fileResponse{}}},
		{id: "r", want: statusResponse{JobID: "r", Status: "processing", Files: []fileResponse{}}},
		{id: "f", want: statusResponse{JobID: "f", Status: "failed", Error: "transcode: no audio track", Files: []fileResponse{}}},
		{id: "c", want: statusResponse{JobID: "c", Status: "completed", Files: []fileResponse{
			{Filename: "talk_part1.mp3", Size: 100, DownloadURL: "/api/download/c/talk_part1.mp3"},
			{Filename: "talk_part2.mp3", Size: 50, DownloadURL: "/api/download/c/talk_part2.mp3"},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.want.Status, func(t *testing.T) {
			rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/conversion/"+tt.id, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, decode[statusResponse](t, rec))
			assert.Contains(t, rec.Body.String(), `"files":[`, "files is always an array")
		})
	}
}

func TestStatus_NotFound(t *testing.T) {
	s := newTestServer(&fakeConversions{}, &fakeStatus{})

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/conversion/unknown", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", decode[errorResponse](t, rec).Error)
}

func TestStatus_StoreError(t *testing.T) {
	s := newTestServer(&fakeConversions{}, &fakeStatus{err: fmt.Errorf("get job: %w", errors.New("database is locked"))})

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/conversion/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "database is locked")
}

func TestDownload(t *testing.T) {
	dir := t.TempDir()
	part := filepath.Join(dir, "talk_part1.mp3")
	require.NoError(t, os.WriteFile(part, []byte("ID3-mp3-data"), 0644))

	conv := &fakeConversions{files: map[string]string{"job-1/talk_part1.mp3": part}}
	s := newTestServer(conv, &fakeStatus{})

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/download/job-1/talk_part1.mp3", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ID3-mp3-data", rec.Body.String())
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="talk_part1.mp3"`, rec.Header().Get("Content-Disposition"))
}

func TestDownload_NotFound(t *testing.T) {
	s := newTestServer(&fakeConversions{}, &fakeStatus{})

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/download/job-1/error.txt", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(&fakeConversions{}, &fakeStatus{})

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestCORSPreflight(t *testing.T) {
	s := NewServer(&fakeConversions{}, &fakeStatus{}, service.NewEventBus(), ServerConfig{
		Defaults:       testDefaults,
		AllowedOrigins: []string{"https://app.example.com"},
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/conversion/url", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type")

	rec := do(t, s, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "content-type", rec.Header().Get("Access-Control-Allow-Headers"))

	other := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	other.Header.Set("Origin", "https://evil.example.com")
	assert.Empty(t, do(t, s, other).Header().Get("Access-Control-Allow-Origin"))
}
