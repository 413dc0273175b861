package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"auroracast/internal/aurora"
	"auroracast/internal/config"
	"auroracast/internal/oracle"
	"auroracast/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Oracle.Timeout = "5s"
	cfg.Oracle.DemoDelay = "1ms"

	archive, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { archive.Close() })

	return New(cfg, oracle.NewDemo(time.Millisecond), archive, zap.NewNop())
}

func doRequest(t *testing.T, s *Server, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), "body: %s", w.Body.String())
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/healthz", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status string `json:"status"`
		Live   bool   `json:"live"`
	}
	decodeBody(t, w, &body)
	assert.Equal(t, "ok", body.Status)
	assert.False(t, body.Live)
}

func TestForecastRoundTrip(t *testing.T) {
	s := newTestServer(t)

	payload := strings.NewReader(`{"latitude": 64.1, "longitude": -21.9}`)
	w := doRequest(t, s, http.MethodPost, "/api/v1/forecast", payload, "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp forecastResponse
	decodeBody(t, w, &resp)
	assert.True(t, resp.Demo)
	assert.NotEmpty(t, resp.ID, "fetch should land in the archive")
	require.NotNil(t, resp.Report)
	assert.Equal(t, "Simulated Sector (Demo)", resp.Report.LocationName)
	assert.NotEmpty(t, resp.RawText)
	require.Len(t, resp.Sources, 1)
	assert.Contains(t, resp.Sources[0].Title, "Simulated")
}

func TestForecastDefaultsLocation(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/v1/forecast", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestForecastRejectsBadBody(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/v1/forecast", strings.NewReader(`{"latitude": "north"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestForecastLatest(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/api/v1/forecast/latest", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)

	doRequest(t, s, http.MethodPost, "/api/v1/forecast", nil, "")

	w = doRequest(t, s, http.MethodGet, "/api/v1/forecast/latest", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp forecastResponse
	decodeBody(t, w, &resp)
	require.NotNil(t, resp.Report)
}

func photoForm(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "sky.jpg")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("device", "DSLR"))
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestPhotoAnalysis(t *testing.T) {
	s := newTestServer(t)

	body, contentType := photoForm(t, "image", []byte{0xff, 0xd8, 0xff, 0xe0})
	w := doRequest(t, s, http.MethodPost, "/api/v1/photo", body, contentType)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Analysis *aurora.PhotoAnalysis `json:"analysis"`
	}
	decodeBody(t, w, &resp)
	require.NotNil(t, resp.Analysis)
	assert.Len(t, resp.Analysis.Checklist, 3)
}

// nilPhotoCapability answers every photo with "no analysis".
type nilPhotoCapability struct {
	oracle.Capability
}

func (nilPhotoCapability) AnalyzePhoto(ctx context.Context, image []byte, mimeType, deviceLabel string) *aurora.PhotoAnalysis {
	return nil
}

func TestPhotoUnanalyzable(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Oracle.DemoDelay = "1ms"
	s := New(cfg, nilPhotoCapability{oracle.NewDemo(time.Millisecond)}, nil, nil)

	body, contentType := photoForm(t, "image", []byte{1, 2, 3})
	w := doRequest(t, s, http.MethodPost, "/api/v1/photo", body, contentType)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp struct {
		Analysis *aurora.PhotoAnalysis `json:"analysis"`
	}
	decodeBody(t, w, &resp)
	assert.Nil(t, resp.Analysis)
}

func TestPhotoRequiresFile(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/v1/photo", strings.NewReader("not multipart"), "text/plain")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, contentType := photoForm(t, "picture", []byte{1})
	w = doRequest(t, s, http.MethodPost, "/api/v1/photo", body, contentType)
	assert.Equal(t, http.StatusBadRequest, w.Code, "wrong field name must be rejected")
}

func TestChatFlow(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/v1/chat/sessions", nil, "")
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	decodeBody(t, w, &created)
	require.NotEmpty(t, created.ID)

	msgPath := fmt.Sprintf("/api/v1/chat/sessions/%s/messages", created.ID)
	w = doRequest(t, s, http.MethodPost, msgPath, strings.NewReader(`{"message": "any aurora tonight?"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var turn struct {
		Reply string `json:"reply"`
	}
	decodeBody(t, w, &turn)
	assert.Contains(t, turn.Reply, "demo mode")

	w = doRequest(t, s, http.MethodGet, "/api/v1/chat/sessions/"+created.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var transcript struct {
		Messages []aurora.ChatMessage `json:"messages"`
	}
	decodeBody(t, w, &transcript)
	require.Len(t, transcript.Messages, 2)
	assert.Equal(t, aurora.RoleUser, transcript.Messages[0].Role)
	assert.Equal(t, aurora.RoleModel, transcript.Messages[1].Role)

	w = doRequest(t, s, http.MethodDelete, "/api/v1/chat/sessions/"+created.ID, nil, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, s, http.MethodPost, msgPath, strings.NewReader(`{"message": "still there?"}`), "application/json")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatUnknownSession(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/v1/chat/sessions/nope/messages", strings.NewReader(`{"message": "hi"}`), "application/json")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, s, http.MethodGet, "/api/v1/chat/sessions/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatRequiresMessage(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/v1/chat/sessions", nil, "")
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	decodeBody(t, w, &created)

	w = doRequest(t, s, http.MethodPost, "/api/v1/chat/sessions/"+created.ID+"/messages", strings.NewReader(`{}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReports(t *testing.T) {
	s := newTestServer(t)

	doRequest(t, s, http.MethodPost, "/api/v1/forecast", nil, "")

	w := doRequest(t, s, http.MethodGet, "/api/v1/reports", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Count   int             `json:"count"`
		Reports []store.Summary `json:"reports"`
	}
	decodeBody(t, w, &list)
	require.Equal(t, 1, list.Count)
	assert.True(t, list.Reports[0].HasReport)
	assert.True(t, list.Reports[0].Demo)

	w = doRequest(t, s, http.MethodGet, "/api/v1/reports/"+list.Reports[0].ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, s, http.MethodGet, "/api/v1/reports/no-such-id", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, s, http.MethodGet, "/api/v1/reports?limit=bogus", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, s, http.MethodGet, "/api/v1/reports?limit=5", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReportsWithoutArchive(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Oracle.DemoDelay = "1ms"
	s := New(cfg, oracle.NewDemo(time.Millisecond), nil, nil)

	w := doRequest(t, s, http.MethodGet, "/api/v1/reports", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// Fetches still work, they just are not archived.
	w = doRequest(t, s, http.MethodPost, "/api/v1/forecast", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp forecastResponse
	decodeBody(t, w, &resp)
	assert.Empty(t, resp.ID)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/forecast", nil)
	req.Header.Set("Origin", "https://example.com")
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
