package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/imagegate"
	"github.com/spetersoncode/imagegate/client"
	"github.com/spetersoncode/imagegate/internal/fake"
	"github.com/spetersoncode/imagegate/metrics"
)

func newTestRouter(t *testing.T, providers ...imagegate.Provider) http.Handler {
	t.Helper()
	c, err := client.New(client.Config{}, client.WithProviders(providers...))
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newRouter(c, metrics.New(), logger, time.Second)
}

func postGenerate(t *testing.T, h http.Handler, body any) (*httptest.ResponseRecorder, generateResponse) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewReader(data)))

	var resp generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestGenerateSuccess(t *testing.T) {
	failing := fake.Failing(imagegate.ProviderHuggingFace, errors.New("boom"))
	openai := fake.Succeeding(imagegate.ProviderOpenAI, "https://img/fox.png")
	h := newTestRouter(t, failing, openai)

	rec, resp := postGenerate(t, h, map[string]any{
		"prompt": "a red fox",
		"options": map[string]any{
			"style":   "watercolor",
			"quality": "hd",
			"size":    "1024x1024",
		},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.True(t, resp.Success)
	assert.Equal(t, "https://img/fox.png", resp.ImageURL)
	require.NotNil(t, resp.Metadata)
	assert.Equal(t, imagegate.ProviderOpenAI, resp.Metadata.Provider)
	assert.Equal(t, "a red fox", resp.Metadata.Prompt)
	assert.Equal(t, "watercolor", resp.Metadata.Style)
	assert.Equal(t, "general", resp.Metadata.Type)
	assert.False(t, resp.Metadata.Timestamp.IsZero())

	require.Len(t, openai.Prompts(), 1)
	assert.True(t, strings.HasPrefix(openai.Prompts()[0], "a red fox, highly detailed"))
	assert.Contains(t, openai.Prompts()[0], "watercolor")
	assert.Equal(t, imagegate.ImageQualityHD, openai.LastOptions().Quality)
}

func TestGenerateErrorStatus(t *testing.T) {
	tests := []struct {
		name      string
		providers []imagegate.Provider
		body      map[string]any
		status    int
		kind      imagegate.Kind
	}{
		{
			name:      "empty prompt",
			providers: []imagegate.Provider{fake.Succeeding(imagegate.ProviderOpenAI, "u")},
			body:      map[string]any{"prompt": "  "},
			status:    http.StatusBadRequest,
			kind:      imagegate.KindInvalidPrompt,
		},
		{
			name:      "unknown provider",
			providers: []imagegate.Provider{fake.Succeeding(imagegate.ProviderOpenAI, "u")},
			body:      map[string]any{"prompt": "p", "provider": "dalle"},
			status:    http.StatusNotFound,
			kind:      imagegate.KindProviderNotFound,
		},
		{
			name:      "unconfigured provider",
			providers: []imagegate.Provider{fake.Unconfigured(imagegate.ProviderGoogle)},
			body:      map[string]any{"prompt": "p", "provider": "google"},
			status:    http.StatusConflict,
			kind:      imagegate.KindProviderNotConfigured,
		},
		{
			name:      "nothing configured",
			providers: []imagegate.Provider{fake.Unconfigured(imagegate.ProviderGoogle)},
			body:      map[string]any{"prompt": "p"},
			status:    http.StatusServiceUnavailable,
			kind:      imagegate.KindNoProvidersConfigured,
		},
		{
			name:      "edit unsupported",
			providers: []imagegate.Provider{fake.Succeeding(imagegate.ProviderDeepAI, "u")},
			body: map[string]any{"prompt": "p", "provider": "deepai", "options": map[string]any{
				"sourceImage": imagegate.DataURI("image/png", []byte{1}),
			}},
			status: http.StatusBadRequest,
			kind:   imagegate.KindUnsupportedOperation,
		},
		{
			name:      "bad source image",
			providers: []imagegate.Provider{fake.Succeeding(imagegate.ProviderOpenAI, "u")},
			body: map[string]any{"prompt": "p", "options": map[string]any{
				"sourceImage": "https://example.com/cat.png",
			}},
			status: http.StatusBadRequest,
			kind:   kindInvalidRequest,
		},
		{
			name:      "targeted provider error",
			providers: []imagegate.Provider{fake.Failing(imagegate.ProviderOpenAI, errors.New("boom"))},
			body:      map[string]any{"prompt": "p", "provider": "openai"},
			status:    http.StatusBadGateway,
			kind:      imagegate.KindProviderError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := postGenerate(t, newTestRouter(t, tt.providers...), tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.kind, resp.Kind)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestGenerateAllProvidersFailed(t *testing.T) {
	h := newTestRouter(t,
		fake.Failing(imagegate.ProviderHuggingFace, imagegate.NewTransientErrorWithRetry("model is loading", 503, 20*time.Second, nil)),
		fake.Failing(imagegate.ProviderDeepAI, errors.New("quota exceeded")),
	)

	rec, resp := postGenerate(t, h, map[string]any{"prompt": "a red fox", "provider": "all"})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, imagegate.KindAllProvidersFailed, resp.Kind)
	assert.Equal(t, "20", rec.Header().Get("Retry-After"))
	assert.Equal(t, []attemptFailure{
		{Provider: imagegate.ProviderHuggingFace, Error: "model is loading"},
		{Provider: imagegate.ProviderDeepAI, Error: "quota exceeded"},
	}, resp.Attempts)
}

func TestGenerateEditForwardsSourceImage(t *testing.T) {
	p := fake.Succeeding(imagegate.ProviderOpenAI, "https://img/edited.png")
	p.Edit = true
	h := newTestRouter(t, p)

	rec, resp := postGenerate(t, h, map[string]any{
		"prompt":  "add a hat",
		"options": map[string]any{"sourceImage": imagegate.DataURI("image/jpeg", []byte{9, 9})},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	src := p.LastOptions().SourceImage
	require.NotNil(t, src)
	assert.Equal(t, []byte{9, 9}, src.Data)
	assert.Equal(t, "image/jpeg", src.MIMEType)
}

func TestGenerateTimeout(t *testing.T) {
	slow := &fake.Provider{
		ID:         imagegate.ProviderMidjourney,
		Configured: true,
		Fn: func(ctx context.Context, prompt string, opts *imagegate.ImageOptions) (*imagegate.Result, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	c, err := client.New(client.Config{}, client.WithProviders(slow))
	require.NoError(t, err)
	h := NewGenerateHandler(c, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"prompt":"p","provider":"midjourney"}`)))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestGenerateBadRequests(t *testing.T) {
	h := newTestRouter(t, fake.Succeeding(imagegate.ProviderOpenAI, "u"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/generate", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), string(kindInvalidRequest))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{&imagegate.PollError{JobID: "j", Err: imagegate.ErrPollTimedOut}, http.StatusGatewayTimeout},
		{&imagegate.PollError{JobID: "j", Err: imagegate.ErrPollCancelled, Cause: context.Canceled}, statusClientClosedRequest},
		{imagegate.ErrCancelled, statusClientClosedRequest},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, statusFor(tt.err), tt.err.Error())
	}
}

func TestProvidersAndHealth(t *testing.T) {
	h := newTestRouter(t,
		fake.Succeeding(imagegate.ProviderOpenAI, "u"),
		fake.Unconfigured(imagegate.ProviderDeepAI),
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/providers", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"providers":[
		{"name":"openai","configured":true,"supportsEdit":false},
		{"name":"deepai","configured":false,"supportsEdit":false}
	]}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "imagegate_requests_total")
}

func TestRequestIDIsPropagated(t *testing.T) {
	h := newTestRouter(t, fake.Succeeding(imagegate.ProviderOpenAI, "u"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestGenerateEstimatedCost(t *testing.T) {
	p := &fake.Provider{
		ID:         imagegate.ProviderOpenAI,
		Configured: true,
		Result:     &imagegate.Result{URL: "https://img/x.png", Model: "dall-e-3"},
	}
	h := newTestRouter(t, p)

	_, resp := postGenerate(t, h, map[string]any{"prompt": "p", "options": map[string]any{"quality": "hd"}})
	require.NotNil(t, resp.Metadata)
	assert.InDelta(t, 0.08, resp.Metadata.EstimatedCost, 0.0001)
	assert.Equal(t, "dall-e-3", resp.Metadata.Model)
}
