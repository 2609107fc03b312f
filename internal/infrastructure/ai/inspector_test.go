package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/weight-dispute-api/pkg/config"
)

var png = []byte("\x89PNG\r\n\x1a\nfake")

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, extractJSON(`Aquí está: {"a":1} listo`))
	assert.Equal(t, "", extractJSON("sin json"))
}

func TestMarkersPayload(t *testing.T) {
	m := markersPayload{HasScale: true, DetectedAWB: " awb123 ", CapturedAt: "2024-06-01T10:00:00+05:30"}.toMarkers()
	assert.True(t, m.HasScale)
	assert.True(t, m.HasAWB)
	assert.Equal(t, "AWB123", m.DetectedAWB)
	require.NotNil(t, m.CapturedAt)
	assert.Equal(t, time.Date(2024, 6, 1, 4, 30, 0, 0, time.UTC), *m.CapturedAt)

	m = markersPayload{CapturedAt: "ayer"}.toMarkers()
	assert.Nil(t, m.CapturedAt)
}

func TestAnthropicInspector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k1", r.Header.Get("x-api-key"))
		var req anthropicRequest
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &req))
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "image", req.Messages[0].Content[0].Type)
		assert.Equal(t, "image/png", req.Messages[0].Content[0].Source.MediaType)
		text := "```json\n{\"has_scale\":true,\"has_ruler\":false,\"detected_awb\":\"EK1\"}\n```"
		resp := map[string]interface{}{"content": []map[string]string{{"type": "text", "text": text}}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	ins := NewAnthropicInspector("k1", "claude-test")
	ins.endpoint = srv.URL
	m, err := ins.Inspect(context.Background(), png, "image/png")
	require.NoError(t, err)
	assert.True(t, m.HasScale)
	assert.False(t, m.HasRuler)
	assert.Equal(t, "EK1", m.DetectedAWB)
}

func TestAnthropicInspector_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"type":"rate_limit_error","message":"lento"}}`)
	}))
	defer srv.Close()

	ins := NewAnthropicInspector("k1", "m")
	ins.endpoint = srv.URL
	_, err := ins.Inspect(context.Background(), png, "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate_limit_error")
}

func TestGeminiInspector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "k2", r.URL.Query().Get("key"))
		var req geminiRequest
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &req))
		require.NotNil(t, req.Contents[0].Parts[0].InlineData)
		assert.Equal(t, "image/jpeg", req.Contents[0].Parts[0].InlineData.MimeType)
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"{\"has_ruler\":true,\"has_awb\":true}"}]}}]}`)
	}))
	defer srv.Close()

	ins := NewGeminiInspector("k2", "gemini-test")
	ins.baseURL = srv.URL
	m, err := ins.Inspect(context.Background(), png, "image/jpeg")
	require.NoError(t, err)
	assert.True(t, m.HasRuler)
	assert.True(t, m.HasAWB)
	assert.False(t, m.HasScale)
}

func TestInspect_RechazaNoImagen(t *testing.T) {
	_, err := NewGeminiInspector("k", "m").Inspect(context.Background(), []byte("%PDF"), "application/pdf")
	assert.Error(t, err)
	_, err = NewAnthropicInspector("k", "m").Inspect(context.Background(), nil, "image/png")
	assert.Error(t, err)
}

func TestNewInspector(t *testing.T) {
	assert.Nil(t, NewInspector(config.AIConfig{}))
	assert.Nil(t, NewInspector(config.AIConfig{Provider: "anthropic"}))
	assert.IsType(t, &AnthropicInspector{}, NewInspector(config.AIConfig{Provider: "Anthropic", AnthropicAPIKey: "x"}))
	assert.IsType(t, &GeminiInspector{}, NewInspector(config.AIConfig{Provider: "gemini", GeminiAPIKey: "y"}))
}
