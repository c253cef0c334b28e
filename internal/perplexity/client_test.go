// internal/perplexity/client_test.go
package perplexity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-magnet-workers/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig(baseURL string) *Config {
	cfg := LoadConfig("test-key")
	cfg.BaseURL = baseURL
	cfg.Timeout = 2 * time.Second
	return cfg
}

func completionBody(content string) string {
	data, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]interface{}{"content": content}},
		},
	})
	return string(data)
}

type upstream struct {
	server *httptest.Server
	calls  int32
	last   chan capturedRequest
}

type capturedRequest struct {
	header http.Header
	path   string
	body   chatRequest
}

// newUpstream serves status and body for every call and records the last request.
func newUpstream(t *testing.T, status int, body string) *upstream {
	t.Helper()
	u := &upstream{last: make(chan capturedRequest, 16)}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.calls, 1)
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		u.last <- capturedRequest{header: r.Header.Clone(), path: r.URL.Path, body: req}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(u.server.Close)
	return u
}

func (u *upstream) Calls() int {
	return int(atomic.LoadInt32(&u.calls))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(createTestConfig(baseURL), logger.NewTestLogger(t))
	require.NoError(t, err)
	return client
}

// ==========================
// Construction
// ==========================

func TestNewClient_MissingKey(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"empty key", &Config{}},
		{"blank key", &Config{APIKey: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.cfg, logger.NewNoOpLogger())
			assert.Nil(t, client)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestNewClient_AppliesDefaults(t *testing.T) {
	client, err := NewClient(&Config{APIKey: "k"}, logger.NewNoOpLogger())
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, client.config.BaseURL)
	assert.Equal(t, DefaultTimeout, client.config.Timeout)
	assert.Equal(t, 3000, client.config.Structured.MaxTokens)
	assert.Equal(t, 0.7, client.config.Structured.Temperature)
	assert.Equal(t, 1200, client.config.Freeform.MaxTokens)
	assert.Equal(t, 0.3, client.config.Freeform.Temperature)
}

func TestNewClient_DoesNotMutateCallerConfig(t *testing.T) {
	cfg := &Config{APIKey: "k"}
	_, err := NewClient(cfg, logger.NewNoOpLogger())
	require.NoError(t, err)
	assert.Empty(t, cfg.BaseURL)
	assert.Zero(t, cfg.Timeout)
}

// ==========================
// Structured mode
// ==========================

func TestGenerateStructured_Success(t *testing.T) {
	expected := map[string]interface{}{
		"title": "5 Ways to Cut Your Tax Bill",
		"sections": []interface{}{
			map[string]interface{}{"heading": "Plan early", "body": "Start in Q1."},
		},
	}
	encoded, _ := json.Marshal(expected)

	tests := []struct {
		name    string
		content string
	}{
		{"unfenced JSON", string(encoded)},
		{"fenced with language tag", "```json\n" + string(encoded) + "\n```"},
		{"fenced without language tag", "```\n" + string(encoded) + "\n```"},
		{"fenced with surrounding whitespace", "\n  ```json\n" + string(encoded) + "\n```  \n"},
		{"pretty printed fenced", "```json\n{\n  \"title\": \"5 Ways to Cut Your Tax Bill\",\n  \"sections\": [{\"heading\": \"Plan early\", \"body\": \"Start in Q1.\"}]\n}\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := newUpstream(t, http.StatusOK, completionBody(tt.content))
			client := newTestClient(t, u.server.URL)

			out, err := client.GenerateStructured(context.Background(),
				map[string]interface{}{"topic": "tax planning"},
				map[string]interface{}{"firm_name": "Acme CPA"},
			)

			require.NoError(t, err)
			assert.Equal(t, expected, out)
			assert.Equal(t, 1, u.Calls())
		})
	}
}

func TestGenerateStructured_RequestShape(t *testing.T) {
	u := newUpstream(t, http.StatusOK, completionBody(`{"ok":true}`))
	client := newTestClient(t, u.server.URL+"/chat/completions")

	_, err := client.GenerateStructured(context.Background(),
		map[string]interface{}{"audience": "small business owners"},
		map[string]interface{}{"firm_name": "Müller & Söhne <LLP>"},
	)
	require.NoError(t, err)

	req := <-u.last
	assert.Equal(t, "/chat/completions", req.path)
	assert.Equal(t, "Bearer test-key", req.header.Get("Authorization"))
	assert.Equal(t, "application/json", req.header.Get("Content-Type"))
	assert.Equal(t, "application/json", req.header.Get("Accept"))

	assert.Equal(t, "sonar", req.body.Model)
	assert.Equal(t, 3000, req.body.MaxTokens)
	assert.Equal(t, 0.7, req.body.Temperature)
	require.Len(t, req.body.Messages, 2)
	assert.Equal(t, "system", req.body.Messages[0].Role)
	assert.Contains(t, req.body.Messages[0].Content, "VALID JSON ONLY")
	assert.Equal(t, "user", req.body.Messages[1].Role)

	var prompt map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(req.body.Messages[1].Content), &prompt))
	assert.Equal(t, map[string]interface{}{"firm_name": "Müller & Söhne <LLP>"}, prompt["firm_profile"])
	assert.Equal(t, map[string]interface{}{"audience": "small business owners"}, prompt["user_answers"])
	assert.Equal(t, map[string]interface{}{
		"format":          "JSON only",
		"tone":            "professional",
		"length":          "concise but complete",
		"no_placeholders": true,
	}, prompt["rules"])
	assert.Contains(t, req.body.Messages[1].Content, "Müller & Söhne <LLP>")
}

func TestGenerateStructured_InvalidResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"prose content", completionBody("Here is your lead magnet: a great guide.")},
		{"fenced prose", completionBody("```json\nnot json\n```")},
		{"missing closing fence", completionBody("```json\n{\"title\": \"x\"}")},
		{"two fenced blocks", completionBody("```json\n{\"a\":1}\n```\n```json\n{\"b\":2}\n```")},
		{"JSON array", completionBody(`[{"title":"x"}]`)},
		{"JSON null", completionBody("null")},
		{"empty content", completionBody("")},
		{"no choices", `{"choices":[]}`},
		{"envelope not JSON", `<html>ok</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := newUpstream(t, http.StatusOK, tt.body)
			client := newTestClient(t, u.server.URL)

			out, err := client.GenerateStructured(context.Background(), map[string]interface{}{}, map[string]interface{}{})

			assert.Nil(t, out)
			assert.ErrorIs(t, err, ErrInvalidResponse)
			assert.False(t, errors.Is(err, ErrUpstream))
			assert.False(t, errors.Is(err, ErrTransport))
			assert.Equal(t, 1, u.Calls())
		})
	}
}

// ==========================
// Upstream and transport failures
// ==========================

func TestGenerate_UpstreamError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"invalid api key"}`},
		{"rate limited", http.StatusTooManyRequests, `{"error":"slow down"}`},
		{"server error with valid completion body", http.StatusInternalServerError, completionBody(`{"ok":true}`)},
		{"created", http.StatusCreated, completionBody(`{"ok":true}`)},
		{"bad gateway", http.StatusBadGateway, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := newUpstream(t, tt.statusCode, tt.body)
			client := newTestClient(t, u.server.URL)

			_, err := client.GenerateStructured(context.Background(), map[string]interface{}{}, map[string]interface{}{})

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUpstream)
			var upstreamErr *UpstreamError
			require.True(t, errors.As(err, &upstreamErr))
			assert.Equal(t, tt.statusCode, upstreamErr.StatusCode)
			assert.Equal(t, tt.body, upstreamErr.Body)
			assert.Equal(t, 1, u.Calls(), "upstream errors must not be retried")

			_, err = client.GenerateText(context.Background(), "Write a tagline")
			assert.ErrorIs(t, err, ErrUpstream)
		})
	}
}

func TestGenerate_Timeout(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	cfg := createTestConfig(server.URL)
	cfg.Timeout = 50 * time.Millisecond
	client, err := NewClient(cfg, logger.NewTestLogger(t))
	require.NoError(t, err)

	start := time.Now()
	out, err := client.GenerateStructured(context.Background(), map[string]interface{}{}, map[string]interface{}{})

	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.False(t, errors.Is(err, ErrTransport))
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "timeouts must not be retried")
}

func TestGenerate_CallerDeadlineIsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.GenerateText(ctx, "Write a tagline")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestGenerate_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := newTestClient(t, url)
	_, err := client.GenerateText(context.Background(), "Write a tagline")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.False(t, errors.Is(err, ErrTimeout))
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.NotNil(t, transportErr.Err)
}

type failingDoer struct {
	err   error
	calls int
}

func (d *failingDoer) Do(*http.Request) (*http.Response, error) {
	d.calls++
	return nil, d.err
}

func TestGenerate_TransportErrorWrapsCause(t *testing.T) {
	cause := errors.New("connection reset by peer")
	doer := &failingDoer{err: cause}
	client, err := NewClient(createTestConfig("http://upstream.invalid"), logger.NewNoOpLogger(), WithHTTPClient(doer))
	require.NoError(t, err)

	_, err = client.GenerateStructured(context.Background(), nil, nil)

	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, doer.calls)
}

// ==========================
// Freeform mode
// ==========================

func TestGenerateText_TrimsContent(t *testing.T) {
	u := newUpstream(t, http.StatusOK, `{"choices":[{"message":{"content":"  Grow faster.  "}}]}`)
	client := newTestClient(t, u.server.URL)

	text, err := client.GenerateText(context.Background(), "Write a tagline")

	require.NoError(t, err)
	assert.Equal(t, "Grow faster.", text)

	req := <-u.last
	assert.Equal(t, 1200, req.body.MaxTokens)
	assert.Equal(t, 0.3, req.body.Temperature)
	require.Len(t, req.body.Messages, 2)
	assert.Contains(t, req.body.Messages[0].Content, "structured, concise, high-quality")
	assert.Equal(t, "Write a tagline", req.body.Messages[1].Content)
}

func TestGenerateText_KeepsFencesVerbatim(t *testing.T) {
	u := newUpstream(t, http.StatusOK, completionBody("```\ncode\n```"))
	client := newTestClient(t, u.server.URL)

	text, err := client.GenerateText(context.Background(), "Show a snippet")

	require.NoError(t, err)
	assert.Equal(t, "```\ncode\n```", text)
}

func TestGenerateText_EmptyResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty content", completionBody("")},
		{"whitespace content", completionBody(" \n\t ")},
		{"no choices", `{"choices":[]}`},
		{"missing message", `{"choices":[{}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := newUpstream(t, http.StatusOK, tt.body)
			client := newTestClient(t, u.server.URL)

			text, err := client.GenerateText(context.Background(), "Write a tagline")

			assert.Empty(t, text)
			assert.ErrorIs(t, err, ErrEmptyResponse)
		})
	}
}

func TestGenerateText_EmptyPromptNeverCallsUpstream(t *testing.T) {
	u := newUpstream(t, http.StatusOK, completionBody("unused"))
	client := newTestClient(t, u.server.URL)

	_, err := client.GenerateText(context.Background(), "   ")

	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, 0, u.Calls())
}

func TestGenerate_UnknownMode(t *testing.T) {
	u := newUpstream(t, http.StatusOK, completionBody("unused"))
	client := newTestClient(t, u.server.URL)

	_, err := client.Generate(context.Background(), GenerationRequest{Mode: "poem"})

	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, 0, u.Calls())
}

func TestGenerate_ReturnsModeInResult(t *testing.T) {
	u := newUpstream(t, http.StatusOK, completionBody(`{"title":"x"}`))
	client := newTestClient(t, u.server.URL)

	result, err := client.Generate(context.Background(), NewStructuredRequest(nil, nil))

	require.NoError(t, err)
	assert.Equal(t, ModeStructured, result.Mode)
	assert.Equal(t, "x", result.Data["title"])
	assert.Empty(t, result.Text)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", Outcome(nil))
	assert.Equal(t, "timeout", Outcome(ErrTimeout))
	assert.Equal(t, "upstream_error", Outcome(&UpstreamError{StatusCode: 500}))
	assert.Equal(t, "transport_error", Outcome(&TransportError{Err: errors.New("x")}))
	assert.Equal(t, "unknown", Outcome(errors.New("x")))
}
