// internal/perplexity/client.go
package perplexity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	commonhttp "lead-magnet-workers/internal/common/http"
	"lead-magnet-workers/internal/common/logger"
	"lead-magnet-workers/internal/common/metrics"
)

const (
	maxResponseBytes  = 4 << 20
	maxErrorBodyBytes = 64 << 10
)

// Doer is the transport the client sends its single request through.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Option func(*Client)

// WithHTTPClient replaces the default shared transport.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) {
		c.http = d
	}
}

// Client calls the Perplexity chat-completions API once per request.
// It holds no mutable state and is safe for concurrent use.
type Client struct {
	config *Config
	http   Doer
	logger logger.Logger
}

// NewClient fails with ErrConfiguration when the API key is missing, so no
// call can ever reach the network without credentials.
func NewClient(cfg *Config, log logger.Logger, opts ...Option) (*Client, error) {
	if cfg == nil || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: perplexity api key is missing", ErrConfiguration)
	}

	resolved := cfg.withDefaults()
	c := &Client{
		config: &resolved,
		http:   commonhttp.NewClient(0),
		logger: log.With(map[string]interface{}{
			"component": "perplexity",
			"model":     Model,
		}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.logger.Info("perplexity client initialized", map[string]interface{}{
		"endpoint":  resolved.BaseURL,
		"timeoutMs": resolved.Timeout.Milliseconds(),
	})
	return c, nil
}

// GenerateStructured returns the JSON object the model produced for the
// given answers and firm profile.
func (c *Client) GenerateStructured(ctx context.Context, userAnswers, firmProfile map[string]interface{}) (map[string]interface{}, error) {
	result, err := c.Generate(ctx, NewStructuredRequest(userAnswers, firmProfile))
	if err != nil {
		return nil, err
	}
	return result.Data, nil
}

// GenerateText returns the trimmed completion text for prompt.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	result, err := c.Generate(ctx, NewFreeformRequest(prompt))
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

func (c *Client) Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	start := time.Now()
	result, err := c.generate(ctx, req)
	elapsed := time.Since(start)

	outcome := Outcome(err)
	metrics.GenerationRequests.WithLabelValues(string(req.Mode), outcome).Inc()
	metrics.GenerationDuration.WithLabelValues(string(req.Mode)).Observe(elapsed.Seconds())

	fields := map[string]interface{}{
		"mode":       string(req.Mode),
		"outcome":    outcome,
		"durationMs": elapsed.Milliseconds(),
	}
	if err != nil {
		var upstream *UpstreamError
		if errors.As(err, &upstream) {
			fields["statusCode"] = upstream.StatusCode
		}
		fields["error"] = err.Error()
		c.logger.Error("generation failed", fields)
		return nil, err
	}

	c.logger.Info("generation completed", fields)
	return result, nil
}

func (c *Client) generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	messages, preset, err := buildMessages(req, c.config)
	if err != nil {
		return nil, err
	}

	resp, err := c.complete(ctx, messages, preset)
	if err != nil {
		return nil, err
	}
	content, ok := resp.firstContent()

	if req.Mode == ModeStructured {
		if !ok {
			return nil, fmt.Errorf("%w: response has no choices", ErrInvalidResponse)
		}
		data, err := parseStructured(content)
		if err != nil {
			return nil, err
		}
		return &GenerationResult{Mode: ModeStructured, Data: data}, nil
	}

	text := strings.TrimSpace(content)
	if !ok || text == "" {
		return nil, fmt.Errorf("%w: completion content is empty", ErrEmptyResponse)
	}
	return &GenerationResult{Mode: ModeFreeform, Text: text}, nil
}

// complete performs the single upstream call. There is no retry loop.
func (c *Client) complete(ctx context.Context, messages []message, preset Preset) (*chatResponse, error) {
	body, err := json.Marshal(chatRequest{
		Model:       Model,
		Messages:    messages,
		MaxTokens:   preset.MaxTokens,
		Temperature: preset.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrInvalidRequest, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.config.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, c.classifyTransport(callCtx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(payload)}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.classifyTransport(callCtx, err)
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decode completion envelope: %v", ErrInvalidResponse, err)
	}
	return &out, nil
}

// classifyTransport separates deadline expiry from every other network failure.
func (c *Client) classifyTransport(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %v", ErrTimeout, c.config.Timeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w after %s: %v", ErrTimeout, c.config.Timeout, err)
	}
	return &TransportError{Err: err}
}

func parseStructured(content string) (map[string]interface{}, error) {
	text, err := ExtractFenced(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: completion content is empty", ErrInvalidResponse)
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, fmt.Errorf("%w: content is not a JSON object: %v", ErrInvalidResponse, err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: content is null", ErrInvalidResponse)
	}
	return data, nil
}
