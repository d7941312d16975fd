package convert

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sectionsmith/sectionsmith-server/internal/domain"
	"github.com/sectionsmith/sectionsmith-server/internal/errors"
	"github.com/sectionsmith/sectionsmith-server/internal/ratelimit"
)

const (
	defaultEndpoint = "https://api.perplexity.ai/chat/completions"
	defaultModel    = "sonar-pro"

	// Generation settings tuned for code output: low temperature for
	// consistency, enough tokens for four full code blocks.
	temperature = 0.2
	maxTokens   = 8000

	// Completions are slow; the HTTP timeout has to cover full generation.
	defaultTimeout = 2 * time.Minute

	// Rate limit per endpoint host.
	defaultRPS   = 0.5
	defaultBurst = 2

	systemMessage = "You are an expert Shopify developer specialized in converting " +
		"web sections into Shopify Liquid sections. You produce clean, maintainable " +
		"code that follows current Shopify standards."
)

// KeySource supplies the API credential at call time so key changes take
// effect without restarting anything.
type KeySource interface {
	APIKey(ctx context.Context) (string, error)
}

// APIConverter is the direct-call strategy: it posts the rendered prompt to
// the LLM's completion endpoint and parses the returned message content.
type APIConverter struct {
	http     *http.Client
	endpoint string
	model    string
	keys     KeySource
	limiter  *ratelimit.KeyedRateLimiter
	logger   *slog.Logger
}

// APIOption customizes an APIConverter.
type APIOption func(*APIConverter)

// WithEndpoint overrides the completion endpoint URL, mainly for tests.
func WithEndpoint(endpoint string) APIOption {
	return func(c *APIConverter) { c.endpoint = endpoint }
}

// WithModel overrides the completion model name.
func WithModel(model string) APIOption {
	return func(c *APIConverter) { c.model = model }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) APIOption {
	return func(c *APIConverter) { c.http = hc }
}

// NewAPIConverter creates the API strategy backed by the given key source.
func NewAPIConverter(keys KeySource, logger *slog.Logger, opts ...APIOption) *APIConverter {
	c := &APIConverter{
		http:     &http.Client{Timeout: defaultTimeout},
		endpoint: defaultEndpoint,
		model:    defaultModel,
		keys:     keys,
		limiter:  ratelimit.New(defaultRPS, defaultBurst),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases resources held by the converter.
func (c *APIConverter) Close() {
	c.limiter.Stop()
}

func (c *APIConverter) Method() domain.ConversionMethod {
	return domain.MethodAPI
}

// Convert posts the prompt and parses the completion text. A missing key
// fails before any network traffic.
func (c *APIConverter) Convert(ctx context.Context, req Request) (*domain.ConversionResult, error) {
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemMessage},
			{Role: "user", Content: req.Prompt},
		},
		Temperature:            temperature,
		MaxTokens:              maxTokens,
		SearchDomainFilter:     []string{"shopify.dev", "github.com"},
		SearchRecencyFilter:    "month",
		ReturnImages:           false,
		ReturnRelatedQuestions: false,
	}

	content, err := c.complete(ctx, body)
	if err != nil {
		return nil, err
	}

	result := ParseResponse(content)
	return &result, nil
}

// TestConnection performs a minimal completion to verify the configured key
// works against the live endpoint.
func (c *APIConverter) TestConnection(ctx context.Context) error {
	_, err := c.complete(ctx, chatRequest{
		Model:     c.model,
		Messages:  []chatMessage{{Role: "user", Content: "test"}},
		MaxTokens: 10,
	})
	return err
}

func (c *APIConverter) complete(ctx context.Context, body chatRequest) (string, error) {
	key, err := c.keys.APIKey(ctx)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "load api key")
	}
	if key == "" {
		return "", errors.CredentialMissing("llm api key not configured")
	}

	if err := c.limiter.Wait(ctx, c.limiterKey()); err != nil {
		return "", errors.Wrap(err, errors.CodeConversionFailed, "rate limit wait")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "encode completion request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "create completion request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+key)
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("llm completion request", "endpoint", c.endpoint, "model", body.Model)
	start := time.Now()

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeConversionFailed, "completion request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeConversionFailed, "read completion response")
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", errors.CredentialMissing("llm endpoint rejected the configured key")
	default:
		msg := apiErrorMessage(raw)
		if msg == "" {
			msg = resp.Status
		}
		return "", errors.ConversionFailedf("completion endpoint returned %d: %s", resp.StatusCode, msg)
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", errors.Wrap(err, errors.CodeConversionFailed, "decode completion response")
	}
	if len(decoded.Choices) == 0 {
		return "", errors.ConversionFailed("completion response contained no choices")
	}

	c.logger.Debug("llm completion done", "duration", time.Since(start))
	return decoded.Choices[0].Message.Content, nil
}

func (c *APIConverter) limiterKey() string {
	if u, err := url.Parse(c.endpoint); err == nil && u.Host != "" {
		return u.Host
	}
	return c.endpoint
}

func apiErrorMessage(raw []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &e); err != nil {
		return ""
	}
	if e.Error.Message != "" {
		return e.Error.Message
	}
	return e.Message
}

// Wire types for the chat completion endpoint.

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model                  string        `json:"model"`
	Messages               []chatMessage `json:"messages"`
	Temperature            float64       `json:"temperature,omitzero"`
	MaxTokens              int           `json:"max_tokens"`
	ReturnImages           bool          `json:"return_images"`
	ReturnRelatedQuestions bool          `json:"return_related_questions"`
	SearchDomainFilter     []string      `json:"search_domain_filter,omitempty"`
	SearchRecencyFilter    string        `json:"search_recency_filter,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
