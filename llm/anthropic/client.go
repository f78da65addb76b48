// Package anthropic implements llm.Client for the Anthropic Messages API.
package anthropic

import (
	"context"
	"net/http"
	"time"

	anth "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	base "github.com/codevoyager1984/math-agent/llm"
	"github.com/codevoyager1984/math-agent/observability"
)

// Client implements llm.Client for Anthropic Claude.
type Client struct {
	client  anth.Client
	cfg     Config
	retrier *base.Retrier
}

// Config configures the Anthropic client.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Retry       base.RetryConfig
	Hooks       *observability.Hooks
}

// NewClient creates an Anthropic client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-haiku-latest"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4000
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry = base.DefaultRetryConfig()
	}

	opts := []option.RequestOption{}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}
	c := anth.NewClient(opts...)
	retrier := base.NewRetrier(cfg.Retry).WithNotify(func(ctx context.Context, attempt int, err error) {
		cfg.Hooks.SafeLLMRetry(ctx, "anthropic", cfg.Model, attempt, err)
	})
	return &Client{client: c, cfg: cfg, retrier: retrier}, nil
}

func (c *Client) Model() string { return c.cfg.Model }

func (c *Client) Chat(ctx context.Context, req *base.ChatRequest) (*base.Response, error) {
	model := pickModel(req, c.cfg.Model)
	c.cfg.Hooks.SafeLLMRequest(ctx, "anthropic", model, map[string]any{"operation": "chat"})
	start := time.Now()
	var out *anth.Message
	err := c.retrier.Do(ctx, func() error {
		resp, err := c.client.Messages.New(ctx, toAnthParams(req, c.cfg))
		if err != nil {
			return err
		}
		out = resp
		return nil
	})
	c.cfg.Hooks.SafeLLMResponse(ctx, "anthropic", model, time.Since(start), map[string]any{"operation": "chat", "error": err != nil})
	if err != nil {
		return nil, err
	}
	return fromAnthMessage(out), nil
}

func (c *Client) Completion(ctx context.Context, prompt string) (*base.Response, error) {
	return c.Chat(ctx, &base.ChatRequest{Messages: []base.Message{{Role: "user", Content: prompt}}})
}

// Stream emits the answer through the legacy channel API by delegating
// to ChatStream.
func (c *Client) Stream(ctx context.Context, req *base.ChatRequest, output chan<- *base.Response) error {
	s, err := c.ChatStream(ctx, req)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	for {
		d, err := s.Recv(ctx)
		if err != nil {
			return err
		}
		switch d.Type {
		case base.DeltaTypeText:
			if d.Text != "" {
				output <- &base.Response{Content: d.Text, Provider: d.Provider, Model: d.Model}
			}
		case base.DeltaTypeDone:
			return nil
		}
	}
}

// ChatStream is provided via build-tagged files; see
// chatstream_streaming.go and chatstream_fallback.go.

// anthStreamCore matches the subset of the SDK event-stream API we use.
type anthStreamCore interface {
	Next() bool
	Current() anth.MessageStreamEventUnion
	Err() error
	Close() error
}

var _ anthStreamCore = (*ssestream.Stream[anth.MessageStreamEventUnion])(nil)

type anthStreamWrapper struct {
	inner  anthStreamCore
	model  string
	closed bool
}

func (w *anthStreamWrapper) Recv(ctx context.Context) (base.Delta, error) {
	if w.closed {
		return base.Delta{}, base.ErrStreamClosed
	}
	for w.inner.Next() {
		ev := w.inner.Current()
		switch ev.Type {
		case "content_block_delta":
			if ev.Delta.Text != "" {
				return base.Delta{Type: base.DeltaTypeText, Text: ev.Delta.Text, Provider: "anthropic", Model: w.model}, nil
			}
		case "message_stop":
			w.closed = true
			return base.Delta{Type: base.DeltaTypeDone, Provider: "anthropic", Model: w.model}, nil
		}
	}
	w.closed = true
	if err := w.inner.Err(); err != nil {
		return base.Delta{}, err
	}
	return base.Delta{Type: base.DeltaTypeDone, Provider: "anthropic", Model: w.model}, nil
}

func (w *anthStreamWrapper) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.inner.Close()
}

// anthStaticStream emits one text delta followed by done. Used by the
// non-streaming fallback build.
type anthStaticStream struct {
	emitted  bool
	closed   bool
	text     string
	provider string
	model    string
}

func (s *anthStaticStream) Recv(ctx context.Context) (base.Delta, error) {
	if s.closed {
		return base.Delta{}, base.ErrStreamClosed
	}
	if !s.emitted && s.text != "" {
		s.emitted = true
		return base.Delta{Type: base.DeltaTypeText, Text: s.text, Provider: s.provider, Model: s.model}, nil
	}
	s.closed = true
	return base.Delta{Type: base.DeltaTypeDone, Provider: s.provider, Model: s.model}, nil
}

func (s *anthStaticStream) Close() error { s.closed = true; return nil }

func toAnthParams(req *base.ChatRequest, cfg Config) anth.MessageNewParams {
	msgs := make([]anth.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := anth.MessageParamRoleUser
		if m.Role == "assistant" {
			role = anth.MessageParamRoleAssistant
		}
		msgs = append(msgs, anth.MessageParam{
			Role: role,
			Content: []anth.ContentBlockParamUnion{{
				OfText: &anth.TextBlockParam{Text: m.Content},
			}},
		})
	}
	params := anth.MessageNewParams{
		Messages:  msgs,
		MaxTokens: int64(cfg.MaxTokens),
		Model:     anth.Model(pickModel(req, cfg.Model)),
	}
	if req.SystemPrompt != "" {
		params.System = []anth.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if cfg.Temperature > 0 {
		params.Temperature = anth.Float(cfg.Temperature)
	}
	return params
}

func fromAnthMessage(m *anth.Message) *base.Response {
	if m == nil {
		return &base.Response{Provider: "anthropic"}
	}
	var content string
	for _, c := range m.Content {
		if c.Text != "" {
			content += c.Text
		}
	}
	resp := &base.Response{
		Content:  content,
		Provider: "anthropic",
		Model:    string(m.Model),
	}
	resp.Usage = &base.Usage{
		InputTokens:  int(m.Usage.InputTokens),
		OutputTokens: int(m.Usage.OutputTokens),
		TotalTokens:  int(m.Usage.InputTokens + m.Usage.OutputTokens),
	}
	return resp
}

func pickModel(req *base.ChatRequest, fallback string) string {
	if req != nil && req.Model != "" {
		return req.Model
	}
	return fallback
}
