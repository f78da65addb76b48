//go:build !anthropicstream
// +build !anthropicstream

package anthropic

import (
	"context"
	"time"

	base "github.com/codevoyager1984/math-agent/llm"
)

// ChatStream provides a fallback implementation using a single Chat call
// and then emitting one text delta followed by done. This build is used
// when true SDK streaming is not enabled.
func (c *Client) ChatStream(ctx context.Context, req *base.ChatRequest) (base.Stream, error) {
	model := pickModel(req, c.cfg.Model)
	c.cfg.Hooks.SafeLLMRequest(ctx, "anthropic", model, map[string]any{"operation": "chat_stream", "fallback": true})
	start := time.Now()
	resp, err := c.Chat(ctx, req)
	if err != nil {
		return nil, err
	}
	c.cfg.Hooks.SafeLLMResponse(ctx, "anthropic", model, time.Since(start), map[string]any{"operation": "chat_stream", "fallback": true, "error": false})
	var text string
	if resp != nil {
		text = resp.Content
	}
	return &anthStaticStream{text: text, provider: "anthropic", model: c.Model()}, nil
}
