//go:build anthropicstream
// +build anthropicstream

package anthropic

import (
	"context"

	base "github.com/codevoyager1984/math-agent/llm"
)

// ChatStream implements provider-neutral streaming over the official
// SDK event stream.
func (c *Client) ChatStream(ctx context.Context, req *base.ChatRequest) (base.Stream, error) {
	params := toAnthParams(req, c.cfg)
	c.cfg.Hooks.SafeLLMRequest(ctx, "anthropic", string(params.Model), map[string]any{"operation": "chat_stream"})
	s := c.client.Messages.NewStreaming(ctx, params)
	return &anthStreamWrapper{inner: s, model: string(params.Model)}, nil
}
