package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
	"github.com/tanpawarit/merchant-sales-agent/agent/redact"
)

const DefaultCallTimeout = 15 * time.Second

// Reply is one model completion with its token usage.
type Reply struct {
	Message      *schema.Message
	Model        string
	InputTokens  int
	OutputTokens int
	Latency      time.Duration
}

// Caller is the only path from the pipeline to the provider. Every outbound
// message is redacted and every call is bounded by the timeout.
type Caller struct {
	provider  Provider
	sanitizer *redact.Sanitizer
	timeout   time.Duration
}

type CallerOption func(*Caller)

func WithTimeout(d time.Duration) CallerOption {
	return func(c *Caller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithSanitizer(s *redact.Sanitizer) CallerOption {
	return func(c *Caller) {
		if s != nil {
			c.sanitizer = s
		}
	}
}

func NewCaller(provider Provider, opts ...CallerOption) *Caller {
	c := &Caller{
		provider:  provider,
		sanitizer: redact.Default,
		timeout:   DefaultCallTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Generate runs one completion on the channel's model with tools bound when
// given. Errors wrap ErrChannelDisabled, ErrModelInvoke or ErrSchemaViolation.
func (c *Caller) Generate(ctx context.Context, channel contractx.Channel, msgs []*schema.Message, tools []*schema.ToolInfo, opts ...model.Option) (*Reply, error) {
	if c == nil || c.provider == nil {
		return nil, fmt.Errorf("%w: no model provider", contractx.ErrChannelDisabled)
	}

	chat, name, err := c.provider.ChatModel(ctx, channel)
	if err != nil {
		if errors.Is(err, contractx.ErrChannelDisabled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: build model: %v", contractx.ErrModelInvoke, err)
	}
	if len(tools) > 0 {
		chat, err = chat.WithTools(tools)
		if err != nil {
			return nil, fmt.Errorf("%w: bind tools: %v", contractx.ErrModelInvoke, err)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	out, err := chat.Generate(callCtx, c.Sanitize(msgs), opts...)
	latency := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", contractx.ErrModelInvoke, err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: empty completion", contractx.ErrSchemaViolation)
	}

	reply := &Reply{Message: out, Model: name, Latency: latency}
	if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		reply.InputTokens = out.ResponseMeta.Usage.PromptTokens
		reply.OutputTokens = out.ResponseMeta.Usage.CompletionTokens
	}
	return reply, nil
}

// Sanitize returns copies of msgs with PII redacted from their text content.
// Tool call arguments are redacted too since they echo buyer input.
func (c *Caller) Sanitize(msgs []*schema.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		cp := *m
		cp.Content = c.sanitizer.Redact(m.Content)
		if len(m.ToolCalls) > 0 {
			cp.ToolCalls = make([]schema.ToolCall, len(m.ToolCalls))
			for i, tc := range m.ToolCalls {
				tc.Function.Arguments = c.sanitizer.Redact(tc.Function.Arguments)
				cp.ToolCalls[i] = tc
			}
		}
		out = append(out, &cp)
	}
	return out
}
