package incident

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
)

const (
	defaultClassifierTokens = 300
	classifierTemperature   = 0
)

// OpenAIClassifier asks a chat model for a JSON verdict.
type OpenAIClassifier struct {
	client       *openaisdk.Client
	model        string
	systemPrompt string
	maxTokens    int64
}

func NewOpenAIClassifier(client *openaisdk.Client, model, systemPrompt string) (*OpenAIClassifier, error) {
	if client == nil {
		return nil, errors.New("openai client is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("classifier model is required")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, contractx.ErrPromptMissing
	}
	return &OpenAIClassifier{
		client:       client,
		model:        strings.TrimSpace(model),
		systemPrompt: systemPrompt,
		maxTokens:    defaultClassifierTokens,
	}, nil
}

func (c *OpenAIClassifier) Classify(ctx context.Context, inc *Incident) (Classification, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(c.systemPrompt),
			openaisdk.UserMessage(describe(inc)),
		},
		MaxCompletionTokens: param.NewOpt(c.maxTokens),
		Temperature:         param.NewOpt(float64(classifierTemperature)),
		ResponseFormat: openaisdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Classification{}, fmt.Errorf("%w: %w", contractx.ErrModelInvoke, err)
	}
	if len(resp.Choices) == 0 {
		return Classification{}, fmt.Errorf("%w: no choices returned", contractx.ErrSchemaViolation)
	}

	var out Classification
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return Classification{}, fmt.Errorf("%w: decode classification: %v", contractx.ErrSchemaViolation, err)
	}
	if strings.TrimSpace(out.Category) == "" {
		return Classification{}, fmt.Errorf("%w: classification has no category", contractx.ErrSchemaViolation)
	}
	return out, nil
}

func describe(inc *Incident) string {
	route := inc.Route
	if route == "" {
		route = "N/A"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Error Type: %s\n", inc.ErrorType)
	fmt.Fprintf(&b, "Surface: %s\n", inc.Surface)
	fmt.Fprintf(&b, "Severity: %s\n", inc.Severity)
	fmt.Fprintf(&b, "Route: %s\n", route)
	fmt.Fprintf(&b, "Occurrences: %d\n", inc.Occurrences)
	fmt.Fprintf(&b, "Message: %s", inc.ErrorMessage)
	return b.String()
}
