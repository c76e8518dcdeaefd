package orchestratornode

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
)

var (
	ErrInvalidStore   = errors.New("store id is empty")
	ErrInvalidHistory = errors.New("message history is empty")
	ErrInvalidMessage = errors.New("last buyer message is empty")
)

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	storeID := strings.TrimSpace(in.StoreID)
	if storeID == "" {
		return nil, fmt.Errorf("%w: %w", contractx.ErrValidation, ErrInvalidStore)
	}

	history := make([]*schema.Message, 0, len(in.History))
	for _, m := range in.History {
		if m != nil {
			history = append(history, m)
		}
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: %w", contractx.ErrValidation, ErrInvalidHistory)
	}

	last := history[len(history)-1]
	text := strings.TrimSpace(last.Content)
	if last.Role != schema.User || text == "" {
		return nil, fmt.Errorf("%w: %w", contractx.ErrValidation, ErrInvalidMessage)
	}

	channel := in.Options.Channel
	if channel == "" {
		channel = contractx.ChannelMerchant
	}
	confidence := defaultConfidence
	if in.Options.Confidence != nil {
		confidence = *in.Options.Confidence
	}
	sentiment := defaultSentiment
	if in.Options.Sentiment != nil {
		sentiment = *in.Options.Sentiment
	}

	return &GraphState{
		StoreID:        storeID,
		ConversationID: strings.TrimSpace(in.Options.ConversationID),
		RequestID:      strings.TrimSpace(in.Options.RequestID),
		Channel:        channel,
		History:        history,
		LastText:       text,
		Confidence:     confidence,
		Sentiment:      sentiment,
		Started:        nowFn().UTC(),
	}, nil
}
