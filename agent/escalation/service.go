package escalation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
)

const defaultConversationID = "manual_handoff"

// Repository writes a ticket and its handoff event atomically.
type Repository interface {
	CreateHandoff(ctx context.Context, ticket *Ticket, event *HandoffEvent) error
}

type Service struct {
	repo Repository
	sink contractx.TicketSink
	now  func() time.Time
}

// NewService builds the handoff service. sink may be nil when no external
// ticketing system is configured.
func NewService(repo Repository, sink contractx.TicketSink) (*Service, error) {
	if repo == nil {
		return nil, errors.New("escalation repository is required")
	}
	return &Service{repo: repo, sink: sink, now: time.Now}, nil
}

func (s *Service) TriggerHandoff(ctx context.Context, h Handoff) (*Ticket, error) {
	storeID := strings.TrimSpace(h.StoreID)
	if storeID == "" {
		return nil, fmt.Errorf("%w: store id is empty", contractx.ErrValidation)
	}
	if h.Trigger == "" {
		return nil, fmt.Errorf("%w: trigger is empty", contractx.ErrValidation)
	}
	conversationID := strings.TrimSpace(h.ConversationID)
	if conversationID == "" {
		conversationID = defaultConversationID
	}

	policy := PolicyFor(h.Trigger)
	now := s.now().UTC()
	summary := h.AISummary
	if summary == "" {
		summary = fmt.Sprintf("Auto-escalated via trigger: %s.", h.Trigger)
	}

	ticket := &Ticket{
		ID:             uuid.NewString(),
		StoreID:        storeID,
		ConversationID: conversationID,
		Trigger:        h.Trigger,
		Priority:       policy.Priority,
		Category:       policy.Category,
		Status:         StatusOpen,
		Subject:        fmt.Sprintf("AI Handoff: %s", h.Trigger),
		Summary:        summary,
		CreatedAt:      now,
	}
	event := &HandoffEvent{
		ID:             uuid.NewString(),
		TicketID:       ticket.ID,
		StoreID:        storeID,
		ConversationID: conversationID,
		Trigger:        h.Trigger,
		AISummary:      summary,
		Reason:         h.Reason,
		CreatedAt:      now,
	}

	if err := s.repo.CreateHandoff(ctx, ticket, event); err != nil {
		return nil, fmt.Errorf("create handoff: %w", err)
	}

	if s.sink != nil {
		err := s.sink.CreateTicket(ctx, contractx.Ticket{
			StoreID:        storeID,
			ConversationID: conversationID,
			Type:           "AI_ESCALATION",
			Category:       string(ticket.Category),
			Priority:       string(ticket.Priority),
			Status:         ticket.Status,
			Subject:        ticket.Subject,
			Summary:        ticket.Summary,
		})
		if err != nil {
			log.Error().
				Err(err).
				Str("store_id", storeID).
				Str("ticket_id", ticket.ID).
				Str("trigger", string(h.Trigger)).
				Msg("forward ticket to sink failed")
		}
	}

	log.Info().
		Str("store_id", storeID).
		Str("ticket_id", ticket.ID).
		Str("trigger", string(h.Trigger)).
		Str("priority", string(ticket.Priority)).
		Msg("conversation handed off")

	return ticket, nil
}
