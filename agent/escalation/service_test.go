package escalation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
)

type fakeRepo struct {
	tickets []*Ticket
	events  []*HandoffEvent
	err     error
}

func (r *fakeRepo) CreateHandoff(_ context.Context, ticket *Ticket, event *HandoffEvent) error {
	if r.err != nil {
		return r.err
	}
	r.tickets = append(r.tickets, ticket)
	r.events = append(r.events, event)
	return nil
}

type fakeSink struct {
	got []contractx.Ticket
	err error
}

func (s *fakeSink) CreateTicket(_ context.Context, t contractx.Ticket) error {
	s.got = append(s.got, t)
	return s.err
}

func TestTriggerHandoffScamIsUrgentFraud(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	sink := &fakeSink{}
	svc, err := NewService(repo, sink)
	require.NoError(t, err)

	res := Evaluate("this is a scam", 0.9, 1)
	ticket, err := svc.TriggerHandoff(context.Background(), Handoff{
		StoreID:        "store-1",
		ConversationID: "conv-1",
		Trigger:        res.Trigger,
		Reason:         res.Reason,
	})
	require.NoError(t, err)

	assert.Equal(t, TriggerFraudRisk, ticket.Trigger)
	assert.Equal(t, PriorityUrgent, ticket.Priority)
	assert.Equal(t, CategoryFraud, ticket.Category)
	assert.Equal(t, StatusOpen, ticket.Status)

	require.Len(t, repo.events, 1)
	assert.Equal(t, ticket.ID, repo.events[0].TicketID)
	assert.Equal(t, "Auto-escalated via trigger: FRAUD_RISK.", repo.events[0].AISummary)

	require.Len(t, sink.got, 1)
	assert.Equal(t, "URGENT", sink.got[0].Priority)
	assert.Equal(t, "FRAUD", sink.got[0].Category)
	assert.Equal(t, "OPEN", sink.got[0].Status)
}

func TestTriggerHandoffSinkFailureKeepsTicket(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	svc, err := NewService(repo, &fakeSink{err: errors.New("helpdesk down")})
	require.NoError(t, err)

	ticket, err := svc.TriggerHandoff(context.Background(), Handoff{StoreID: "s", Trigger: TriggerSentiment})
	require.NoError(t, err)
	assert.Equal(t, defaultConversationID, ticket.ConversationID)
	assert.Len(t, repo.tickets, 1)
}

func TestTriggerHandoffRepositoryFailure(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	svc, err := NewService(&fakeRepo{err: errors.New("tx aborted")}, sink)
	require.NoError(t, err)

	_, err = svc.TriggerHandoff(context.Background(), Handoff{StoreID: "s", Trigger: TriggerBillingError})
	require.Error(t, err)
	assert.Empty(t, sink.got)
}

func TestTriggerHandoffValidation(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&fakeRepo{}, nil)
	require.NoError(t, err)

	_, err = svc.TriggerHandoff(context.Background(), Handoff{Trigger: TriggerFraudRisk})
	assert.ErrorIs(t, err, contractx.ErrValidation)

	_, err = svc.TriggerHandoff(context.Background(), Handoff{StoreID: "s"})
	assert.ErrorIs(t, err, contractx.ErrValidation)
}
