package escalation

import (
	"time"

	"github.com/uptrace/bun"
)

const StatusOpen = "OPEN"

type Ticket struct {
	bun.BaseModel `bun:"table:escalation_tickets,alias:et"`

	ID             string    `bun:"id,pk"`
	StoreID        string    `bun:"store_id,notnull"`
	ConversationID string    `bun:"conversation_id,notnull"`
	Trigger        Trigger   `bun:"trigger,notnull"`
	Priority       Priority  `bun:"priority,notnull"`
	Category       Category  `bun:"category,notnull"`
	Status         string    `bun:"status,notnull"`
	Subject        string    `bun:"subject,notnull"`
	Summary        string    `bun:"summary"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
}

// HandoffEvent is always written in the same transaction as its Ticket.
type HandoffEvent struct {
	bun.BaseModel `bun:"table:handoff_events,alias:he"`

	ID             string    `bun:"id,pk"`
	TicketID       string    `bun:"ticket_id,notnull,unique"`
	StoreID        string    `bun:"store_id,notnull"`
	ConversationID string    `bun:"conversation_id,notnull"`
	Trigger        Trigger   `bun:"trigger,notnull"`
	AISummary      string    `bun:"ai_summary"`
	Reason         string    `bun:"reason"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
}

// Handoff is the request to move a conversation to a person.
type Handoff struct {
	StoreID        string
	ConversationID string
	Trigger        Trigger
	Reason         string
	AISummary      string
}
