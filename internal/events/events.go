package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types, also used as AMQP routing keys
const (
	LoanApplied            = "loan.applied"
	LoanApproved           = "loan.approved"
	LoanRejected           = "loan.rejected"
	LoanCompleted          = "loan.completed"
	InstallmentPaymentMade = "installment.payment_recorded"
	InstallmentsOverdue    = "installments.overdue"
)

// Event is the envelope published for every committed state change
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// New wraps data in an envelope stamped with a fresh id and time
func New(eventType string, data any) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// ToJSON encodes the envelope
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events to interested consumers
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
