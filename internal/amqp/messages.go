package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"painel/internal/core"
)

// LoanEventKind is the routing key of a loan event.
type LoanEventKind string

const (
	LoanCreated   LoanEventKind = "loan.created"
	LoanCancelled LoanEventKind = "loan.cancelled"
)

// ErrInvalidEvent wraps every decode or validation failure of an event.
var ErrInvalidEvent = errors.New("invalid loan event")

// LoanEvent announces a successful loan mutation. It carries ids only; the
// worker fetches the loan itself.
type LoanEvent struct {
	ID        string        `json:"id"`
	Kind      LoanEventKind `json:"kind"`
	LoanID    core.ID       `json:"loan_id"`
	ClientID  core.ID       `json:"client_id,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewLoanEvent stamps a new event with a random id and the current time.
func NewLoanEvent(kind LoanEventKind, loanID, clientID core.ID) *LoanEvent {
	return &LoanEvent{
		ID:        uuid.NewString(),
		Kind:      kind,
		LoanID:    loanID,
		ClientID:  clientID,
		Timestamp: time.Now().UTC(),
	}
}

func (m *LoanEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LoanEventFromJSON decodes and checks an event body.
func LoanEventFromJSON(data []byte) (*LoanEvent, error) {
	var msg LoanEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	switch msg.Kind {
	case LoanCreated, LoanCancelled:
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, msg.Kind)
	}
	if msg.LoanID == "" {
		return nil, fmt.Errorf("%w: missing loan id", ErrInvalidEvent)
	}
	return &msg, nil
}
