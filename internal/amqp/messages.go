package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"expenses/internal/core"
)

// EventType names the change carried by an ExpenseEvent.
type EventType string

const (
	EventExpenseCreated EventType = "expense.created"
	EventExpenseDeleted EventType = "expense.deleted"
)

// ExpenseEvent announces a committed change to an expense.
// Amount and Date travel as text so consumers never see a float.
type ExpenseEvent struct {
	Type        EventType `json:"type"`
	ID          int64     `json:"id"`
	Description string    `json:"description,omitempty"`
	Amount      string    `json:"amount,omitempty"`
	Date        string    `json:"date,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewCreatedEvent builds the event published after an expense is stored.
func NewCreatedEvent(e core.Expense) ExpenseEvent {
	return ExpenseEvent{
		Type:        EventExpenseCreated,
		ID:          e.ID,
		Description: e.Description,
		Amount:      core.FormatAmount(e.Amount),
		Date:        e.Date.String(),
		Timestamp:   time.Now().UTC(),
	}
}

// NewDeletedEvent builds the event published after an expense is removed.
func NewDeletedEvent(id int64) ExpenseEvent {
	return ExpenseEvent{
		Type:      EventExpenseDeleted,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (m ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON decodes and checks an event body.
func ExpenseEventFromJSON(data []byte) (ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return ExpenseEvent{}, err
	}
	switch msg.Type {
	case EventExpenseCreated, EventExpenseDeleted:
	default:
		return ExpenseEvent{}, fmt.Errorf("unknown event type %q", msg.Type)
	}
	if msg.ID <= 0 {
		return ExpenseEvent{}, fmt.Errorf("invalid expense id %d", msg.ID)
	}
	return msg, nil
}
