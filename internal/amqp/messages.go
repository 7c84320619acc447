package amqp

import (
	"encoding/json"
	"time"

	"wydatki/internal/core"
)

type EventType string

const (
	EventExpenseCreated EventType = "expense.created"
	EventExpenseDeleted EventType = "expense.deleted"
)

// ExpenseEvent is published after a store write succeeded. Deleted events
// carry only the id.
type ExpenseEvent struct {
	Type        EventType  `json:"type"`
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id,omitempty"`
	UserName    string     `json:"user_name,omitempty"`
	Category    string     `json:"category,omitempty"`
	Amount      string     `json:"amount,omitempty"`
	Description string     `json:"description,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
}

// NewExpenseCreatedEvent describes a freshly stored expense
func NewExpenseCreatedEvent(e core.Expense) *ExpenseEvent {
	createdAt := e.CreatedAt
	return &ExpenseEvent{
		Type:        EventExpenseCreated,
		ID:          e.ID,
		UserID:      e.Author.ID,
		UserName:    e.Author.Name,
		Category:    string(e.Category),
		Amount:      e.Amount.String(),
		Description: e.Description,
		CreatedAt:   &createdAt,
		Timestamp:   time.Now(),
	}
}

func NewExpenseDeletedEvent(id int64) *ExpenseEvent {
	return &ExpenseEvent{
		Type:      EventExpenseDeleted,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON creates an event from JSON bytes
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
