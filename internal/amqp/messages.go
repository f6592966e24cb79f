package amqp

import (
	"encoding/json"
	"time"
)

// Entry kinds carried by LedgerChangedMessage.
const (
	EntryExpense = "expense"
	EntryIncome  = "income"
	EntryBudget  = "budget"
)

// LedgerChangedMessage announces that a profile's ledger was persisted after
// a mutation. It carries no amounts; consumers re-read the ledger if needed.
type LedgerChangedMessage struct {
	Username  string    `json:"username"`
	Operation string    `json:"operation"`
	EntryKind string    `json:"entry_kind"`
	Index     int       `json:"index"` // position of the entry, -1 for budgets
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerChangedMessage creates a message stamped with the current time.
func NewLedgerChangedMessage(username, operation, entryKind string, index int) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Username:  username,
		Operation: operation,
		EntryKind: entryKind,
		Index:     index,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
