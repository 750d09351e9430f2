package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"budgetlite/internal/ledger"

	"github.com/google/uuid"
)

// LedgerChangeMessage carries one committed ledger mutation to peer instances.
// Source identifies the publishing instance so it can skip its own events.
type LedgerChangeMessage struct {
	Source    uuid.UUID          `json:"source"`
	Event     ledger.ChangeEvent `json:"event"`
	Timestamp time.Time          `json:"timestamp"`
}

// NewLedgerChangeMessage wraps ev for publishing.
func NewLedgerChangeMessage(source uuid.UUID, ev ledger.ChangeEvent) *LedgerChangeMessage {
	return &LedgerChangeMessage{
		Source:    source,
		Event:     ev,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangeMessageFromJSON decodes a message and checks it names an entity.
func LedgerChangeMessageFromJSON(data []byte) (*LedgerChangeMessage, error) {
	var msg LedgerChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Event.Kind == "" || msg.Event.Entity == "" {
		return nil, errors.New("ledger change message without kind or entity")
	}
	return &msg, nil
}
