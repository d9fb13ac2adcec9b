package amqp

import (
	"encoding/json"
	"time"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
)

// TransactionEventMessage announces a created or updated transaction.
// It carries only ids; the worker fetches the full record from storage.
type TransactionEventMessage struct {
	TransactionID string    `json:"transaction_id"`
	OwnerID       string    `json:"owner_id"`
	Action        string    `json:"action"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionEventMessage creates an event for the given transaction.
func NewTransactionEventMessage(transactionID, ownerID, action string) *TransactionEventMessage {
	return &TransactionEventMessage{
		TransactionID: transactionID,
		OwnerID:       ownerID,
		Action:        action,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventMessageFromJSON creates a message from JSON bytes
func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
