package amqp

import (
	"encoding/json"
	"time"
)

// EntrySyncMessage asks the worker to push one locally stored ledger entry
// to the spreadsheet. It carries only the row id; the worker fetches the
// full entry from the database.
type EntrySyncMessage struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntrySyncMessage(id int64) *EntrySyncMessage {
	return &EntrySyncMessage{
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *EntrySyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EntrySyncMessageFromJSON(data []byte) (*EntrySyncMessage, error) {
	var msg EntrySyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
