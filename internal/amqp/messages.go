package amqp

import (
	"encoding/json"
	"time"
)

// EntryMirrorMessage asks the worker to mirror one stored entry to the
// external journal. It carries only the ID; the worker fetches the full
// row from storage so the queue never holds monetary data.
type EntryMirrorMessage struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntryMirrorMessage(id int64) *EntryMirrorMessage {
	return &EntryMirrorMessage{
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *EntryMirrorMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EntryMirrorMessageFromJSON(data []byte) (*EntryMirrorMessage, error) {
	var msg EntryMirrorMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
