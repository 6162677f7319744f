package amqp

import (
	"encoding/json"
	"time"
)

const (
	RunCreated = "created"
	RunDeleted = "deleted"
)

// RunChangedMessage tells the derive worker that the run log changed.
// It carries only the run ID and the action; the worker reloads the full
// log from the database before re-deriving.
type RunChangedMessage struct {
	RunID     int64     `json:"run_id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRunChangedMessage(runID int64, action string) *RunChangedMessage {
	return &RunChangedMessage{
		RunID:     runID,
		Action:    action,
		Timestamp: time.Now(),
	}
}

func (m *RunChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RunChangedMessageFromJSON(data []byte) (*RunChangedMessage, error) {
	var msg RunChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
