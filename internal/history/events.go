package history

import (
	"encoding/json"
	"time"

	"promptcoach/models"
)

const (
	EventSnapshot = "history"
	EventError    = "error"
)

// Event is what live subscribers receive over the wire
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

// SnapshotPayload carries the owner's full history. Each snapshot replaces
// whatever the client held before.
type SnapshotPayload struct {
	Entries []models.Submission `json:"entries"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// NewEvent creates a new event with timestamp
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		Type:      eventType,
		Payload:   payloadBytes,
		Timestamp: time.Now().Unix(),
	}, nil
}

func NewSnapshot(entries []models.Submission) (*Event, error) {
	if entries == nil {
		entries = []models.Submission{}
	}
	return NewEvent(EventSnapshot, SnapshotPayload{Entries: entries})
}
