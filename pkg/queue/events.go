package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventType string

const (
	EventActionRecorded    EventType = "action_recorded"
	EventImageLikesChanged EventType = "image_likes_changed"
	EventImageDeleted      EventType = "image_deleted"
)

type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

type ActionEventData struct {
	ActionID   uint   `json:"action_id"`
	ActorID    uint   `json:"actor_id"`
	Verb       string `json:"verb"`
	TargetKind string `json:"target_kind,omitempty"`
	TargetID   uint   `json:"target_id,omitempty"`
}

type ImageEventData struct {
	ImageID uint `json:"image_id"`
	UserID  uint `json:"user_id"`
}

// NewEvent builds an event carrying data encoded as JSON.
func NewEvent(eventType EventType, data interface{}) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s event data: %w", eventType, err)
	}
	return Event{Type: eventType, Timestamp: time.Now(), Data: raw}, nil
}

func (e Event) Decode(dest interface{}) error {
	if err := json.Unmarshal(e.Data, dest); err != nil {
		return fmt.Errorf("failed to decode %s event data: %w", e.Type, err)
	}
	return nil
}
