package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the type of event (created, updated, deleted...)
type EventType string

const (
	EventTypeCreated EventType = "created"
	EventTypeUpdated EventType = "updated"
	EventTypeDeleted EventType = "deleted"
	EventTypeJoined  EventType = "joined"
	EventTypeLeft    EventType = "left"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeWorkspace EntityType = "workspace"
	EntityTypeChallenge EntityType = "challenge"
	EntityTypeActivity  EntityType = "activity"
	EntityTypeMember    EntityType = "member"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "challenge.created"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "challenge"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ChallengeCreated creates a challenge.created event
func ChallengeCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeChallenge, payload)
}

// ChallengeUpdated creates a challenge.updated event
func ChallengeUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeChallenge, payload)
}

// ChallengeDeleted creates a challenge.deleted event
func ChallengeDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeChallenge, payload)
}

// ActivityCreated creates an activity.created event
func ActivityCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeActivity, payload)
}

// MemberJoined creates a member.joined event
func MemberJoined(payload interface{}) Event {
	return NewEvent(EventTypeJoined, EntityTypeMember, payload)
}

// MemberLeft creates a member.left event
func MemberLeft(payload interface{}) Event {
	return NewEvent(EventTypeLeft, EntityTypeMember, payload)
}
