package storage

import (
	"time"

	"github.com/google/uuid"
)

// Event is one conversation turn: the caller's message, the reply and the
// tier that produced it. Events are appended in chronological order.
type Event struct {
	ID                string    `json:"id"`
	Timestamp         time.Time `json:"timestamp"`
	UserID            int64     `json:"user_id"`
	Persona           string    `json:"persona"`
	Tier              string    `json:"tier"`
	UserMessage       string    `json:"user_message"`
	AssistantResponse string    `json:"assistant_response"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(userID int64, persona, tier, message, response string) Event {
	return Event{
		ID:                uuid.NewString(),
		Timestamp:         time.Now().UTC(),
		UserID:            userID,
		Persona:           persona,
		Tier:              tier,
		UserMessage:       message,
		AssistantResponse: response,
	}
}

// Recorder abstracts persistence of conversation events.
// LoadInteractions returns events in chronological order.
// Implementations must be safe for concurrent use.
type Recorder interface {
	AppendInteraction(event Event) error
	LoadInteractions() ([]Event, error)
}
