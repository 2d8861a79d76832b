package outbox

import (
	"encoding/json"
	"time"
)

// ActorRef identifies who produced the event.
type ActorRef struct {
	UserID   string `json:"userId,omitempty"`
	UserName string `json:"userName,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// NewActorRef returns nil when neither field is known.
func NewActorRef(userID, userName *string) *ActorRef {
	if userID == nil && userName == nil {
		return nil
	}
	ref := &ActorRef{}
	if userID != nil {
		ref.UserID = *userID
	}
	if userName != nil {
		ref.UserName = *userName
	}
	return ref
}
