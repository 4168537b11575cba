package webhook

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Event is an upstream push notification.
type Event struct {
	OwnerID        int64          `json:"owner_id" validate:"required"`
	ObjectType     string         `json:"object_type" validate:"required,oneof=activity athlete"`
	ObjectID       int64          `json:"object_id" validate:"required"`
	AspectType     string         `json:"aspect_type" validate:"required,oneof=create update delete"`
	Updates        map[string]any `json:"updates" validate:"required"`
	EventTime      int64          `json:"event_time"`
	SubscriptionID int64          `json:"subscription_id"`
}

// ParseEvent decodes and validates a delivery body.
func ParseEvent(body []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if err := validate.Struct(e); err != nil {
		return Event{}, fmt.Errorf("invalid event: %w", err)
	}
	return e, nil
}

// TriggersAnnotation reports whether the event announces a new activity.
func (e Event) TriggersAnnotation() bool {
	return e.AspectType == "create" && e.ObjectType == "activity"
}

// Deauthorizes reports whether the athlete revoked access.
func (e Event) Deauthorizes() bool {
	v, ok := e.Updates["authorized"]
	if !ok {
		return false
	}
	return fmt.Sprint(v) == "false"
}
