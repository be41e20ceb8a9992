package realtime

import (
	"fmt"
	"time"
)

const (
	EventBookingCreated     = "booking-created"
	EventBookingUpdated     = "booking-updated"
	EventBookingCancelled   = "booking-cancelled"
	EventSuggestionAccepted = "booking-suggestion-accepted"
	EventSuggestionRejected = "booking-suggestion-rejected"
	EventMessageCreated     = "message-created"

	channelPrefix  = "events:"
	channelPattern = channelPrefix + "*"
)

// Event is what both delivery paths carry. UserIDs are the recipients;
// SubjectID and Status make up the dedup identity.
type Event struct {
	ID        string    `json:"id"`
	Name      string    `json:"event"`
	SubjectID uint      `json:"subject_id"`
	Status    string    `json:"status,omitempty"`
	UserIDs   []uint    `json:"user_ids"`
	Data      any       `json:"data,omitempty"`
	SentAt    time.Time `json:"sent_at"`
}

func UserRoom(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}
