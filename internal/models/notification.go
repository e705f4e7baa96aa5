// internal/models/notification.go
package models

import "time"

// Notification log statuses.
const (
	NotificationStatusSent = "sent"
)

// NotificationLogEntry is the append-only record of a sent digest.
type NotificationLogEntry struct {
	NotificationID string    `json:"notificationId"`
	ApplicantID    string    `json:"applicantId"`
	Subject        string    `json:"subject"`
	Body           string    `json:"body"`
	Status         string    `json:"status"`
	MessageID      string    `json:"messageId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}
