package models

import (
	"strconv"
	"time"

	"photogram_services/src/datastore"
)

// Engagement types recorded when one user acts on another's content.
const (
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationFollow  = "follow"
)

type Notification struct {
	NotificationID datastore.DocID `json:"notification_id"`
	ReceiverID     string          `json:"receiver_id"` // Content owner
	SenderID       string          `json:"sender_id"`   // Person who is engaging
	SenderUsername string          `json:"sender_username"`
	Type           string          `json:"notification_type"`
	PhotoID        string          `json:"photo_id,omitempty"`
	Seen           bool            `json:"notification_seen"`
	ReceivedAt     time.Time       `json:"received_at"`
}

func (notification Notification) FirebaseToMap() map[string]string {
	return map[string]string{
		"notification_id": string(notification.NotificationID),
		"receiver_id":     notification.ReceiverID,
		"sender_id":       notification.SenderID,
		"sender_username": notification.SenderUsername,
		"type":            notification.Type,
		"photo_id":        notification.PhotoID,
		"seen":            strconv.FormatBool(notification.Seen),
		"received_at":     notification.ReceivedAt.Format(time.RFC3339), // converting time.Time to string
	}
}
