package queries

import (
	"context"
	"fmt"
	"sort"

	"photogram_services/src/datastore"
	m "photogram_services/src/models"
)

// DefaultNotificationLimit caps how many notifications one read returns.
const DefaultNotificationLimit = 25

func decodeNotification(doc datastore.Document) m.Notification {
	return m.Notification{
		NotificationID: doc.ID,
		ReceiverID:     docString(doc, "receiverId"),
		SenderID:       docString(doc, "senderId"),
		SenderUsername: docString(doc, "senderUsername"),
		Type:           docString(doc, "notificationType"),
		PhotoID:        docString(doc, "photoId"),
		Seen:           docBool(doc, "seen"),
		ReceivedAt:     docTime(doc, "receivedAt"),
	}
}

func encodeNotification(notification m.Notification) map[string]interface{} {
	return map[string]interface{}{
		"receiverId":       notification.ReceiverID,
		"senderId":         notification.SenderID,
		"senderUsername":   notification.SenderUsername,
		"notificationType": notification.Type,
		"photoId":          notification.PhotoID,
		"seen":             notification.Seen,
		"receivedAt":       notification.ReceivedAt,
	}
}

// AddNotification records an engagement event for later delivery to the
// receiver's notification tray.
func AddNotification(ctx context.Context, store datastore.Store, notification m.Notification) (datastore.DocID, error) {
	id, err := store.Insert(ctx, datastore.Notifications, encodeNotification(notification))
	if err != nil {
		return "", fmt.Errorf("add notification for %v: %w", notification.ReceiverID, err)
	}
	return id, nil
}

// GetNotificationsByUserID returns the user's notifications, newest first.
// Like the photo reads, the window is capped before sorting.
func GetNotificationsByUserID(ctx context.Context, store datastore.Store, userID string, limit int) ([]m.Notification, error) {
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}
	docs, err := store.Query(ctx, datastore.Notifications, datastore.Query{
		Filters: []datastore.Filter{{Field: "receiverId", Op: datastore.OpEqual, Value: userID}},
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("notifications for %v: %w", userID, err)
	}

	notifications := make([]m.Notification, 0, len(docs))
	for _, doc := range docs {
		notifications = append(notifications, decodeNotification(doc))
	}
	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].ReceivedAt.After(notifications[j].ReceivedAt)
	})
	return notifications, nil
}

// MarkNotificationSeen flags one of the user's notifications as read. The
// notification must belong to userID; anything else reports
// datastore.ErrNotFound so a receiver cannot clear another user's tray.
func MarkNotificationSeen(ctx context.Context, store datastore.Store, userID string, notificationID datastore.DocID) error {
	doc, err := store.Get(ctx, datastore.Notifications, notificationID)
	if err != nil {
		return fmt.Errorf("notification lookup %v: %w", notificationID, err)
	}
	if docString(doc, "receiverId") != userID {
		return fmt.Errorf("notification %v for %v: %w", notificationID, userID, datastore.ErrNotFound)
	}

	op := datastore.FieldOp{Field: "seen", Kind: datastore.OpSet, Value: true}
	if err := store.Update(ctx, datastore.Notifications, notificationID, []datastore.FieldOp{op}); err != nil {
		return fmt.Errorf("mark notification seen %v: %w", notificationID, err)
	}
	return nil
}
