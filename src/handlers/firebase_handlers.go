package handlers

import (
	"context"
	"fmt"
	"net/http"

	"firebase.google.com/go/v4/messaging"
	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"

	"photogram_services/src/datastore"
	"photogram_services/src/logger"
	m "photogram_services/src/models"
	"photogram_services/src/queries"
)

func FirebaseEndpointHandler(ctx context.Context, store datastore.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
		if !ok {
			logger.Errorf("Failed to get validated claims")
			return
		}

		switch r.Method {
		case http.MethodPut:
			switch r.URL.Path {
			case "/fcm":
				PUTFirebaseToken(ctx, w, r, store, claims.RegisteredClaims.Subject)
			}
		}
	})
}

// PUTFirebaseToken registers a device token on the user's profile document.
// Registration is a union write, so re-registering the same device is a
// no-op instead of a duplicate.
func PUTFirebaseToken(ctx context.Context, w http.ResponseWriter, r *http.Request, store datastore.Store, uid string) {
	token := r.URL.Query().Get("token")
	if token == "" {
		WriteErrorToWriter(w, "Error: Provide the device token to register")
		return
	}

	mctx, cancel := mutationContext(ctx)
	defer cancel()

	user, err := queries.GetUserByUserID(mctx, store, uid)
	if err != nil {
		WriteErrorToWriter(w, "Error: Unable to look up the authenticated user")
		logger.Errorf("Unable to look up the authenticated user: %v", err)
		return
	}
	if user == nil {
		WriteErrorToWriter(w, "Error: User does not exist")
		return
	}

	if err := queries.AddUserFCMToken(mctx, store, user.DocID, token); err != nil {
		logger.Errorf("Failed to register firebase token: %v", err)
	}

	responseBytes := []byte("updated token - success")

	w.Header().Set("Content-Type", "application/json") // add content length number of bytes
	w.Write(responseBytes)
}

// SendFirebaseMessageToUserID pushes an engagement notification to every
// device the receiver registered. A nil client or a receiver with no tokens
// is a quiet no-op.
func SendFirebaseMessageToUserID(ctx context.Context, store datastore.Store, messagingClient *messaging.Client, notification m.Notification) error {
	if messagingClient == nil {
		return nil
	}

	receiver, err := queries.GetUserByUserID(ctx, store, notification.ReceiverID)
	if err != nil {
		return err
	}
	if receiver == nil || len(receiver.FCMTokens) == 0 {
		return nil
	}

	var title string
	var body string

	switch notification.Type {
	case m.NotificationLike:
		title = "New like"
		body = fmt.Sprintf("%v liked your photo.", notification.SenderUsername)
	case m.NotificationComment:
		title = "New comment"
		body = fmt.Sprintf("%v commented on your photo.", notification.SenderUsername)
	case m.NotificationFollow:
		title = "New follower"
		body = fmt.Sprintf("%v started following you.", notification.SenderUsername)
	}

	fcmNotification := messaging.Notification{
		Title: title,
		Body:  body,
	}

	message := messaging.MulticastMessage{
		Data:         notification.FirebaseToMap(),
		Tokens:       receiver.FCMTokens,
		Notification: &fcmNotification,
	}

	batchResponse, err := messagingClient.SendEachForMulticast(ctx, &message)
	if err != nil {
		return err
	}
	if batchResponse.FailureCount > 0 {
		logger.Warnf("Push to %v failed for %v of %v devices", notification.ReceiverID, batchResponse.FailureCount, len(receiver.FCMTokens))
	}

	return nil
}
