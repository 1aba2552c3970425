package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"

	"photogram_services/src/datastore"
	"photogram_services/src/logger"
	"photogram_services/src/queries"
)

func NotificationsEndpointHandler(ctx context.Context, store datastore.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
		if !ok {
			logger.Errorf("Failed to get validated claims")
			return
		}

		switch r.Method {
		case http.MethodGet:
			GETExistingNotifications(w, r, store, claims.RegisteredClaims.Subject)
		case http.MethodPatch:
			switch r.URL.Path {
			case "/notifications/seen":
				PATCHMarkNotificationSeen(ctx, w, r, store, claims.RegisteredClaims.Subject)
			}
		}
	})
}

// GETExistingNotifications returns the user's tray, newest first. The live
// stream arrives on the websocket; this read backfills history after a
// reconnect or a fresh login.
func GETExistingNotifications(w http.ResponseWriter, r *http.Request, store datastore.Store, uid string) {
	notifications, err := queries.GetNotificationsByUserID(r.Context(), store, uid, 0)
	if err != nil {
		WriteErrorToWriter(w, "Error: Unable to query notifications")
		logger.Errorf("Unable to query notifications for %v: %v", uid, err)
		return
	}

	responseBytes, err := json.MarshalIndent(notifications, "", "\t")
	if err != nil {
		logger.Errorf("%v", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(responseBytes)
}

func PATCHMarkNotificationSeen(ctx context.Context, w http.ResponseWriter, r *http.Request, store datastore.Store, uid string) {
	notificationID := r.URL.Query().Get("id")
	if notificationID == "" {
		WriteErrorToWriter(w, "Error: Provide the notification id to mark")
		return
	}

	mctx, cancel := mutationContext(ctx)
	defer cancel()

	err := queries.MarkNotificationSeen(mctx, store, uid, datastore.DocID(notificationID))
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			http.Error(w, "notification not found", http.StatusNotFound)
			return
		}
		WriteErrorToWriter(w, "Error: Couldn't update notification to seen")
		logger.Errorf("Couldn't update notification %v to seen: %v", notificationID, err)
		return
	}

	//Respond to the calling user that the action was successful
	responseBytes, err := json.MarshalIndent("Notification was marked as seen", "", "\t")
	if err != nil {
		logger.Errorf("%v", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(responseBytes)
}
