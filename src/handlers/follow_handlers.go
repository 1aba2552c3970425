package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"firebase.google.com/go/v4/messaging"

	"photogram_services/src/datastore"
	"photogram_services/src/logger"
	m "photogram_services/src/models"
	"photogram_services/src/queries"
	"photogram_services/src/viewcache"
)

// POSTToggleFollow applies one direction of the follow toggle to both sides
// of the graph. The direction comes from the HTTP verb: POST follows, DELETE
// unfollows; currentlyFollowing carries it down to the update calls. The two
// writes hit independent documents with no transaction; a failure between
// them leaves the lists asymmetric until the client retries the toggle.
func POSTToggleFollow(ctx context.Context, w http.ResponseWriter, r *http.Request, store datastore.Store, cache *viewcache.Cache, messagingClient *messaging.Client, uid string, currentlyFollowing bool) {
	targetUserID := r.URL.Query().Get("user_id")
	targetDocID := r.URL.Query().Get("doc_id")
	if targetUserID == "" || targetDocID == "" {
		WriteErrorToWriter(w, "Error: Provide the user_id and doc_id of the profile to toggle")
		return
	}
	if targetUserID == uid {
		WriteErrorToWriter(w, "Error: Cannot follow yourself")
		return
	}

	mctx, cancel := mutationContext(ctx)
	defer cancel()

	actor, err := queries.GetUserByUserID(mctx, store, uid)
	if err != nil {
		WriteErrorToWriter(w, "Error: Unable to look up the authenticated user")
		logger.Errorf("Unable to look up the authenticated user: %v", err)
		return
	}
	if actor == nil {
		WriteErrorToWriter(w, "Error: User does not exist")
		return
	}
	alreadyFollowing := slices.Contains(actor.Following, targetUserID)

	if err := queries.UpdateUserFollowing(mctx, store, targetUserID, uid, currentlyFollowing); err != nil {
		WriteErrorToWriter(w, "Error: Could not update your following list")
		logger.Errorf("Could not update following for %v: %v", uid, err)
		return
	}
	if err := queries.UpdateUserFollowers(mctx, store, datastore.DocID(targetDocID), uid, currentlyFollowing); err != nil {
		WriteErrorToWriter(w, "Error: Could not update the profile's followers list")
		logger.Errorf("Could not update followers for %v: %v", targetUserID, err)
		return
	}

	// The actor's timeline and suggestions are derived from the following
	// list; both profile pages show counts from the toggled lists.
	staleKeys := []string{
		viewcache.Key("timeline", uid),
		viewcache.Key("suggested", uid),
		viewcache.Key("profile", actor.Username),
	}
	if target, err := queries.GetUserByUserID(mctx, store, targetUserID); err == nil && target != nil {
		staleKeys = append(staleKeys, viewcache.Key("profile", target.Username))
	}
	cache.Invalidate(mctx, uid, staleKeys...)

	// Notify the followed user only when the ADD actually changed the list;
	// a redundant follow is a union no-op on both sides and stays silent,
	// as does unfollowing.
	if !currentlyFollowing && !alreadyFollowing {
		notification := m.Notification{
			ReceiverID:     targetUserID,
			SenderID:       uid,
			SenderUsername: actor.Username,
			Type:           m.NotificationFollow,
			ReceivedAt:     time.Now().UTC(),
		}
		notificationID, err := queries.AddNotification(mctx, store, notification)
		if err != nil {
			logger.Errorf("Could not record follow notification for %v: %v", targetUserID, err)
		} else {
			notification.NotificationID = notificationID
		}

		payload := WebSocketPayload{
			Operation: `ADD`,
			Type:      m.NotificationFollow,
			UserID:    targetUserID,
			Payload:   notification,
		}

		// Send payload to WebSocket
		if err := cache.Publish(mctx, viewcache.EventsChannel, payload); err != nil {
			logger.Errorf("%v", err)
		}

		if err := SendFirebaseMessageToUserID(mctx, store, messagingClient, notification); err != nil {
			logger.Errorf("Could not push follow notification to %v: %v", targetUserID, err)
		}
	}

	responseJSON, err := json.MarshalIndent(!currentlyFollowing, "", "\t")
	if err != nil {
		http.Error(w, "Error encoding JSON", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(responseJSON)
}
