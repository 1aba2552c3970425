package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"firebase.google.com/go/v4/messaging"
	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/google/uuid"

	"photogram_services/src/datastore"
	"photogram_services/src/logger"
	m "photogram_services/src/models"
	"photogram_services/src/queries"
	"photogram_services/src/viewcache"
)

func PhotoEndpointHandler(ctx context.Context, store datastore.Store, cache *viewcache.Cache, messagingClient *messaging.Client) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
		if !ok {
			logger.Errorf("Failed to get validated claims")
			return
		}

		switch r.Method {
		case http.MethodGet:
			switch r.URL.Path {
			case "/photos":
				GETUserPhotos(w, r, store, cache)
			}
		case http.MethodPost:
			switch r.URL.Path {
			case "/photo":
				POSTNewPhoto(ctx, w, r, store, cache, claims.RegisteredClaims.Subject)
			case "/photo/like":
				POSTPhotoLike(ctx, w, r, store, cache, messagingClient, claims.RegisteredClaims.Subject, false)
			case "/photo/save":
				POSTPhotoSave(ctx, w, r, store, cache, claims.RegisteredClaims.Subject, false)
			case "/photo/comment":
				POSTNewComment(ctx, w, r, store, cache, messagingClient, claims.RegisteredClaims.Subject)
			}
		case http.MethodDelete:
			switch r.URL.Path {
			case "/photo/like":
				POSTPhotoLike(ctx, w, r, store, cache, messagingClient, claims.RegisteredClaims.Subject, true)
			case "/photo/save":
				POSTPhotoSave(ctx, w, r, store, cache, claims.RegisteredClaims.Subject, true)
			}
		}
	})
}

// GETUserPhotos returns a profile's photo grid, newest first. A missing
// profile answers 404 like the profile page does.
func GETUserPhotos(w http.ResponseWriter, r *http.Request, store datastore.Store, cache *viewcache.Cache) {
	username := r.URL.Query().Get("username")
	if username == "" {
		WriteErrorToWriter(w, "Error: Provide a username to look up")
		return
	}
	limit := queries.DefaultPhotoLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			WriteErrorToWriter(w, "Error: limit must be a number")
			return
		}
		if parsed > 0 {
			limit = parsed
		}
	}

	// One cached grid per window size; a small page cached first must not
	// answer for a larger one requested inside the TTL.
	cacheKey := viewcache.Key("photos", username, strconv.Itoa(limit))
	var cached []m.Photo
	if cache.Lookup(r.Context(), cacheKey, &cached) {
		responseBytes, err := json.MarshalIndent(cached, "", "\t")
		if err != nil {
			logger.Errorf("%v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseBytes)
		return
	}

	user, err := queries.GetUserByUsername(r.Context(), store, username)
	if err != nil {
		WriteErrorToWriter(w, "Error: Unable to look up profile")
		logger.Errorf("Unable to look up profile %v: %v", username, err)
		return
	}
	if user == nil {
		http.Error(w, "profile not found", http.StatusNotFound)
		return
	}

	photos, err := queries.GetPhotosByUserID(r.Context(), store, user.UserID, limit)
	if err != nil {
		WriteErrorToWriter(w, "Error: Unable to query photos")
		logger.Errorf("Unable to query photos for %v: %v", username, err)
		return
	}
	cache.Store(r.Context(), cacheKey, photos)

	responseBytes, err := json.MarshalIndent(photos, "", "\t")
	if err != nil {
		logger.Errorf("%v", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(responseBytes)
}

// POSTNewPhoto stores the metadata document for an uploaded photo. The
// photoId is the client-minted identifier the bytes were uploaded under via
// /upload, so the object path derives from it.
func POSTNewPhoto(ctx context.Context, w http.ResponseWriter, r *http.Request, store datastore.Store, cache *viewcache.Cache, uid string) {
	var newPhoto m.NewPhoto
	err := json.NewDecoder(r.Body).Decode(&newPhoto)
	if err != nil {
		WriteErrorToWriter(w, "Error: Bad New Photo")
		logger.Errorf("Unable to decode new photo: %v", err)
		return
	}

	photoID, err := uuid.Parse(newPhoto.PhotoID)
	if err != nil {
		WriteErrorToWriter(w, "Error: Could not parse photo id from request")
		logger.Errorf("Could not parse photo id from request: %v", err)
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

	photo := m.Photo{
		PhotoID:     photoID.String(),
		UserID:      uid,
		Caption:     newPhoto.Caption,
		ImageSrc:    "photos/" + photoID.String(),
		Likes:       []string{},
		Saved:       []string{},
		Comments:    []m.Comment{},
		DateCreated: time.Now().UTC(),
	}

	docID, err := queries.CreatePhoto(mctx, store, photo)
	if err != nil {
		WriteErrorToWriter(w, "Error: Unable to create photo in datastore")
		logger.Errorf("Unable to create photo in datastore: %v", err)
		return
	}
	photo.DocID = docID

	// The owner's grid and every follower's timeline now render stale.
	cache.Invalidate(mctx, uid, viewcache.Key("photos", actor.Username))
	for _, followerID := range actor.Followers {
		cache.Invalidate(mctx, followerID, viewcache.Key("timeline", followerID))
	}

	responseBytes, err := json.MarshalIndent(photo, "", "\t")
	if err != nil {
		logger.Errorf("%v", err)
		return
	}

	w.Header().Set("Content-Type", "application/json") //add content length number of bytes
	w.Write(responseBytes)
}

// POSTPhotoLike toggles the requesting user in a photo's likes list. POST
// likes, DELETE unlikes; the flag carries the direction downward so the
// toggle never reads before writing.
func POSTPhotoLike(ctx context.Context, w http.ResponseWriter, r *http.Request, store datastore.Store, cache *viewcache.Cache, messagingClient *messaging.Client, uid string, currentlyLiked bool) {
	photoDocID := r.URL.Query().Get("photo_id")
	if photoDocID == "" {
		WriteErrorToWriter(w, "Error: Provide the photo_id to toggle")
		return
	}

	mctx, cancel := mutationContext(ctx)
	defer cancel()

	err := queries.UpdatePostLikes(mctx, store, datastore.DocID(photoDocID), uid, currentlyLiked)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			http.Error(w, "photo not found", http.StatusNotFound)
			return
		}
		WriteErrorToWriter(w, "Error: Photo could not be updated")
		logger.Errorf("Photo %v could not be updated: %v", photoDocID, err)
		return
	}

	cache.Invalidate(mctx, uid, viewcache.Key("timeline", uid))

	if !currentlyLiked {
		notifyPhotoEngagement(mctx, store, cache, messagingClient, datastore.DocID(photoDocID), uid, m.NotificationLike)
	}

	responseJSON, err := json.MarshalIndent(!currentlyLiked, "", "\t")
	if err != nil {
		http.Error(w, "Error encoding JSON", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(responseJSON)
}

// POSTPhotoSave toggles the save marker on both sides: the user in the
// photo's saved list and the photo's domain id in the user's savedPosts.
// The writes are independent documents; a failure between them leaves the
// pair split until the client retries. Saves stay private, so no
// notification is recorded.
func POSTPhotoSave(ctx context.Context, w http.ResponseWriter, r *http.Request, store datastore.Store, cache *viewcache.Cache, uid string, currentlySaved bool) {
	photoDocID := r.URL.Query().Get("photo_id")
	if photoDocID == "" {
		WriteErrorToWriter(w, "Error: Provide the photo_id to toggle")
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

	photo, err := queries.GetPhotoByDocID(mctx, store, datastore.DocID(photoDocID))
	if err != nil {
		WriteErrorToWriter(w, "Error: Unable to look up the photo")
		logger.Errorf("Unable to look up photo %v: %v", photoDocID, err)
		return
	}
	if photo == nil {
		http.Error(w, "photo not found", http.StatusNotFound)
		return
	}

	if err := queries.UpdatePostSaved(mctx, store, photo.DocID, uid, currentlySaved); err != nil {
		WriteErrorToWriter(w, "Error: Photo could not be updated")
		logger.Errorf("Photo %v could not be updated: %v", photoDocID, err)
		return
	}
	if err := queries.UpdateUserSavedPosts(mctx, store, actor.DocID, photo.PhotoID, currentlySaved); err != nil {
		WriteErrorToWriter(w, "Error: Saved posts could not be updated")
		logger.Errorf("Saved posts for %v could not be updated: %v", uid, err)
		return
	}

	cache.Invalidate(mctx, uid, viewcache.Key("timeline", uid))

	responseJSON, err := json.MarshalIndent(!currentlySaved, "", "\t")
	if err != nil {
		http.Error(w, "Error encoding JSON", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(responseJSON)
}

// POSTNewComment appends a comment to a photo. Every comment is minted its
// own commentId, so the same user posting the same text twice stays two
// records in the stored array.
func POSTNewComment(ctx context.Context, w http.ResponseWriter, r *http.Request, store datastore.Store, cache *viewcache.Cache, messagingClient *messaging.Client, uid string) {
	var newComment m.NewComment
	err := json.NewDecoder(r.Body).Decode(&newComment)
	if err != nil {
		WriteErrorToWriter(w, "Error: Bad Comment")
		logger.Errorf("Unable to decode new comment: %v", err)
		return
	}
	if newComment.Comment == "" || newComment.PhotoDocID == "" {
		WriteErrorToWriter(w, "Error: Provide a comment and the photo_doc_id it belongs to")
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

	comment := m.Comment{
		CommentID: uuid.NewString(),
		Username:  actor.Username,
		Comment:   newComment.Comment,
		PostedAt:  time.Now().UTC(),
	}

	err = queries.AddPostComment(mctx, store, datastore.DocID(newComment.PhotoDocID), comment)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			http.Error(w, "photo not found", http.StatusNotFound)
			return
		}
		WriteErrorToWriter(w, "Error: Couldn't post comment")
		logger.Errorf("Couldn't post comment on %v: %v", newComment.PhotoDocID, err)
		return
	}

	cache.Invalidate(mctx, uid, viewcache.Key("timeline", uid))
	notifyPhotoEngagement(mctx, store, cache, messagingClient, datastore.DocID(newComment.PhotoDocID), uid, m.NotificationComment)

	responseJSON, err := json.Marshal(comment)
	if err != nil {
		http.Error(w, "Error encoding JSON", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(responseJSON)
}

// notifyPhotoEngagement records and fans out the notification for a like or
// comment. Self-engagement never notifies. Failures here are logged only;
// the engagement itself already committed.
func notifyPhotoEngagement(ctx context.Context, store datastore.Store, cache *viewcache.Cache, messagingClient *messaging.Client, photoDocID datastore.DocID, uid string, notificationType string) {
	photo, err := queries.GetPhotoByDocID(ctx, store, photoDocID)
	if err != nil || photo == nil {
		logger.Errorf("Could not load photo %v for notification: %v", photoDocID, err)
		return
	}
	if photo.UserID == uid {
		return
	}

	actor, err := queries.GetUserByUserID(ctx, store, uid)
	if err != nil || actor == nil {
		logger.Errorf("Could not load engager %v for notification: %v", uid, err)
		return
	}

	notification := m.Notification{
		ReceiverID:     photo.UserID,
		SenderID:       uid,
		SenderUsername: actor.Username,
		Type:           notificationType,
		PhotoID:        photo.PhotoID,
		ReceivedAt:     time.Now().UTC(),
	}
	notificationID, err := queries.AddNotification(ctx, store, notification)
	if err != nil {
		logger.Errorf("Could not record %v notification for %v: %v", notificationType, photo.UserID, err)
	} else {
		notification.NotificationID = notificationID
	}

	payload := WebSocketPayload{
		Operation: `ADD`,
		Type:      notificationType,
		UserID:    photo.UserID,
		Payload:   notification,
	}

	// Send payload to WebSocket
	if err := cache.Publish(ctx, viewcache.EventsChannel, payload); err != nil {
		logger.Errorf("%v", err)
	}

	if err := SendFirebaseMessageToUserID(ctx, store, messagingClient, notification); err != nil {
		logger.Errorf("Could not push %v notification to %v: %v", notificationType, photo.UserID, err)
	}
}
