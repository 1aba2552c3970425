package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"

	"photogram_services/src/datastore"
	"photogram_services/src/logger"
	m "photogram_services/src/models"
	"photogram_services/src/queries"
	"photogram_services/src/viewcache"
)

func FeedEndpointHandler(ctx context.Context, store datastore.Store, cache *viewcache.Cache) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
		if !ok {
			logger.Errorf("Failed to get validated claims")
			return
		}

		switch r.Method {
		case http.MethodGet:
			GETAppFeed(w, r, store, cache, claims.RegisteredClaims.Subject)
		}
	})
}

// GETAppFeed assembles the timeline: photos from every followed user, each
// carrying the requesting user's like/save flags and the owner projection.
// An empty following list is an empty feed, not an error; item order is
// whatever the datastore returned.
func GETAppFeed(w http.ResponseWriter, r *http.Request, store datastore.Store, cache *viewcache.Cache, uid string) {
	cacheKey := viewcache.Key("timeline", uid)
	var cached []m.PhotoWithUser
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

	user, err := queries.GetUserByUserID(r.Context(), store, uid)
	if err != nil {
		WriteErrorToWriter(w, "Error: Unable to look up the authenticated user")
		logger.Errorf("Unable to look up the authenticated user: %v", err)
		return
	}
	if user == nil {
		WriteErrorToWriter(w, "Error: User does not exist")
		return
	}

	feed, err := queries.GetFollowedUserPhotos(r.Context(), store, uid, user.Following)
	if err != nil {
		WriteErrorToWriter(w, "Error: Unable to assemble the feed")
		logger.Errorf("Unable to assemble the feed for %v: %v", uid, err)
		return
	}
	cache.Store(r.Context(), cacheKey, feed)

	responseBytes, err := json.MarshalIndent(feed, "", "\t")
	if err != nil {
		logger.Errorf("%v", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(responseBytes)
}
