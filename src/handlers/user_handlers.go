package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"firebase.google.com/go/v4/messaging"
	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/opensearch-project/opensearch-go"

	"photogram_services/src/datastore"
	"photogram_services/src/inits"
	"photogram_services/src/logger"
	m "photogram_services/src/models"
	"photogram_services/src/queries"
	"photogram_services/src/viewcache"
)

func UserEndpointHandler(ctx context.Context, store datastore.Store, cache *viewcache.Cache, searchClient *opensearch.Client, messagingClient *messaging.Client) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
		if !ok {
			logger.Errorf("Failed to get validated claims")
			return
		}

		switch r.Method {
		case http.MethodGet:
			switch r.URL.Path {
			case "/user":
				GETAuthUserProfile(w, r, store, claims.RegisteredClaims.Subject)
			case "/user/profile":
				GETUserProfile(w, r, store, cache)
			case "/user/suggested":
				GETSuggestedProfiles(w, r, store, cache, claims.RegisteredClaims.Subject)
			case "/user/follow/status":
				GETFollowingStatus(w, r, store)
			}
		case http.MethodPost:
			switch r.URL.Path {
			case "/user":
				POSTNewUser(ctx, w, r, store, cache, searchClient, claims.RegisteredClaims.Subject)
			case "/user/follow":
				POSTToggleFollow(ctx, w, r, store, cache, messagingClient, claims.RegisteredClaims.Subject, false)
			}
		case http.MethodDelete:
			switch r.URL.Path {
			case "/user/follow":
				POSTToggleFollow(ctx, w, r, store, cache, messagingClient, claims.RegisteredClaims.Subject, true)
			}
		}
	})
}

// GETAuthUserProfile returns the authenticated user's own profile, resolved
// from the token subject. Not cached: it is the first read after signup and
// must see the fresh document.
func GETAuthUserProfile(w http.ResponseWriter, r *http.Request, store datastore.Store, uid string) {
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

	responseBytes, err := json.MarshalIndent(user, "", "\t")
	if err != nil {
		logger.Errorf("%v", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(responseBytes)
}

// GETUserProfile serves any profile page by username. A missing profile
// answers 404 so the client can route to its not-found page.
func GETUserProfile(w http.ResponseWriter, r *http.Request, store datastore.Store, cache *viewcache.Cache) {
	username := r.URL.Query().Get("username")
	if username == "" {
		WriteErrorToWriter(w, "Error: Provide a username to look up")
		return
	}

	cacheKey := viewcache.Key("profile", username)
	var cached m.User
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
	cache.Store(r.Context(), cacheKey, user)

	responseBytes, err := json.MarshalIndent(user, "", "\t")
	if err != nil {
		logger.Errorf("%v", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(responseBytes)
}

// GETSuggestedProfiles returns a window of profiles the user is not already
// following. The window is fetched capped and filtered afterward, so fewer
// than the requested number can come back; the sidebar renders what it gets.
func GETSuggestedProfiles(w http.ResponseWriter, r *http.Request, store datastore.Store, cache *viewcache.Cache, uid string) {
	limit := queries.DefaultSuggestionLimit
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

	// The window size shapes the result, so it is part of the key.
	cacheKey := viewcache.Key("suggested", uid, strconv.Itoa(limit))
	var cached []m.User
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

	profiles, err := queries.GetSuggestedProfiles(r.Context(), store, uid, user.Following, limit)
	if err != nil {
		WriteErrorToWriter(w, "Error: Unable to assemble suggested profiles")
		logger.Errorf("Unable to assemble suggested profiles for %v: %v", uid, err)
		return
	}
	cache.Store(r.Context(), cacheKey, profiles)

	responseBytes, err := json.MarshalIndent(profiles, "", "\t")
	if err != nil {
		logger.Errorf("%v", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(responseBytes)
}

// GETFollowingStatus reports whether the profile identified by username
// follows the given user. The profile page uses it to seed its toggle state.
func GETFollowingStatus(w http.ResponseWriter, r *http.Request, store datastore.Store) {
	username := r.URL.Query().Get("username")
	profileUserID := r.URL.Query().Get("user_id")
	if username == "" || profileUserID == "" {
		WriteErrorToWriter(w, "Error: Provide a username and user_id to check")
		return
	}

	following, err := queries.IsUserFollowingProfile(r.Context(), store, username, profileUserID)
	if err != nil {
		WriteErrorToWriter(w, "Error: Unable to check following status")
		logger.Errorf("Unable to check following status for %v: %v", username, err)
		return
	}

	responseBytes, err := json.MarshalIndent(following, "", "\t")
	if err != nil {
		logger.Errorf("%v", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(responseBytes)
}

// POSTNewUser creates the profile document for a newly authenticated user.
// The userId comes from the token subject, never the body. Username
// uniqueness is check-then-write; two racing signups can both pass the
// check, and the count-based existence read keeps duplicates visible.
func POSTNewUser(ctx context.Context, w http.ResponseWriter, r *http.Request, store datastore.Store, cache *viewcache.Cache, searchClient *opensearch.Client, uid string) {
	var newUser m.NewUser
	err := json.NewDecoder(r.Body).Decode(&newUser)
	if err != nil {
		WriteErrorToWriter(w, "Error: Bad New User")
		logger.Errorf("Unable to decode new user: %v", err)
		return
	}
	if newUser.Username == "" {
		WriteErrorToWriter(w, "Error: Provide a username")
		return
	}

	mctx, cancel := mutationContext(ctx)
	defer cancel()

	count, err := queries.DoesUserExist(mctx, store, newUser.Username)
	if err != nil {
		WriteErrorToWriter(w, "Error: Unable to check the username")
		logger.Errorf("Unable to check the username %v: %v", newUser.Username, err)
		return
	}
	if count > 0 {
		w.WriteHeader(http.StatusConflict)
		WriteErrorToWriter(w, "Error: Username is already taken")
		return
	}

	existing, err := queries.GetUserByUserID(mctx, store, uid)
	if err != nil {
		WriteErrorToWriter(w, "Error: Unable to check the authenticated user")
		logger.Errorf("Unable to check the authenticated user: %v", err)
		return
	}
	if existing != nil {
		w.WriteHeader(http.StatusConflict)
		WriteErrorToWriter(w, "Error: User already has a profile")
		return
	}

	user := m.User{
		UserID:      uid,
		Username:    newUser.Username,
		FullName:    newUser.FullName,
		Email:       newUser.Email,
		Following:   []string{},
		Followers:   []string{},
		SavedPosts:  []string{},
		FCMTokens:   []string{},
		DateCreated: time.Now().UTC(),
	}

	docID, err := queries.CreateUser(mctx, store, user)
	if err != nil {
		WriteErrorToWriter(w, "Error: Unable to create the user")
		logger.Errorf("Unable to create user %v: %v", user.Username, err)
		return
	}
	user.DocID = docID

	// Make the new profile findable; search lags rather than failing signup.
	if err := inits.IndexUser(mctx, searchClient, user); err != nil {
		logger.Errorf("Unable to index new profile %v: %v", user.Username, err)
	}

	responseBytes, err := json.MarshalIndent(user, "", "\t")
	if err != nil {
		logger.Errorf("%v", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(responseBytes)
}
