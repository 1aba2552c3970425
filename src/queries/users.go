package queries

import (
	"context"
	"fmt"

	"photogram_services/src/datastore"
	m "photogram_services/src/models"
)

// DefaultSuggestionLimit caps the profile window suggested-profile assembly
// fetches before filtering.
const DefaultSuggestionLimit = 10

func decodeUser(doc datastore.Document) m.User {
	return m.User{
		DocID:        doc.ID,
		UserID:       docString(doc, "userId"),
		Username:     docString(doc, "username"),
		FullName:     docString(doc, "fullName"),
		Email:        docString(doc, "emailAddress"),
		ProfilePhoto: docString(doc, "profilePhoto"),
		Verified:     docBool(doc, "verified"),
		Following:    docStringSlice(doc, "following"),
		Followers:    docStringSlice(doc, "followers"),
		SavedPosts:   docStringSlice(doc, "savedPosts"),
		FCMTokens:    docStringSlice(doc, "fcmTokens"),
		DateCreated:  docTime(doc, "dateCreated"),
	}
}

func encodeUser(user m.User) map[string]interface{} {
	return map[string]interface{}{
		"userId":       user.UserID,
		"username":     user.Username,
		"fullName":     user.FullName,
		"emailAddress": user.Email,
		"profilePhoto": user.ProfilePhoto,
		"verified":     user.Verified,
		"following":    user.Following,
		"followers":    user.Followers,
		"savedPosts":   user.SavedPosts,
		"fcmTokens":    user.FCMTokens,
		"dateCreated":  user.DateCreated,
	}
}

// DoesUserExist reports how many profiles carry the username. Signup treats
// any nonzero count as taken; duplicates that slipped in are still visible
// to the caller rather than collapsed into a bool.
func DoesUserExist(ctx context.Context, store datastore.Store, username string) (int, error) {
	docs, err := store.Query(ctx, datastore.Users, datastore.Query{
		Filters: []datastore.Filter{{Field: "username", Op: datastore.OpEqual, Value: username}},
	})
	if err != nil {
		return 0, fmt.Errorf("username lookup %v: %w", username, err)
	}
	return len(docs), nil
}

// GetUserByUserID resolves the profile for an authentication identifier.
// A missing profile is an absent value, not an error: (nil, nil).
func GetUserByUserID(ctx context.Context, store datastore.Store, userID string) (*m.User, error) {
	docs, err := store.Query(ctx, datastore.Users, datastore.Query{
		Filters: []datastore.Filter{{Field: "userId", Op: datastore.OpEqual, Value: userID}},
	})
	if err != nil {
		return nil, fmt.Errorf("user lookup %v: %w", userID, err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	user := decodeUser(docs[0])
	return &user, nil
}

// GetUserByUsername resolves a profile by its public handle, (nil, nil) when
// no profile carries it.
func GetUserByUsername(ctx context.Context, store datastore.Store, username string) (*m.User, error) {
	docs, err := store.Query(ctx, datastore.Users, datastore.Query{
		Filters: []datastore.Filter{{Field: "username", Op: datastore.OpEqual, Value: username}},
	})
	if err != nil {
		return nil, fmt.Errorf("profile lookup %v: %w", username, err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	user := decodeUser(docs[0])
	return &user, nil
}

// CreateUser stores a new profile document and returns the identifier the
// service assigned to it. Uniqueness of the username is the caller's check;
// nothing here enforces it.
func CreateUser(ctx context.Context, store datastore.Store, user m.User) (datastore.DocID, error) {
	id, err := store.Insert(ctx, datastore.Users, encodeUser(user))
	if err != nil {
		return "", fmt.Errorf("create user %v: %w", user.Username, err)
	}
	return id, nil
}

// ListUsers returns up to limit profiles in service order, every profile
// when limit is zero.
func ListUsers(ctx context.Context, store datastore.Store, limit int) ([]m.User, error) {
	docs, err := store.Query(ctx, datastore.Users, datastore.Query{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]m.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, decodeUser(doc))
	}
	return users, nil
}

// GetSuggestedProfiles returns profiles the user might follow: not their own
// and not already followed. The fetch window is capped at limit before the
// filter runs, so the result can come up short even when eligible profiles
// exist beyond the window.
func GetSuggestedProfiles(ctx context.Context, store datastore.Store, userID string, following []string, limit int) ([]m.User, error) {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	window, err := ListUsers(ctx, store, limit)
	if err != nil {
		return nil, fmt.Errorf("suggested profiles for %v: %w", userID, err)
	}

	profiles := make([]m.User, 0, len(window))
	for _, user := range window {
		if user.UserID == userID || contains(following, user.UserID) {
			continue
		}
		profiles = append(profiles, user)
	}
	return profiles, nil
}

// IsUserFollowingProfile reports whether the profile identified by username
// currently follows the given user.
func IsUserFollowingProfile(ctx context.Context, store datastore.Store, username, profileUserID string) (bool, error) {
	user, err := GetUserByUsername(ctx, store, username)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}
	return contains(user.Following, profileUserID), nil
}

// UpdateUserFollowing toggles targetUserID in the acting user's following
// list. The direction comes from the caller's currentlyFollowing flag, never
// from stored state: true removes, false adds. The acting user's document is
// located by its userId field.
func UpdateUserFollowing(ctx context.Context, store datastore.Store, targetUserID, userID string, currentlyFollowing bool) error {
	docs, err := store.Query(ctx, datastore.Users, datastore.Query{
		Filters: []datastore.Filter{{Field: "userId", Op: datastore.OpEqual, Value: userID}},
	})
	if err != nil {
		return fmt.Errorf("acting user lookup %v: %w", userID, err)
	}
	if len(docs) == 0 {
		return fmt.Errorf("acting user %v: %w", userID, datastore.ErrNotFound)
	}

	op := datastore.FieldOp{Field: "following", Kind: datastore.OpArrayUnion, Value: targetUserID}
	if currentlyFollowing {
		op.Kind = datastore.OpArrayRemove
	}
	if err := store.Update(ctx, datastore.Users, docs[0].ID, []datastore.FieldOp{op}); err != nil {
		return fmt.Errorf("update following for %v: %w", userID, err)
	}
	return nil
}

// UpdateUserFollowers toggles userID in the target profile's followers list.
// Unlike UpdateUserFollowing the target is addressed by document identifier
// directly; the caller already holds it from the profile it rendered.
func UpdateUserFollowers(ctx context.Context, store datastore.Store, targetDocID datastore.DocID, userID string, currentlyFollowing bool) error {
	op := datastore.FieldOp{Field: "followers", Kind: datastore.OpArrayUnion, Value: userID}
	if currentlyFollowing {
		op.Kind = datastore.OpArrayRemove
	}
	if err := store.Update(ctx, datastore.Users, targetDocID, []datastore.FieldOp{op}); err != nil {
		return fmt.Errorf("update followers %v: %w", targetDocID, err)
	}
	return nil
}

// UpdateUserSavedPosts toggles the photo's domain identifier in the user's
// saved list. Pairs with UpdatePostSaved; the two writes are independent and
// a failure between them leaves the pair split until the client retries.
func UpdateUserSavedPosts(ctx context.Context, store datastore.Store, userDocID datastore.DocID, postID string, currentlySaved bool) error {
	op := datastore.FieldOp{Field: "savedPosts", Kind: datastore.OpArrayUnion, Value: postID}
	if currentlySaved {
		op.Kind = datastore.OpArrayRemove
	}
	if err := store.Update(ctx, datastore.Users, userDocID, []datastore.FieldOp{op}); err != nil {
		return fmt.Errorf("update saved posts %v: %w", userDocID, err)
	}
	return nil
}

// AddUserFCMToken registers a device token for push delivery. Union keeps
// re-registration from duplicating tokens.
func AddUserFCMToken(ctx context.Context, store datastore.Store, userDocID datastore.DocID, token string) error {
	op := datastore.FieldOp{Field: "fcmTokens", Kind: datastore.OpArrayUnion, Value: token}
	if err := store.Update(ctx, datastore.Users, userDocID, []datastore.FieldOp{op}); err != nil {
		return fmt.Errorf("add fcm token %v: %w", userDocID, err)
	}
	return nil
}
