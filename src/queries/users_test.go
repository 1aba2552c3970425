package queries_test

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"photogram_services/src/datastore"
	m "photogram_services/src/models"
	"photogram_services/src/queries"
)

func getTestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func fakeUser() m.User {
	return m.User{
		UserID:      uuid.NewString(),
		Username:    gofakeit.Username(),
		FullName:    gofakeit.Name(),
		Email:       gofakeit.Email(),
		Following:   []string{},
		Followers:   []string{},
		SavedPosts:  []string{},
		FCMTokens:   []string{},
		DateCreated: time.Now().UTC(),
	}
}

func seedUser(ctx context.Context, t *testing.T, store datastore.Store, user m.User) m.User {
	t.Helper()
	docID, err := queries.CreateUser(ctx, store, user)
	require.NoError(t, err)
	user.DocID = docID
	return user
}

func TestDoesUserExist(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	store := datastore.NewMemory()

	user := fakeUser()
	count, err := queries.DoesUserExist(ctx, store, user.Username)
	require.NoError(t, err)
	require.Equal(t, 0, count)

	seedUser(ctx, t, store, user)

	count, err = queries.DoesUserExist(ctx, store, user.Username)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestGetUserByUserID(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	store := datastore.NewMemory()

	missing, err := queries.GetUserByUserID(ctx, store, "no-such-user")
	require.NoError(t, err)
	require.Nil(t, missing)

	seeded := fakeUser()
	seeded.Following = []string{"u2", "u3"}
	seeded = seedUser(ctx, t, store, seeded)

	user, err := queries.GetUserByUserID(ctx, store, seeded.UserID)
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Equal(t, seeded.DocID, user.DocID)
	require.Equal(t, seeded.Username, user.Username)
	require.Equal(t, seeded.FullName, user.FullName)
	require.Equal(t, seeded.Email, user.Email)
	require.Equal(t, []string{"u2", "u3"}, user.Following)
	require.Empty(t, user.Followers)
}

func TestGetUserByUsername(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	store := datastore.NewMemory()

	missing, err := queries.GetUserByUsername(ctx, store, "nobody")
	require.NoError(t, err)
	require.Nil(t, missing)

	seeded := seedUser(ctx, t, store, fakeUser())

	user, err := queries.GetUserByUsername(ctx, store, seeded.Username)
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Equal(t, seeded.UserID, user.UserID)
}

func TestGetSuggestedProfiles(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	store := datastore.NewMemory()

	followed := seedUser(ctx, t, store, fakeUser())
	eligible1 := seedUser(ctx, t, store, fakeUser())
	eligible2 := seedUser(ctx, t, store, fakeUser())

	self := fakeUser()
	self.Following = []string{followed.UserID}
	self = seedUser(ctx, t, store, self)

	profiles, err := queries.GetSuggestedProfiles(ctx, store, self.UserID, self.Following, 10)
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	suggested := map[string]bool{}
	for _, profile := range profiles {
		suggested[profile.UserID] = true
	}
	require.True(t, suggested[eligible1.UserID])
	require.True(t, suggested[eligible2.UserID])
	require.False(t, suggested[self.UserID])
	require.False(t, suggested[followed.UserID])
}

func TestGetSuggestedProfilesWindowCapsBeforeFiltering(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	store := datastore.NewMemory()

	for i := 0; i < 6; i++ {
		seedUser(ctx, t, store, fakeUser())
	}
	self := seedUser(ctx, t, store, fakeUser())

	// The fetch window is capped before the filter runs, so the result can
	// only shrink from there.
	profiles, err := queries.GetSuggestedProfiles(ctx, store, self.UserID, nil, 3)
	require.NoError(t, err)
	require.LessOrEqual(t, len(profiles), 3)
}

func TestFollowToggleUpdatesBothLists(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	store := datastore.NewMemory()

	// Setup: two users, neither following the other.
	actor := seedUser(ctx, t, store, fakeUser())
	target := seedUser(ctx, t, store, fakeUser())

	// Act: actor follows target.
	require.NoError(t, queries.UpdateUserFollowing(ctx, store, target.UserID, actor.UserID, false))
	require.NoError(t, queries.UpdateUserFollowers(ctx, store, target.DocID, actor.UserID, false))

	// Assert: both sides of the graph updated.
	actorNow, err := queries.GetUserByUserID(ctx, store, actor.UserID)
	require.NoError(t, err)
	require.Equal(t, []string{target.UserID}, actorNow.Following)

	targetNow, err := queries.GetUserByUserID(ctx, store, target.UserID)
	require.NoError(t, err)
	require.Equal(t, []string{actor.UserID}, targetNow.Followers)

	// Act: the same follow lands twice; union keeps one entry.
	require.NoError(t, queries.UpdateUserFollowing(ctx, store, target.UserID, actor.UserID, false))
	actorNow, err = queries.GetUserByUserID(ctx, store, actor.UserID)
	require.NoError(t, err)
	require.Len(t, actorNow.Following, 1)

	// Act: actor unfollows target.
	require.NoError(t, queries.UpdateUserFollowing(ctx, store, target.UserID, actor.UserID, true))
	require.NoError(t, queries.UpdateUserFollowers(ctx, store, target.DocID, actor.UserID, true))

	actorNow, err = queries.GetUserByUserID(ctx, store, actor.UserID)
	require.NoError(t, err)
	require.Empty(t, actorNow.Following)

	targetNow, err = queries.GetUserByUserID(ctx, store, target.UserID)
	require.NoError(t, err)
	require.Empty(t, targetNow.Followers)
}

func TestUpdateUserFollowingMissingActor(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	store := datastore.NewMemory()

	err := queries.UpdateUserFollowing(ctx, store, "target", "no-such-user", false)
	require.ErrorIs(t, err, datastore.ErrNotFound)
}

func TestIsUserFollowingProfile(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	store := datastore.NewMemory()

	profile := seedUser(ctx, t, store, fakeUser())

	follower := fakeUser()
	follower.Following = []string{profile.UserID}
	follower = seedUser(ctx, t, store, follower)

	following, err := queries.IsUserFollowingProfile(ctx, store, follower.Username, profile.UserID)
	require.NoError(t, err)
	require.True(t, following)

	following, err = queries.IsUserFollowingProfile(ctx, store, profile.Username, follower.UserID)
	require.NoError(t, err)
	require.False(t, following)

	// An unknown username reads as not following, not as an error.
	following, err = queries.IsUserFollowingProfile(ctx, store, "nobody", profile.UserID)
	require.NoError(t, err)
	require.False(t, following)
}

func TestUpdateUserSavedPostsToggle(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	store := datastore.NewMemory()

	user := seedUser(ctx, t, store, fakeUser())
	postID := uuid.NewString()

	require.NoError(t, queries.UpdateUserSavedPosts(ctx, store, user.DocID, postID, false))
	now, err := queries.GetUserByUserID(ctx, store, user.UserID)
	require.NoError(t, err)
	require.Equal(t, []string{postID}, now.SavedPosts)

	require.NoError(t, queries.UpdateUserSavedPosts(ctx, store, user.DocID, postID, true))
	now, err = queries.GetUserByUserID(ctx, store, user.UserID)
	require.NoError(t, err)
	require.Empty(t, now.SavedPosts)
}

func TestAddUserFCMTokenDeduplicates(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	store := datastore.NewMemory()

	user := seedUser(ctx, t, store, fakeUser())
	token := uuid.NewString()

	require.NoError(t, queries.AddUserFCMToken(ctx, store, user.DocID, token))
	require.NoError(t, queries.AddUserFCMToken(ctx, store, user.DocID, token))

	now, err := queries.GetUserByUserID(ctx, store, user.UserID)
	require.NoError(t, err)
	require.Equal(t, []string{token}, now.FCMTokens)
}
