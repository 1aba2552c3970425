package queries

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"photogram_services/src/datastore"
	m "photogram_services/src/models"
)

// DefaultPhotoLimit caps how many of a profile's photos one read returns.
const DefaultPhotoLimit = 25

func decodeComment(raw map[string]interface{}) m.Comment {
	doc := datastore.Document{Data: raw}
	return m.Comment{
		CommentID: docString(doc, "commentId"),
		Username:  docString(doc, "username"),
		Comment:   docString(doc, "comment"),
		PostedAt:  docTime(doc, "postedAt"),
	}
}

func commentToDoc(comment m.Comment) map[string]interface{} {
	return map[string]interface{}{
		"commentId": comment.CommentID,
		"username":  comment.Username,
		"comment":   comment.Comment,
		"postedAt":  comment.PostedAt,
	}
}

func decodePhoto(doc datastore.Document) m.Photo {
	photo := m.Photo{
		DocID:       doc.ID,
		PhotoID:     docString(doc, "photoId"),
		UserID:      docString(doc, "userId"),
		Caption:     docString(doc, "caption"),
		ImageSrc:    docString(doc, "imageSrc"),
		Likes:       docStringSlice(doc, "likes"),
		Saved:       docStringSlice(doc, "saved"),
		Comments:    []m.Comment{},
		DateCreated: docTime(doc, "dateCreated"),
	}
	if arr, ok := doc.Data["comments"].([]interface{}); ok {
		for _, elem := range arr {
			if raw, ok := elem.(map[string]interface{}); ok {
				photo.Comments = append(photo.Comments, decodeComment(raw))
			}
		}
	}
	return photo
}

func encodePhoto(photo m.Photo) map[string]interface{} {
	comments := make([]map[string]interface{}, 0, len(photo.Comments))
	for _, comment := range photo.Comments {
		comments = append(comments, commentToDoc(comment))
	}
	return map[string]interface{}{
		"photoId":     photo.PhotoID,
		"userId":      photo.UserID,
		"caption":     photo.Caption,
		"imageSrc":    photo.ImageSrc,
		"likes":       photo.Likes,
		"saved":       photo.Saved,
		"comments":    comments,
		"dateCreated": photo.DateCreated,
	}
}

// CreatePhoto stores a new photo document and returns its assigned
// identifier.
func CreatePhoto(ctx context.Context, store datastore.Store, photo m.Photo) (datastore.DocID, error) {
	id, err := store.Insert(ctx, datastore.Photos, encodePhoto(photo))
	if err != nil {
		return "", fmt.Errorf("create photo %v: %w", photo.PhotoID, err)
	}
	return id, nil
}

// GetPhotoByDocID loads one photo by its document identifier, (nil, nil)
// when nothing is stored there.
func GetPhotoByDocID(ctx context.Context, store datastore.Store, docID datastore.DocID) (*m.Photo, error) {
	doc, err := store.Get(ctx, datastore.Photos, docID)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("photo lookup %v: %w", docID, err)
	}
	photo := decodePhoto(doc)
	return &photo, nil
}

// GetPhotosByUserID returns a profile's photos, newest first. The service
// caps the fetch before any ordering applies, so with more photos than limit
// the kept window is arbitrary; the sort below orders whatever came back.
func GetPhotosByUserID(ctx context.Context, store datastore.Store, userID string, limit int) ([]m.Photo, error) {
	if limit <= 0 {
		limit = DefaultPhotoLimit
	}
	docs, err := store.Query(ctx, datastore.Photos, datastore.Query{
		Filters: []datastore.Filter{{Field: "userId", Op: datastore.OpEqual, Value: userID}},
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("photos for %v: %w", userID, err)
	}

	photos := make([]m.Photo, 0, len(docs))
	for _, doc := range docs {
		photos = append(photos, decodePhoto(doc))
	}
	sort.Slice(photos, func(i, j int) bool {
		return photos[i].DateCreated.After(photos[j].DateCreated)
	})
	return photos, nil
}

// GetFollowedUserPhotos assembles the timeline: every photo owned by a
// followed user, each annotated with whether the requesting user liked or
// saved it and with the owner's trimmed profile. Owner profiles are looked
// up per photo with a per-call memo, so each distinct owner costs one read.
// Order is service-determined.
func GetFollowedUserPhotos(ctx context.Context, store datastore.Store, userID string, following []string) ([]m.PhotoWithUser, error) {
	feed := []m.PhotoWithUser{}
	if len(following) == 0 {
		return feed, nil
	}

	docs, err := store.Query(ctx, datastore.Photos, datastore.Query{
		Filters: []datastore.Filter{{Field: "userId", Op: datastore.OpIn, Value: following}},
	})
	if err != nil {
		return nil, fmt.Errorf("followed photos for %v: %w", userID, err)
	}

	owners := make(map[string]m.PhotoOwner)
	for _, doc := range docs {
		photo := decodePhoto(doc)
		item := m.PhotoWithUser{
			Photo:          photo,
			UserLikedPhoto: contains(photo.Likes, userID),
			UserSavedPhoto: contains(photo.Saved, userID),
		}

		owner, seen := owners[photo.UserID]
		if !seen {
			user, err := GetUserByUserID(ctx, store, photo.UserID)
			if err != nil {
				return nil, err
			}
			if user != nil {
				owner = m.PhotoOwner{
					DocID:        user.DocID,
					Username:     user.Username,
					ProfilePhoto: user.ProfilePhoto,
					Verified:     user.Verified,
				}
			}
			owners[photo.UserID] = owner
		}
		item.Owner = owner
		feed = append(feed, item)
	}
	return feed, nil
}

// UpdatePostLikes toggles the user in the photo's likes list. Direction
// comes from the caller's currentlyLiked flag: true removes, false adds.
func UpdatePostLikes(ctx context.Context, store datastore.Store, postDocID datastore.DocID, userID string, currentlyLiked bool) error {
	op := datastore.FieldOp{Field: "likes", Kind: datastore.OpArrayUnion, Value: userID}
	if currentlyLiked {
		op.Kind = datastore.OpArrayRemove
	}
	if err := store.Update(ctx, datastore.Photos, postDocID, []datastore.FieldOp{op}); err != nil {
		return fmt.Errorf("update likes %v: %w", postDocID, err)
	}
	return nil
}

// UpdatePostSaved toggles the user in the photo's saved list. Pairs with
// UpdateUserSavedPosts on the user document.
func UpdatePostSaved(ctx context.Context, store datastore.Store, postDocID datastore.DocID, userID string, currentlySaved bool) error {
	op := datastore.FieldOp{Field: "saved", Kind: datastore.OpArrayUnion, Value: userID}
	if currentlySaved {
		op.Kind = datastore.OpArrayRemove
	}
	if err := store.Update(ctx, datastore.Photos, postDocID, []datastore.FieldOp{op}); err != nil {
		return fmt.Errorf("update saved %v: %w", postDocID, err)
	}
	return nil
}

// AddPostComment appends one comment record to the photo. Append is a union
// write, so the commentId minted per comment is what keeps two identical
// texts from the same user from collapsing into one element.
func AddPostComment(ctx context.Context, store datastore.Store, postDocID datastore.DocID, comment m.Comment) error {
	op := datastore.FieldOp{Field: "comments", Kind: datastore.OpArrayUnion, Value: commentToDoc(comment)}
	if err := store.Update(ctx, datastore.Photos, postDocID, []datastore.FieldOp{op}); err != nil {
		return fmt.Errorf("add comment %v: %w", postDocID, err)
	}
	return nil
}
