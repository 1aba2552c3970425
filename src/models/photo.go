package models

import (
	"time"

	"photogram_services/src/datastore"
)

type Photo struct {
	DocID       datastore.DocID `json:"doc_id"`
	PhotoID     string          `json:"photo_id"`
	UserID      string          `json:"user_id"`
	Caption     string          `json:"caption"`
	ImageSrc    string          `json:"image_src"`
	Likes       []string        `json:"likes"`
	Saved       []string        `json:"saved"`
	Comments    []Comment       `json:"comments"`
	DateCreated time.Time       `json:"date_created"`
}

// PhotoOwner is the trimmed profile projection attached to every feed item.
type PhotoOwner struct {
	DocID        datastore.DocID `json:"doc_id"`
	Username     string          `json:"username"`
	ProfilePhoto string          `json:"profile_photo"`
	Verified     bool            `json:"verified"`
}

// PhotoWithUser is a feed item: the photo, flags derived for the requesting
// user, and the owner projection.
type PhotoWithUser struct {
	Photo
	UserLikedPhoto bool       `json:"user_liked_photo"`
	UserSavedPhoto bool       `json:"user_saved_photo"`
	Owner          PhotoOwner `json:"owner"`
}

type NewPhoto struct {
	PhotoID string `json:"photo_id"`
	Caption string `json:"caption"`
}
