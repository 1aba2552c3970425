package models

import (
	"time"

	"photogram_services/src/datastore"
)

type User struct {
	DocID        datastore.DocID `json:"doc_id"`
	UserID       string          `json:"user_id"`
	Username     string          `json:"username"`
	FullName     string          `json:"full_name"`
	Email        string          `json:"email_address"`
	ProfilePhoto string          `json:"profile_photo"`
	Verified     bool            `json:"verified"`
	Following    []string        `json:"following"`
	Followers    []string        `json:"followers"`
	SavedPosts   []string        `json:"saved_posts"`
	FCMTokens    []string        `json:"-"`
	DateCreated  time.Time       `json:"date_created"`
}

type NewUser struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email_address"`
}
