package models

import "time"

type Comment struct {
	CommentID string    `json:"comment_id"`
	Username  string    `json:"username"`
	Comment   string    `json:"comment"`
	PostedAt  time.Time `json:"posted_at"`
}

type NewComment struct {
	Comment    string `json:"comment"`
	PhotoDocID string `json:"photo_doc_id"`
}
