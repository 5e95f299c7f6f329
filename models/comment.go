package models

import "time"

// Comment is one persisted record. Email is stored for the notification hook
// and the admin view but is never part of the public listing.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	Author    string    `json:"author"`
	AuthorURL string    `json:"author_url,omitempty"`
	Email     string    `json:"email,omitempty"`
	Body      string    `json:"body"`
	ParentID  string    `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Approved  bool      `json:"approved"`
}

// PublicComment is the shape returned by the public listing API. It carries
// everything from Comment except the email address, plus the human readable
// age computed at read time.
type PublicComment struct {
	ID            string    `json:"id"`
	PostID        string    `json:"post_id"`
	Author        string    `json:"author"`
	AuthorURL     string    `json:"author_url,omitempty"`
	Body          string    `json:"body"`
	ParentID      string    `json:"parent_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	Approved      bool      `json:"approved"`
	TimeFormatted string    `json:"time_formatted"`
}

// Public converts a stored comment into its public shape. timeFormatted is
// supplied by the caller so that listing stays a pure function of created_at
// and "now".
func (c Comment) Public(timeFormatted string) PublicComment {
	return PublicComment{
		ID:            c.ID,
		PostID:        c.PostID,
		Author:        c.Author,
		AuthorURL:     c.AuthorURL,
		Body:          c.Body,
		ParentID:      c.ParentID,
		CreatedAt:     c.CreatedAt,
		Approved:      c.Approved,
		TimeFormatted: timeFormatted,
	}
}
