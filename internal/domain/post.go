package domain

import "time"

// Post is a single post as returned by the source account.
type Post struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ParsedPun is a post's text split into its setup and punchline.
type ParsedPun struct {
	Setup     string `json:"setup"`
	Punchline string `json:"punchline"`
}

// ArchivedPun describes a post that was written to the document.
type ArchivedPun struct {
	Post  Post      `json:"post"`
	Pun   ParsedPun `json:"pun"`
	Date  string    `json:"date"`
	Entry string    `json:"entry"`
}

// Watermark is the persisted boundary between archived and new posts.
// An empty LastSeenID means nothing was archived yet; a zero LastRunDate
// means the archiver never ran.
type Watermark struct {
	LastSeenID  string
	LastRunDate time.Time
}
