package domain

import (
	"time"
)

// Snippet is addressed externally only by UUID. The sequential row id stays
// internal; the UUID doubles as the sharing capability.
type Snippet struct {
	ID         int64     `json:"-"`
	UUID       string    `json:"uuid"`
	Title      string    `json:"title"`
	Code       string    `json:"code"`
	AuthorID   int64     `json:"-"`
	AuthorName string    `json:"author_name,omitempty"`
	IsPublic   bool      `json:"is_public"`
	CreatedAt  time.Time `json:"created_at"`
}

type SnippetCreateParams struct {
	Title    string
	Code     string
	IsPublic bool
}

type SnippetUpdateParams struct {
	Title    string
	Code     string
	IsPublic bool
}
