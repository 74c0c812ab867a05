package domain

import "time"

// PostMediaType distinguishes community uploads.
type PostMediaType string

const (
	PostMediaImage PostMediaType = "image"
	PostMediaVideo PostMediaType = "video"
)

// Post is a shared ad on the community feed.
type Post struct {
	ID           string
	UserID       string
	AuthorName   string
	AuthorAvatar string
	Title        string
	Description  string
	MediaURL     string
	MediaAssetID string
	MediaType    PostMediaType
	Link         string
	Likes        []string
	CreatedAt    time.Time
}

// LikedBy reports whether the user already liked the post.
func (p *Post) LikedBy(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}
