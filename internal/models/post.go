package models

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

type PostType string

const (
	TextPost  PostType = "text"
	ImagePost PostType = "image"
	LinkPost  PostType = "link"
)

const MaxTitleLength = 300

type Post struct {
	ID             uuid.UUID   `json:"id"`
	Title          string      `json:"title"`
	Content        string      `json:"content,omitempty"`
	ImageURL       string      `json:"imageUrl,omitempty"`
	LinkURL        string      `json:"linkUrl,omitempty"`
	PostType       PostType    `json:"postType"`
	AuthorID       uuid.UUID   `json:"authorId"`
	AuthorUsername string      `json:"authorUsername"`
	SubredditID    uuid.UUID   `json:"subredditId"`
	SubredditName  string      `json:"subredditName"`
	Upvotes        []uuid.UUID `json:"-"`
	Downvotes      []uuid.UUID `json:"-"`
	CommentCount   int         `json:"commentCount"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

func (p *Post) Votes() Votes {
	return Votes{Upvotes: p.Upvotes, Downvotes: p.Downvotes}
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ValidatePostBody checks that the body field selected by postType is present
// and well formed. It returns a human-readable reason or "".
func ValidatePostBody(postType PostType, content, imageURL, linkURL string) string {
	switch postType {
	case TextPost:
		if strings.TrimSpace(content) == "" {
			return "Text posts require content"
		}
	case ImagePost:
		if !isHTTPURL(imageURL) {
			return "Image posts require a valid image URL"
		}
	case LinkPost:
		if !isHTTPURL(linkURL) {
			return "Link posts require a valid URL"
		}
	default:
		return "Post type must be text, image or link"
	}
	return ""
}

// PostView is a post decorated for a particular viewer.
type PostView struct {
	*Post
	Score         int       `json:"score"`
	UpvoteCount   int       `json:"upvotes"`
	DownvoteCount int       `json:"downvotes"`
	VoteStatus    VoteState `json:"voteStatus"`
}

// NewPostView decorates a post; viewer may be uuid.Nil.
func NewPostView(p *Post, viewer uuid.UUID) *PostView {
	votes := p.Votes()
	view := &PostView{
		Post:          p,
		Score:         votes.Score(),
		UpvoteCount:   len(p.Upvotes),
		DownvoteCount: len(p.Downvotes),
	}
	if viewer != uuid.Nil {
		view.VoteStatus = votes.StateOf(viewer)
	}
	return view
}
