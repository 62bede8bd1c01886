package models

import (
	"time"

	"github.com/google/uuid"
)

const MaxCommentLength = 10000

type Comment struct {
	ID              uuid.UUID   `json:"id"`
	Text            string      `json:"text"`
	AuthorID        uuid.UUID   `json:"authorId"`
	AuthorUsername  string      `json:"authorUsername"`
	PostID          uuid.UUID   `json:"postId"`
	ParentCommentID *uuid.UUID  `json:"parentCommentId,omitempty"` // nil for root comments
	Upvotes         []uuid.UUID `json:"-"`
	Downvotes       []uuid.UUID `json:"-"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

func (c *Comment) Votes() Votes {
	return Votes{Upvotes: c.Upvotes, Downvotes: c.Downvotes}
}

// CommentNode is a decorated comment with its replies.
type CommentNode struct {
	*Comment
	Score      int            `json:"score"`
	VoteStatus VoteState      `json:"voteStatus"`
	Replies    []*CommentNode `json:"replies"`
}
