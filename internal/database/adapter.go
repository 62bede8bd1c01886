package database

import (
	"context"

	"gator-forum/internal/models"

	"github.com/google/uuid"
)

// DeleteBatchSize bounds the number of documents removed per transaction.
const DeleteBatchSize = 80

// DocKind names a collection for batched deletes.
type DocKind string

const (
	UserDoc      DocKind = "user"
	SubredditDoc DocKind = "subreddit"
	PostDoc      DocKind = "post"
	CommentDoc   DocKind = "comment"
	ReportDoc    DocKind = "report"
)

// DocRef addresses one document in one collection.
type DocRef struct {
	Kind DocKind
	ID   uuid.UUID
}

// PostSort selects feed ordering.
type PostSort int

const (
	SortNewest        PostSort = iota // createdAt desc
	SortMostCommented                 // commentCount desc, then createdAt desc
)

// PostQuery filters and orders posts. Zero values mean "any".
type PostQuery struct {
	SubredditID uuid.UUID
	AuthorIDs   []uuid.UUID
	Sort        PostSort
	Page        models.Page
}

// ReportFilter selects reports. Zero values mean "any".
type ReportFilter struct {
	SubredditID uuid.UUID
	PostIDs     []uuid.UUID
	CommentIDs  []uuid.UUID
	Status      models.ReportStatus
}

// DBAdapter is the document store used by the engine and the feed composer.
type DBAdapter interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error

	// Users
	ResolveUser(ctx context.Context, candidate *models.User) (*models.User, bool, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	FollowUser(ctx context.Context, followerID, followeeID uuid.UUID) error
	UnfollowUser(ctx context.Context, followerID, followeeID uuid.UUID) error

	// Subreddits
	CreateSubreddit(ctx context.Context, sub *models.Subreddit) error
	GetSubredditByID(ctx context.Context, id uuid.UUID) (*models.Subreddit, error)
	GetSubredditByName(ctx context.Context, name string) (*models.Subreddit, error)
	ListSubreddits(ctx context.Context) ([]*models.Subreddit, error)
	AddSubredditMember(ctx context.Context, subredditID, userID uuid.UUID) error
	RemoveSubredditMember(ctx context.Context, subredditID, userID uuid.UUID) error

	// Posts
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error)
	ListPosts(ctx context.Context, query PostQuery) ([]*models.Post, error)
	ListPostIDs(ctx context.Context, subredditID uuid.UUID) ([]uuid.UUID, error)
	IncrementCommentCount(ctx context.Context, postID uuid.UUID, delta int) error

	// Comments
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	ListComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error)
	ListCommentIDs(ctx context.Context, postIDs []uuid.UUID) ([]uuid.UUID, error)

	// Votes
	GetVotes(ctx context.Context, target models.ContentRef) (models.Votes, error)
	ApplyVote(ctx context.Context, target models.ContentRef, voterID uuid.UUID, from, to models.VoteState) (models.Votes, error)

	// Reports
	CreateReport(ctx context.Context, report *models.Report) error
	GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]*models.Report, error)
	UpdateReport(ctx context.Context, id uuid.UUID, status models.ReportStatus, notes string) (*models.Report, error)

	// Search
	SearchPosts(ctx context.Context, term string, limit int) ([]*models.Post, error)
	SearchSubreddits(ctx context.Context, term string, limit int) ([]*models.Subreddit, error)

	// DeleteDocuments removes every referenced document in one transaction.
	DeleteDocuments(ctx context.Context, refs []DocRef) error
}

// DeleteInBatches removes refs in order, DeleteBatchSize per transaction.
func DeleteInBatches(ctx context.Context, db DBAdapter, refs []DocRef) error {
	for _, batch := range models.Chunk(refs, DeleteBatchSize) {
		if err := db.DeleteDocuments(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

func idsToStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func stringsToIDs(raw []string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		if id, err := uuid.Parse(s); err == nil {
			out = append(out, id)
		}
	}
	return out
}
