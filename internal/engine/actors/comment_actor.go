package actors

import (
	"strings"
	"time"
	"unicode/utf8"

	"gator-forum/internal/events"
	"gator-forum/internal/models"
	"gator-forum/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Message types for CommentActor
type (
	CreateCommentMsg struct {
		Text     string
		AuthorID uuid.UUID
		PostID   uuid.UUID
		ParentID *uuid.UUID
	}

	DeleteCommentMsg struct {
		CommentID   uuid.UUID
		RequesterID uuid.UUID
	}

	GetCommentsForPostMsg struct {
		PostID   uuid.UUID
		ViewerID uuid.UUID
	}
)

// CommentActor manages comment operations
type CommentActor struct {
	*Deps
}

func NewCommentActor(deps *Deps) actor.Actor {
	return &CommentActor{Deps: deps}
}

func (a *CommentActor) Receive(context actor.Context) {
	if a.lifecycle("CommentActor", context.Message()) {
		return
	}
	switch msg := context.Message().(type) {
	case *CreateCommentMsg:
		a.handleCreateComment(context, msg)
	case *DeleteCommentMsg:
		a.handleDeleteComment(context, msg)
	case *GetCommentsForPostMsg:
		a.handleGetComments(context, msg)
	case *HealthCheckMsg:
		context.Respond(true)
	default:
		a.Logger.Warn("CommentActor: unknown message", zap.String("type", typeName(msg)))
	}
}

func (a *CommentActor) handleCreateComment(context actor.Context, msg *CreateCommentMsg) {
	startTime := time.Now()

	text := strings.TrimSpace(msg.Text)
	if text == "" || utf8.RuneCountInString(text) > models.MaxCommentLength {
		a.respond(context, "create_comment", startTime, nil,
			invalidInput("Comment text must be between 1 and 10000 characters"))
		return
	}

	ctx, cancel := a.storeContext()
	defer cancel()

	post, err := a.DB.GetPost(ctx, msg.PostID)
	if err != nil {
		a.respond(context, "create_comment", startTime, nil, err)
		return
	}

	if msg.ParentID != nil {
		parent, err := a.DB.GetComment(ctx, *msg.ParentID)
		if err != nil {
			a.respond(context, "create_comment", startTime, nil, err)
			return
		}
		if parent.PostID != post.ID {
			a.respond(context, "create_comment", startTime, nil,
				invalidInput("Parent comment belongs to a different post"))
			return
		}
	}

	author, err := a.DB.GetUser(ctx, msg.AuthorID)
	if err != nil {
		a.respond(context, "create_comment", startTime, nil, err)
		return
	}

	now := time.Now()
	comment := &models.Comment{
		ID:              uuid.New(),
		Text:            text,
		AuthorID:        author.ID,
		AuthorUsername:  author.Username,
		PostID:          post.ID,
		ParentCommentID: msg.ParentID,
		Upvotes:         []uuid.UUID{},
		Downvotes:       []uuid.UUID{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := a.DB.CreateComment(ctx, comment); err != nil {
		a.respond(context, "create_comment", startTime, nil, err)
		return
	}
	if err := a.DB.IncrementCommentCount(ctx, post.ID, 1); err != nil {
		a.Logger.Warn("failed to increment comment count", zap.String("postId", post.ID.String()), zap.Error(err))
	}

	a.publish(events.CommentCreated, post.ID.String(), comment)
	a.respond(context, "create_comment", startTime, &models.CommentNode{
		Comment: comment,
		Replies: []*models.CommentNode{},
	}, nil)
}

// handleDeleteComment removes a comment with all of its replies. Only the
// author may delete.
func (a *CommentActor) handleDeleteComment(context actor.Context, msg *DeleteCommentMsg) {
	startTime := time.Now()
	ctx, cancel := a.storeContext()
	defer cancel()

	comment, err := a.DB.GetComment(ctx, msg.CommentID)
	if err != nil {
		a.respond(context, "delete_comment", startTime, nil, err)
		return
	}
	if comment.AuthorID != msg.RequesterID {
		a.respond(context, "delete_comment", startTime, nil, forbidden("Only the author can delete this comment"))
		return
	}

	plan, err := planCommentDeletion(ctx, a.DB, comment)
	if err == nil {
		err = plan.execute(ctx, a.DB)
	}
	if err != nil {
		a.respond(context, "delete_comment", startTime, nil, utils.NewDatabaseError("Failed to delete comment", err))
		return
	}
	if err := a.DB.IncrementCommentCount(ctx, comment.PostID, -len(plan.comments)); err != nil && !utils.IsNotFound(err) {
		a.Logger.Warn("failed to decrement comment count", zap.String("postId", comment.PostID.String()), zap.Error(err))
	}

	summary := plan.summary()
	a.publish(events.CommentDeleted, comment.PostID.String(), map[string]any{
		"commentId": comment.ID.String(),
		"removed":   summary.Comments,
	})
	a.respond(context, "delete_comment", startTime, summary, nil)
}

func (a *CommentActor) handleGetComments(context actor.Context, msg *GetCommentsForPostMsg) {
	startTime := time.Now()
	ctx, cancel := a.storeContext()
	defer cancel()

	tree, err := a.Feeds.Comments(ctx, msg.PostID, msg.ViewerID)
	a.respond(context, "get_comments", startTime, tree, err)
}
