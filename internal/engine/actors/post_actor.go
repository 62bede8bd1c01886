package actors

import (
	"strings"
	"time"
	"unicode/utf8"

	"gator-forum/internal/events"
	"gator-forum/internal/feed"
	"gator-forum/internal/models"
	"gator-forum/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Message types for Post operations
type (
	CreatePostMsg struct {
		Title       string
		Content     string
		ImageURL    string
		LinkURL     string
		PostType    models.PostType
		AuthorID    uuid.UUID
		SubredditID uuid.UUID
	}

	GetPostMsg struct {
		PostID   uuid.UUID
		ViewerID uuid.UUID
	}

	GetFeedMsg struct {
		Request feed.Request
	}

	DeletePostMsg struct {
		PostID      uuid.UUID
		RequesterID uuid.UUID
	}
)

// PostActor handles post creation, deletion and feed reads.
type PostActor struct {
	*Deps
}

func NewPostActor(deps *Deps) actor.Actor {
	return &PostActor{Deps: deps}
}

// Receive handles incoming messages
func (a *PostActor) Receive(context actor.Context) {
	if a.lifecycle("PostActor", context.Message()) {
		return
	}
	switch msg := context.Message().(type) {
	case *CreatePostMsg:
		a.handleCreatePost(context, msg)
	case *GetPostMsg:
		a.handleGetPost(context, msg)
	case *GetFeedMsg:
		a.handleGetFeed(context, msg)
	case *DeletePostMsg:
		a.handleDeletePost(context, msg)
	case *HealthCheckMsg:
		context.Respond(true)
	default:
		a.Logger.Warn("PostActor: unknown message", zap.String("type", typeName(msg)))
	}
}

func validatePost(msg *CreatePostMsg) *utils.AppError {
	title := strings.TrimSpace(msg.Title)
	if title == "" || utf8.RuneCountInString(title) > models.MaxTitleLength {
		return invalidInput("Title must be between 1 and 300 characters")
	}
	if reason := models.ValidatePostBody(msg.PostType, msg.Content, msg.ImageURL, msg.LinkURL); reason != "" {
		return invalidInput(reason)
	}
	return nil
}

func (a *PostActor) handleCreatePost(context actor.Context, msg *CreatePostMsg) {
	startTime := time.Now()
	if appErr := validatePost(msg); appErr != nil {
		a.respond(context, "create_post", startTime, nil, appErr)
		return
	}

	ctx, cancel := a.storeContext()
	defer cancel()

	sub, err := a.DB.GetSubredditByID(ctx, msg.SubredditID)
	if err != nil {
		a.respond(context, "create_post", startTime, nil, err)
		return
	}
	author, err := a.DB.GetUser(ctx, msg.AuthorID)
	if err != nil {
		a.respond(context, "create_post", startTime, nil, err)
		return
	}

	now := time.Now()
	post := &models.Post{
		ID:             uuid.New(),
		Title:          strings.TrimSpace(msg.Title),
		PostType:       msg.PostType,
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		SubredditID:    sub.ID,
		SubredditName:  sub.Name,
		Upvotes:        []uuid.UUID{},
		Downvotes:      []uuid.UUID{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	// only the body selected by the post type is stored
	switch msg.PostType {
	case models.TextPost:
		post.Content = msg.Content
	case models.ImagePost:
		post.ImageURL = msg.ImageURL
	case models.LinkPost:
		post.LinkURL = msg.LinkURL
	}

	if err := a.DB.CreatePost(ctx, post); err != nil {
		a.respond(context, "create_post", startTime, nil, err)
		return
	}

	a.Logger.Info("created post",
		zap.String("postId", post.ID.String()),
		zap.String("subreddit", sub.Name))
	a.publish(events.PostCreated, post.ID.String(), post)
	a.respond(context, "create_post", startTime, models.NewPostView(post, author.ID), nil)
}

func (a *PostActor) handleGetPost(context actor.Context, msg *GetPostMsg) {
	startTime := time.Now()
	ctx, cancel := a.storeContext()
	defer cancel()

	view, err := a.Feeds.Post(ctx, msg.PostID, msg.ViewerID)
	a.respond(context, "get_post", startTime, view, err)
}

func (a *PostActor) handleGetFeed(context actor.Context, msg *GetFeedMsg) {
	startTime := time.Now()
	ctx, cancel := a.storeContext()
	defer cancel()

	posts, err := a.Feeds.Feed(ctx, msg.Request)
	a.respond(context, "get_feed", startTime, posts, err)
}

// handleDeletePost removes a post, its comments and the reports on them.
// Only the author may delete.
func (a *PostActor) handleDeletePost(context actor.Context, msg *DeletePostMsg) {
	startTime := time.Now()
	ctx, cancel := a.storeContext()
	defer cancel()

	post, err := a.DB.GetPost(ctx, msg.PostID)
	if err != nil {
		a.respond(context, "delete_post", startTime, nil, err)
		return
	}
	if post.AuthorID != msg.RequesterID {
		a.respond(context, "delete_post", startTime, nil, forbidden("Only the author can delete this post"))
		return
	}

	plan, err := planPostDeletion(ctx, a.DB, post.ID)
	if err == nil {
		err = plan.execute(ctx, a.DB)
	}
	if err != nil {
		a.respond(context, "delete_post", startTime, nil, utils.NewDatabaseError("Failed to delete post", err))
		return
	}

	summary := plan.summary()
	a.publish(events.PostDeleted, post.ID.String(), summary)
	a.respond(context, "delete_post", startTime, summary, nil)
}
