package actors

import (
	"strings"
	"time"

	"gator-forum/internal/events"
	"gator-forum/internal/models"
	"gator-forum/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Message types for Subreddit operations
type (
	CreateSubredditMsg struct {
		Name        string
		Description string
		CreatorID   uuid.UUID
	}

	GetSubredditMsg struct {
		Name     string
		ViewerID uuid.UUID
	}

	ListSubredditsMsg struct {
		ViewerID uuid.UUID
	}

	JoinSubredditMsg struct {
		Name   string
		UserID uuid.UUID
	}

	LeaveSubredditMsg struct {
		Name   string
		UserID uuid.UUID
	}

	DeleteSubredditMsg struct {
		SubredditID uuid.UUID
		RequesterID uuid.UUID
	}
)

// DeleteSummary reports how many documents a cascading delete removed.
type DeleteSummary struct {
	Subreddits int `json:"subreddits,omitempty"`
	Posts      int `json:"posts"`
	Comments   int `json:"comments"`
	Reports    int `json:"reports"`
}

func (p *deletionPlan) summary() *DeleteSummary {
	s := &DeleteSummary{Posts: len(p.posts), Comments: len(p.comments), Reports: len(p.reports)}
	if p.subreddit != uuid.Nil {
		s.Subreddits = 1
	}
	return s
}

// SubredditActor handles community creation, membership and deletion.
type SubredditActor struct {
	*Deps
}

func NewSubredditActor(deps *Deps) actor.Actor {
	return &SubredditActor{Deps: deps}
}

// Receive handles incoming messages
func (a *SubredditActor) Receive(context actor.Context) {
	if a.lifecycle("SubredditActor", context.Message()) {
		return
	}
	switch msg := context.Message().(type) {
	case *CreateSubredditMsg:
		a.handleCreateSubreddit(context, msg)
	case *GetSubredditMsg:
		a.handleGetSubreddit(context, msg)
	case *ListSubredditsMsg:
		a.handleListSubreddits(context, msg)
	case *JoinSubredditMsg:
		a.handleMembership(context, msg.Name, msg.UserID, true)
	case *LeaveSubredditMsg:
		a.handleMembership(context, msg.Name, msg.UserID, false)
	case *DeleteSubredditMsg:
		a.handleDeleteSubreddit(context, msg)
	case *HealthCheckMsg:
		context.Respond(true)
	default:
		a.Logger.Warn("SubredditActor: unknown message", zap.String("type", typeName(msg)))
	}
}

func (a *SubredditActor) handleCreateSubreddit(context actor.Context, msg *CreateSubredditMsg) {
	startTime := time.Now()

	displayName := strings.TrimSpace(msg.Name)
	name := models.NormalizeSubredditName(msg.Name)
	if !models.ValidSubredditName(name) {
		a.respond(context, "create_subreddit", startTime, nil,
			invalidInput("Community names must be 3-21 characters of letters, numbers or underscores"))
		return
	}

	now := time.Now()
	sub := &models.Subreddit{
		ID:          uuid.New(),
		Name:        name,
		DisplayName: displayName,
		Description: strings.TrimSpace(msg.Description),
		CreatorID:   msg.CreatorID,
		Members:     []uuid.UUID{msg.CreatorID},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx, cancel := a.storeContext()
	defer cancel()
	if err := a.DB.CreateSubreddit(ctx, sub); err != nil {
		a.respond(context, "create_subreddit", startTime, nil, err)
		return
	}

	a.Logger.Info("created subreddit", zap.String("subreddit", sub.Name), zap.String("creatorId", sub.CreatorID.String()))
	a.publish(events.SubredditCreated, sub.ID.String(), sub)
	a.respond(context, "create_subreddit", startTime, sub, nil)
}

func details(sub *models.Subreddit, viewer uuid.UUID) *models.SubredditDetails {
	return &models.SubredditDetails{
		Subreddit:   sub,
		MemberCount: sub.MemberCount(),
		IsMember:    viewer != uuid.Nil && sub.IsMember(viewer),
		CanDelete:   viewer != uuid.Nil && sub.CreatorID == viewer,
	}
}

func (a *SubredditActor) handleGetSubreddit(context actor.Context, msg *GetSubredditMsg) {
	startTime := time.Now()
	ctx, cancel := a.storeContext()
	defer cancel()

	sub, err := a.DB.GetSubredditByName(ctx, msg.Name)
	if err != nil {
		a.respond(context, "get_subreddit", startTime, nil, err)
		return
	}
	a.respond(context, "get_subreddit", startTime, details(sub, msg.ViewerID), nil)
}

func (a *SubredditActor) handleListSubreddits(context actor.Context, msg *ListSubredditsMsg) {
	startTime := time.Now()
	ctx, cancel := a.storeContext()
	defer cancel()

	subs, err := a.DB.ListSubreddits(ctx)
	if err != nil {
		a.respond(context, "list_subreddits", startTime, nil, err)
		return
	}
	summaries := make([]models.SubredditSummary, 0, len(subs))
	for _, sub := range subs {
		summaries = append(summaries, sub.Summarize(msg.ViewerID))
	}
	a.respond(context, "list_subreddits", startTime, summaries, nil)
}

func (a *SubredditActor) handleMembership(context actor.Context, name string, userID uuid.UUID, join bool) {
	startTime := time.Now()
	operation, eventType := "leave_subreddit", events.MemberLeft
	if join {
		operation, eventType = "join_subreddit", events.MemberJoined
	}

	ctx, cancel := a.storeContext()
	defer cancel()

	sub, err := a.DB.GetSubredditByName(ctx, name)
	if err != nil {
		a.respond(context, operation, startTime, nil, err)
		return
	}
	if join {
		err = a.DB.AddSubredditMember(ctx, sub.ID, userID)
	} else {
		err = a.DB.RemoveSubredditMember(ctx, sub.ID, userID)
	}
	if err != nil {
		a.respond(context, operation, startTime, nil, err)
		return
	}

	updated, err := a.DB.GetSubredditByID(ctx, sub.ID)
	if err != nil {
		a.respond(context, operation, startTime, nil, err)
		return
	}
	a.publish(eventType, sub.ID.String(), map[string]string{"userId": userID.String()})
	a.respond(context, operation, startTime, details(updated, userID), nil)
}

// handleDeleteSubreddit removes a community with all of its posts, their
// comments and the reports filed against them. Only the creator may delete.
func (a *SubredditActor) handleDeleteSubreddit(context actor.Context, msg *DeleteSubredditMsg) {
	startTime := time.Now()
	ctx, cancel := a.storeContext()
	defer cancel()

	sub, err := a.DB.GetSubredditByID(ctx, msg.SubredditID)
	if err != nil {
		a.respond(context, "delete_subreddit", startTime, nil, err)
		return
	}
	if sub.CreatorID != msg.RequesterID {
		a.respond(context, "delete_subreddit", startTime, nil,
			forbidden("Only the creator can delete this community"))
		return
	}

	plan, err := planSubredditDeletion(ctx, a.DB, sub.ID)
	if err == nil {
		err = plan.execute(ctx, a.DB)
	}
	if err == nil {
		var late *deletionPlan
		if late, err = sweepSubreddit(ctx, a.DB, plan); err == nil && len(late.refs()) > 0 {
			a.Logger.Info("removed content written during delete",
				zap.String("subreddit", sub.Name),
				zap.Int("posts", len(late.posts)),
				zap.Int("comments", len(late.comments)))
			plan.absorb(late)
		}
	}
	if err != nil {
		a.respond(context, "delete_subreddit", startTime, nil,
			utils.NewDatabaseError("Failed to delete community", err))
		return
	}

	summary := plan.summary()
	a.Logger.Info("deleted subreddit",
		zap.String("subreddit", sub.Name),
		zap.Int("posts", summary.Posts),
		zap.Int("comments", summary.Comments),
		zap.Int("reports", summary.Reports))
	a.publish(events.SubredditDeleted, sub.ID.String(), summary)
	a.respond(context, "delete_subreddit", startTime, summary, nil)
}
