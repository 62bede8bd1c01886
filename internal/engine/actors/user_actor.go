package actors

import (
	"time"

	"gator-forum/internal/events"
	"gator-forum/internal/models"
	"gator-forum/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Message types for user operations
type (
	// ResolveIdentityMsg maps a verified external identity to its internal
	// user, creating the user on first sight.
	ResolveIdentityMsg struct {
		Identity models.ExternalIdentity
	}

	GetUserMsg struct {
		UserID uuid.UUID
	}

	GetUserProfileMsg struct {
		Username string
		ViewerID uuid.UUID
	}

	FollowUserMsg struct {
		FollowerID uuid.UUID
		Username   string
	}

	UnfollowUserMsg struct {
		FollowerID uuid.UUID
		Username   string
	}
)

// FollowResult is returned by follow and unfollow.
type FollowResult struct {
	UserID        uuid.UUID `json:"userId"`
	Username      string    `json:"username"`
	IsFollowing   bool      `json:"isFollowing"`
	FollowerCount int       `json:"followerCount"`
}

// UserActor owns identity resolution and the follow graph. Resolution runs
// one message at a time, so a process never races itself creating the same
// user; the store's unique index covers other processes.
type UserActor struct {
	*Deps
}

func NewUserActor(deps *Deps) actor.Actor {
	return &UserActor{Deps: deps}
}

func (a *UserActor) Receive(context actor.Context) {
	if a.lifecycle("UserActor", context.Message()) {
		return
	}
	switch msg := context.Message().(type) {
	case *ResolveIdentityMsg:
		a.handleResolveIdentity(context, msg)
	case *GetUserMsg:
		a.handleGetUser(context, msg)
	case *GetUserProfileMsg:
		a.handleGetProfile(context, msg)
	case *FollowUserMsg:
		a.handleFollow(context, msg.FollowerID, msg.Username, true)
	case *UnfollowUserMsg:
		a.handleFollow(context, msg.FollowerID, msg.Username, false)
	case *HealthCheckMsg:
		context.Respond(true)
	default:
		a.Logger.Warn("UserActor: unknown message", zap.String("type", typeName(msg)))
	}
}

func (a *UserActor) handleResolveIdentity(context actor.Context, msg *ResolveIdentityMsg) {
	startTime := time.Now()
	if msg.Identity.ID == "" {
		a.respond(context, "resolve_identity", startTime, nil, utils.NewUnauthorizedError("missing external identity"))
		return
	}

	ctx, cancel := a.storeContext()
	defer cancel()

	candidate := models.NewUserFromIdentity(msg.Identity, time.Now())
	user, created, err := a.DB.ResolveUser(ctx, candidate)
	if err != nil {
		a.respond(context, "resolve_identity", startTime, nil, err)
		return
	}

	if created {
		a.Logger.Info("created user for new identity",
			zap.String("userId", user.ID.String()),
			zap.String("username", user.Username))
		a.publish(events.UserCreated, user.ID.String(), user)
	}
	a.respond(context, "resolve_identity", startTime, user, nil)
}

func (a *UserActor) handleGetUser(context actor.Context, msg *GetUserMsg) {
	startTime := time.Now()
	ctx, cancel := a.storeContext()
	defer cancel()

	user, err := a.DB.GetUser(ctx, msg.UserID)
	a.respond(context, "get_user", startTime, user, err)
}

func (a *UserActor) handleGetProfile(context actor.Context, msg *GetUserProfileMsg) {
	startTime := time.Now()
	ctx, cancel := a.storeContext()
	defer cancel()

	profile, err := a.Feeds.Profile(ctx, msg.Username, msg.ViewerID)
	a.respond(context, "get_profile", startTime, profile, err)
}

// handleFollow applies both sides of a follow or unfollow in one store call.
func (a *UserActor) handleFollow(context actor.Context, followerID uuid.UUID, username string, follow bool) {
	startTime := time.Now()
	operation := "unfollow_user"
	if follow {
		operation = "follow_user"
	}

	ctx, cancel := a.storeContext()
	defer cancel()

	target, err := a.DB.GetUserByUsername(ctx, username)
	if err != nil {
		a.respond(context, operation, startTime, nil, err)
		return
	}
	if target.ID == followerID {
		a.respond(context, operation, startTime, nil, invalidInput("You cannot follow yourself"))
		return
	}

	eventType := events.UserUnfollowed
	if follow {
		eventType = events.UserFollowed
		err = a.DB.FollowUser(ctx, followerID, target.ID)
	} else {
		err = a.DB.UnfollowUser(ctx, followerID, target.ID)
	}
	if err != nil {
		a.respond(context, operation, startTime, nil, err)
		return
	}

	updated, err := a.DB.GetUser(ctx, target.ID)
	if err != nil {
		a.respond(context, operation, startTime, nil, err)
		return
	}

	a.publish(eventType, target.ID.String(), map[string]string{
		"followerId": followerID.String(),
		"followeeId": target.ID.String(),
	})
	a.respond(context, operation, startTime, &FollowResult{
		UserID:        updated.ID,
		Username:      updated.Username,
		IsFollowing:   follow,
		FollowerCount: len(updated.Followers),
	}, nil)
}
