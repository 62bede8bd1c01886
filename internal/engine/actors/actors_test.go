package actors

import (
	"testing"
	"time"

	"gator-forum/internal/database"
	"gator-forum/internal/events"
	"gator-forum/internal/feed"
	"gator-forum/internal/models"
	"gator-forum/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const defaultWait = 5 * time.Second

type harness struct {
	t        *testing.T
	system   *actor.ActorSystem
	db       *database.MemoryStore
	events   *events.Recorder
	deps     *Deps
	users    *actor.PID
	subs     *actor.PID
	posts    *actor.PID
	comments *actor.PID
	votes    *actor.PID
	reports  *actor.PID
}

func newHarness(t *testing.T) *harness {
	db := database.NewMemoryStore()
	recorder := &events.Recorder{}
	deps := &Deps{
		DB:      db,
		Feeds:   feed.NewComposer(db),
		Events:  recorder,
		Metrics: utils.NewMetricsCollector(),
		Logger:  zap.NewNop(),
		Timeout: 5 * time.Second,
	}
	system := actor.NewActorSystem()
	spawn := func(producer func() actor.Actor) *actor.PID {
		return system.Root.Spawn(actor.PropsFromProducer(producer))
	}

	return &harness{
		t:        t,
		system:   system,
		db:       db,
		events:   recorder,
		deps:     deps,
		users:    spawn(func() actor.Actor { return NewUserActor(deps) }),
		subs:     spawn(func() actor.Actor { return NewSubredditActor(deps) }),
		posts:    spawn(func() actor.Actor { return NewPostActor(deps) }),
		comments: spawn(func() actor.Actor { return NewCommentActor(deps) }),
		votes:    spawn(func() actor.Actor { return NewVoteActor(deps, 0) }),
		reports:  spawn(func() actor.Actor { return NewReportActor(deps) }),
	}
}

// ask sends msg and returns the reply, failing the test on transport errors.
func (h *harness) ask(pid *actor.PID, msg interface{}) interface{} {
	h.t.Helper()
	result, err := h.system.Root.RequestFuture(pid, msg, defaultWait).Result()
	require.NoError(h.t, err)
	return result
}

// askErr sends msg and expects an *utils.AppError reply.
func (h *harness) askErr(pid *actor.PID, msg interface{}) *utils.AppError {
	h.t.Helper()
	appErr, ok := h.ask(pid, msg).(*utils.AppError)
	require.True(h.t, ok, "expected an error reply")
	return appErr
}

func (h *harness) user(name string) *models.User {
	h.t.Helper()
	result := h.ask(h.users, &ResolveIdentityMsg{Identity: models.ExternalIdentity{ID: "ext_" + name, Username: name}})
	user, ok := result.(*models.User)
	require.True(h.t, ok, "unexpected reply %v", result)
	return user
}

func (h *harness) subreddit(name string, creator *models.User) *models.Subreddit {
	h.t.Helper()
	result := h.ask(h.subs, &CreateSubredditMsg{Name: name, Description: "about " + name, CreatorID: creator.ID})
	sub, ok := result.(*models.Subreddit)
	require.True(h.t, ok, "unexpected reply %v", result)
	return sub
}

func (h *harness) post(sub *models.Subreddit, author *models.User, title string) *models.PostView {
	h.t.Helper()
	result := h.ask(h.posts, &CreatePostMsg{
		Title:       title,
		Content:     "body of " + title,
		PostType:    models.TextPost,
		AuthorID:    author.ID,
		SubredditID: sub.ID,
	})
	view, ok := result.(*models.PostView)
	require.True(h.t, ok, "unexpected reply %v", result)
	return view
}

func (h *harness) comment(post uuid.UUID, author *models.User, parent *uuid.UUID) *models.CommentNode {
	h.t.Helper()
	result := h.ask(h.comments, &CreateCommentMsg{Text: "a reply", AuthorID: author.ID, PostID: post, ParentID: parent})
	node, ok := result.(*models.CommentNode)
	require.True(h.t, ok, "unexpected reply %v", result)
	return node
}

func (h *harness) vote(voter *models.User, target models.ContentRef, direction models.VoteDirection) *models.VoteResult {
	h.t.Helper()
	result := h.ask(h.votes, &CastVoteMsg{VoterID: voter.ID, Target: target, Direction: direction})
	vote, ok := result.(*models.VoteResult)
	require.True(h.t, ok, "unexpected reply %v", result)
	return vote
}
