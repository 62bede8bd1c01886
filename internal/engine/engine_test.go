package engine

import (
	"testing"
	"time"

	"gator-forum/internal/database"
	"gator-forum/internal/engine/actors"
	"gator-forum/internal/events"
	"gator-forum/internal/feed"
	"gator-forum/internal/models"
	"gator-forum/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T, shards int) *Engine {
	db := database.NewMemoryStore()
	deps := &actors.Deps{
		DB:      db,
		Feeds:   feed.NewComposer(db),
		Events:  &events.Recorder{},
		Metrics: utils.NewMetricsCollector(),
		Logger:  zap.NewNop(),
		Timeout: time.Second,
	}
	e := NewEngine(actor.NewActorSystem(), deps, shards)
	t.Cleanup(e.Stop)
	return e
}

func TestGetVoteActorIsStable(t *testing.T) {
	e := newTestEngine(t, 4)
	require.Len(t, e.voteActors, 4)

	target := models.PostRef(uuid.New())
	first := e.GetVoteActor(target)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, e.GetVoteActor(target))
	}
	assert.Equal(t, first, e.GetVoteActor(models.CommentRef(target.ID)))
}

func TestNewEngineClampsShards(t *testing.T) {
	e := newTestEngine(t, 0)
	assert.Len(t, e.voteActors, 1)
}

func TestEngineHealthy(t *testing.T) {
	e := newTestEngine(t, 2)
	assert.True(t, e.Healthy(time.Second))
}

func TestRequestUnwrapsAppError(t *testing.T) {
	e := newTestEngine(t, 1)

	_, err := e.Request(e.GetUserActor(), &actors.GetUserMsg{UserID: uuid.New()}, time.Second)
	require.Error(t, err)
	assert.True(t, utils.IsNotFound(err))

	result, err := e.Request(e.GetUserActor(),
		&actors.ResolveIdentityMsg{Identity: models.ExternalIdentity{ID: "ext_alice", Username: "alice"}}, time.Second)
	require.NoError(t, err)
	user, ok := result.(*models.User)
	require.True(t, ok)
	assert.Equal(t, "alice", user.Username)
}

func TestRequestTimeout(t *testing.T) {
	e := newTestEngine(t, 1)
	silent := e.system.Root.Spawn(actor.PropsFromFunc(func(actor.Context) {}))

	_, err := e.Request(silent, &actors.HealthCheckMsg{}, 50*time.Millisecond)
	assert.True(t, utils.IsErrorCode(err, utils.ErrActorTimeout))
}
