package engine

import (
	"errors"
	"time"

	"gator-forum/internal/engine/actors"
	"gator-forum/internal/models"
	"gator-forum/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

// Engine spawns the actors and routes messages to them.
type Engine struct {
	system         *actor.ActorSystem
	logger         *zap.Logger
	userActor      *actor.PID
	subredditActor *actor.PID
	postActor      *actor.PID
	commentActor   *actor.PID
	reportActor    *actor.PID
	voteActors     []*actor.PID
}

// NewEngine spawns one actor per concern and voteShards vote actors.
func NewEngine(system *actor.ActorSystem, deps *actors.Deps, voteShards int) *Engine {
	context := system.Root
	spawn := func(producer func() actor.Actor) *actor.PID {
		return context.Spawn(actor.PropsFromProducer(producer))
	}

	e := &Engine{
		system:         system,
		logger:         deps.Logger,
		userActor:      spawn(func() actor.Actor { return actors.NewUserActor(deps) }),
		subredditActor: spawn(func() actor.Actor { return actors.NewSubredditActor(deps) }),
		postActor:      spawn(func() actor.Actor { return actors.NewPostActor(deps) }),
		commentActor:   spawn(func() actor.Actor { return actors.NewCommentActor(deps) }),
		reportActor:    spawn(func() actor.Actor { return actors.NewReportActor(deps) }),
	}

	if voteShards <= 0 {
		voteShards = 1
	}
	for shard := 0; shard < voteShards; shard++ {
		e.voteActors = append(e.voteActors, spawn(func() actor.Actor { return actors.NewVoteActor(deps, shard) }))
	}

	deps.Logger.Info("engine started", zap.Int("voteShards", voteShards))
	return e
}

// GetUserActor returns the PID of the user actor
func (e *Engine) GetUserActor() *actor.PID { return e.userActor }

// GetSubredditActor returns the PID of the subreddit actor
func (e *Engine) GetSubredditActor() *actor.PID { return e.subredditActor }

// GetPostActor returns the PID of the post actor
func (e *Engine) GetPostActor() *actor.PID { return e.postActor }

func (e *Engine) GetCommentActor() *actor.PID { return e.commentActor }

func (e *Engine) GetReportActor() *actor.PID { return e.reportActor }

// GetVoteActor returns the vote shard that owns target. All casts on one
// target go through the same actor.
func (e *Engine) GetVoteActor(target models.ContentRef) *actor.PID {
	shard := xxhash.Sum64String(target.ID.String()) % uint64(len(e.voteActors))
	return e.voteActors[shard]
}

func (e *Engine) all() []*actor.PID {
	pids := []*actor.PID{e.userActor, e.subredditActor, e.postActor, e.commentActor, e.reportActor}
	return append(pids, e.voteActors...)
}

// Request sends msg to pid and waits for the reply. An *utils.AppError reply
// is returned as the error.
func (e *Engine) Request(pid *actor.PID, msg interface{}, timeout time.Duration) (interface{}, error) {
	result, err := e.system.Root.RequestFuture(pid, msg, timeout).Result()
	if err != nil {
		if errors.Is(err, actor.ErrTimeout) {
			return nil, utils.NewActorTimeoutError(pid.Id)
		}
		return nil, utils.NewAppError(utils.ErrMessageRejected, "actor request failed", err)
	}
	if appErr, ok := result.(*utils.AppError); ok {
		return nil, appErr
	}
	return result, nil
}

// Healthy reports whether every actor answers within timeout.
func (e *Engine) Healthy(timeout time.Duration) bool {
	for _, pid := range e.all() {
		if _, err := e.Request(pid, &actors.HealthCheckMsg{}, timeout); err != nil {
			e.logger.Warn("actor failed health check", zap.String("pid", pid.Id), zap.Error(err))
			return false
		}
	}
	return true
}

// Stop stops every actor and waits for them to finish their current message.
func (e *Engine) Stop() {
	for _, pid := range e.all() {
		if err := e.system.Root.StopFuture(pid).Wait(); err != nil {
			e.logger.Warn("actor did not stop cleanly", zap.String("pid", pid.Id), zap.Error(err))
		}
	}
	e.logger.Info("engine stopped")
}
