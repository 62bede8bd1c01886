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

// maxVoteAttempts bounds the compare-and-swap retries of one cast.
const maxVoteAttempts = 3

// CastVoteMsg toggles the voter's standing on one post or comment.
type CastVoteMsg struct {
	VoterID   uuid.UUID
	Target    models.ContentRef
	Direction models.VoteDirection
}

// VoteActor owns the vote ledger for a shard of targets. Every cast is a
// read of the vote arrays followed by a conditional write that asserts the
// state that was read; a concurrent change from another process fails the
// write and the cast is recomputed.
type VoteActor struct {
	*Deps
	shard int
}

func NewVoteActor(deps *Deps, shard int) actor.Actor {
	return &VoteActor{Deps: deps, shard: shard}
}

func (a *VoteActor) Receive(context actor.Context) {
	if a.lifecycle("VoteActor", context.Message()) {
		return
	}
	switch msg := context.Message().(type) {
	case *CastVoteMsg:
		a.handleCastVote(context, msg)
	case *HealthCheckMsg:
		context.Respond(true)
	default:
		a.Logger.Warn("VoteActor: unknown message", zap.Int("shard", a.shard), zap.String("type", typeName(msg)))
	}
}

func (a *VoteActor) handleCastVote(context actor.Context, msg *CastVoteMsg) {
	startTime := time.Now()
	if !msg.Target.Kind.Valid() {
		a.respond(context, "cast_vote", startTime, nil, invalidInput("Vote target must be a post or comment"))
		return
	}
	if !msg.Direction.Valid() {
		a.respond(context, "cast_vote", startTime, nil, invalidInput("voteType must be up or down"))
		return
	}

	ctx, cancel := a.storeContext()
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= maxVoteAttempts; attempt++ {
		current, err := a.DB.GetVotes(ctx, msg.Target)
		if err != nil {
			a.respond(context, "cast_vote", startTime, nil, err)
			return
		}

		from := current.StateOf(msg.VoterID)
		to, action := models.Transition(from, msg.Direction)

		updated, err := a.DB.ApplyVote(ctx, msg.Target, msg.VoterID, from, to)
		if utils.IsErrorCode(err, utils.ErrConflict) {
			lastErr = err
			a.Logger.Debug("vote state changed concurrently, retrying",
				zap.String("target", msg.Target.String()),
				zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			a.respond(context, "cast_vote", startTime, nil, err)
			return
		}

		result := &models.VoteResult{
			Target:     msg.Target,
			Action:     action,
			VoteStatus: to,
			Score:      updated.Score(),
			Upvotes:    len(updated.Upvotes),
			Downvotes:  len(updated.Downvotes),
		}
		a.Metrics.RecordVote(string(msg.Target.Kind), string(action))
		a.publish(events.VoteCast, msg.Target.String(), map[string]any{
			"voterId": msg.VoterID.String(),
			"target":  msg.Target,
			"from":    from.String(),
			"to":      to.String(),
			"action":  action,
		})
		a.respond(context, "cast_vote", startTime, result, nil)
		return
	}

	a.respond(context, "cast_vote", startTime, nil,
		utils.NewAppError(utils.ErrConflict, "Vote could not be applied, please retry", lastErr))
}
