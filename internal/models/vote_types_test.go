package models

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from   VoteState
		cast   VoteDirection
		to     VoteState
		action VoteAction
	}{
		{StateNone, VoteUp, StateUp, VoteCreated},
		{StateNone, VoteDown, StateDown, VoteCreated},
		{StateUp, VoteUp, StateNone, VoteRemoved},
		{StateUp, VoteDown, StateDown, VoteUpdated},
		{StateDown, VoteDown, StateNone, VoteRemoved},
		{StateDown, VoteUp, StateUp, VoteUpdated},
	}

	for _, tc := range cases {
		to, action := Transition(tc.from, tc.cast)
		assert.Equal(t, tc.to, to, "%s + %s", tc.from, tc.cast)
		assert.Equal(t, tc.action, action, "%s + %s", tc.from, tc.cast)
	}
}

func TestVotesNeverInBothArrays(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	voters := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	votes := Votes{}

	for i := 0; i < 500; i++ {
		voter := voters[rng.Intn(len(voters))]
		cast := VoteUp
		if rng.Intn(2) == 0 {
			cast = VoteDown
		}
		before := votes.StateOf(voter)
		next, _ := Transition(before, cast)
		votes = votes.Apply(voter, next)

		assert.Equal(t, next, votes.StateOf(voter))
		for _, v := range voters {
			assert.False(t, ContainsID(votes.Upvotes, v) && ContainsID(votes.Downvotes, v))
		}
	}
}

func TestVoteScenario(t *testing.T) {
	a := uuid.New()
	votes := Votes{}

	next, action := Transition(votes.StateOf(a), VoteUp)
	votes = votes.Apply(a, next)
	assert.Equal(t, VoteCreated, action)
	assert.Equal(t, []uuid.UUID{a}, votes.Upvotes)

	next, action = Transition(votes.StateOf(a), VoteUp)
	votes = votes.Apply(a, next)
	assert.Equal(t, VoteRemoved, action)
	assert.Empty(t, votes.Upvotes)

	next, action = Transition(votes.StateOf(a), VoteDown)
	votes = votes.Apply(a, next)
	assert.Equal(t, VoteCreated, action)
	assert.Equal(t, []uuid.UUID{a}, votes.Downvotes)
	assert.Equal(t, -1, votes.Score())
}

func TestSwitchingSidesMovesVoter(t *testing.T) {
	a := uuid.New()
	votes := Votes{Upvotes: []uuid.UUID{a}}

	next, action := Transition(votes.StateOf(a), VoteDown)
	votes = votes.Apply(a, next)

	assert.Equal(t, VoteUpdated, action)
	assert.Empty(t, votes.Upvotes)
	assert.Equal(t, []uuid.UUID{a}, votes.Downvotes)
}

func TestChunk(t *testing.T) {
	ids := make([]int, 170)
	batches := Chunk(ids, 80)
	assert.Len(t, batches, 3)
	assert.Len(t, batches[0], 80)
	assert.Len(t, batches[2], 10)
	assert.Empty(t, Chunk([]int{}, 80))
}
