package models

import (
	"fmt"

	"github.com/google/uuid"
)

// ContentKind identifies what a vote or report points at.
type ContentKind string

const (
	PostContent    ContentKind = "post"
	CommentContent ContentKind = "comment"
)

func (k ContentKind) Valid() bool {
	return k == PostContent || k == CommentContent
}

// ContentRef is a tagged reference to exactly one post or comment.
type ContentRef struct {
	Kind ContentKind `json:"kind"`
	ID   uuid.UUID   `json:"id"`
}

func PostRef(id uuid.UUID) ContentRef    { return ContentRef{Kind: PostContent, ID: id} }
func CommentRef(id uuid.UUID) ContentRef { return ContentRef{Kind: CommentContent, ID: id} }

func (r ContentRef) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}

// VoteDirection represents the direction of a cast vote.
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

func (d VoteDirection) Valid() bool {
	return d == VoteUp || d == VoteDown
}

// VoteState is a voter's standing on one target.
type VoteState int

const (
	StateNone VoteState = 0
	StateUp   VoteState = 1
	StateDown VoteState = -1
)

func (s VoteState) String() string {
	switch s {
	case StateUp:
		return "UP"
	case StateDown:
		return "DOWN"
	default:
		return "NONE"
	}
}

// VoteAction describes what a cast did to the ledger.
type VoteAction string

const (
	VoteCreated VoteAction = "created"
	VoteUpdated VoteAction = "updated"
	VoteRemoved VoteAction = "removed"
)

// Transition applies a cast to the current state.
//
//	NONE + up   -> UP   (created)    NONE + down -> DOWN (created)
//	UP   + up   -> NONE (removed)    UP   + down -> DOWN (updated)
//	DOWN + down -> NONE (removed)    DOWN + up   -> UP   (updated)
func Transition(current VoteState, cast VoteDirection) (VoteState, VoteAction) {
	want := StateUp
	if cast == VoteDown {
		want = StateDown
	}
	switch current {
	case StateNone:
		return want, VoteCreated
	case want:
		return StateNone, VoteRemoved
	default:
		return want, VoteUpdated
	}
}

// Votes holds the upvote/downvote reference arrays of a post or comment.
type Votes struct {
	Upvotes   []uuid.UUID `json:"-"`
	Downvotes []uuid.UUID `json:"-"`
}

// StateOf returns the voter's current state. A voter found in both arrays
// (never written by this code) is treated as an upvoter.
func (v Votes) StateOf(voter uuid.UUID) VoteState {
	if ContainsID(v.Upvotes, voter) {
		return StateUp
	}
	if ContainsID(v.Downvotes, voter) {
		return StateDown
	}
	return StateNone
}

// Apply returns the arrays after moving voter to next.
func (v Votes) Apply(voter uuid.UUID, next VoteState) Votes {
	out := Votes{
		Upvotes:   RemoveID(v.Upvotes, voter),
		Downvotes: RemoveID(v.Downvotes, voter),
	}
	switch next {
	case StateUp:
		out.Upvotes = append(out.Upvotes, voter)
	case StateDown:
		out.Downvotes = append(out.Downvotes, voter)
	}
	return out
}

func (v Votes) Score() int {
	return len(v.Upvotes) - len(v.Downvotes)
}

// VoteResult is returned to the caller of a cast.
type VoteResult struct {
	Target     ContentRef `json:"target"`
	Action     VoteAction `json:"action"`
	VoteStatus VoteState  `json:"voteStatus"`
	Score      int        `json:"score"`
	Upvotes    int        `json:"upvotes"`
	Downvotes  int        `json:"downvotes"`
}
