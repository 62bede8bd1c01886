package database

import (
	"context"
	"time"

	"gator-forum/internal/models"
	"gator-forum/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// voteArrays is the projection shared by posts and comments.
type voteArrays struct {
	Upvotes   []string `bson:"upvotes"`
	Downvotes []string `bson:"downvotes"`
}

func (v voteArrays) toVotes() models.Votes {
	return models.Votes{Upvotes: stringsToIDs(v.Upvotes), Downvotes: stringsToIDs(v.Downvotes)}
}

func (m *MongoDB) voteCollection(target models.ContentRef) (*mongo.Collection, string) {
	if target.Kind == models.CommentContent {
		return m.Comments, "Comment not found"
	}
	return m.Posts, "Post not found"
}

func (m *MongoDB) GetVotes(ctx context.Context, target models.ContentRef) (models.Votes, error) {
	coll, missing := m.voteCollection(target)
	opts := options.FindOne().SetProjection(bson.M{"upvotes": 1, "downvotes": 1})

	var arrays voteArrays
	err := coll.FindOne(ctx, bson.M{"_id": target.ID.String()}, opts).Decode(&arrays)
	if err == mongo.ErrNoDocuments {
		return models.Votes{}, utils.NewAppError(utils.ErrNotFound, missing, err)
	}
	if err != nil {
		return models.Votes{}, utils.NewDatabaseError("failed to read votes", err)
	}
	return arrays.toVotes(), nil
}

// ApplyVote moves voter from one state to another with a single conditional
// update. The filter asserts the prior state, so a concurrent change makes the
// update match nothing and ErrConflict is returned for the caller to retry.
func (m *MongoDB) ApplyVote(ctx context.Context, target models.ContentRef, voterID uuid.UUID, from, to models.VoteState) (models.Votes, error) {
	coll, missing := m.voteCollection(target)
	voter := voterID.String()

	filter := bson.M{"_id": target.ID.String()}
	switch from {
	case models.StateUp:
		filter["upvotes"] = voter
	case models.StateDown:
		filter["downvotes"] = voter
	default:
		filter["upvotes"] = bson.M{"$ne": voter}
		filter["downvotes"] = bson.M{"$ne": voter}
	}

	update := bson.M{"$set": bson.M{"updatedAt": time.Now()}}
	switch to {
	case models.StateUp:
		update["$addToSet"] = bson.M{"upvotes": voter}
		update["$pull"] = bson.M{"downvotes": voter}
	case models.StateDown:
		update["$addToSet"] = bson.M{"downvotes": voter}
		update["$pull"] = bson.M{"upvotes": voter}
	default:
		update["$pull"] = bson.M{"upvotes": voter, "downvotes": voter}
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"upvotes": 1, "downvotes": 1})

	var arrays voteArrays
	err := coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&arrays)
	if err == mongo.ErrNoDocuments {
		count, countErr := coll.CountDocuments(ctx, bson.M{"_id": target.ID.String()})
		if countErr != nil {
			return models.Votes{}, utils.NewDatabaseError("failed to verify vote target", countErr)
		}
		if count == 0 {
			return models.Votes{}, utils.NewAppError(utils.ErrNotFound, missing, nil)
		}
		return models.Votes{}, utils.NewAppError(utils.ErrConflict, "vote state changed concurrently", nil)
	}
	if err != nil {
		return models.Votes{}, utils.NewDatabaseError("failed to apply vote", err)
	}
	return arrays.toVotes(), nil
}
