package database

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"gator-forum/internal/models"
	"gator-forum/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SubredditDB represents the MongoDB document structure for subreddits
type SubredditDB struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	DisplayName string    `bson:"displayName"`
	Description string    `bson:"description"`
	CreatorID   string    `bson:"creatorId"`
	Members     []string  `bson:"members"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

func documentToSubreddit(doc *SubredditDB) (*models.Subreddit, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid subreddit ID: %v", err)
	}
	creatorID, err := uuid.Parse(doc.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("invalid creator ID: %v", err)
	}
	return &models.Subreddit{
		ID:          id,
		Name:        doc.Name,
		DisplayName: doc.DisplayName,
		Description: doc.Description,
		CreatorID:   creatorID,
		Members:     stringsToIDs(doc.Members),
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}, nil
}

// CreateSubreddit inserts a new subreddit; the unique name index rejects collisions.
func (m *MongoDB) CreateSubreddit(ctx context.Context, subreddit *models.Subreddit) error {
	doc := SubredditDB{
		ID:          subreddit.ID.String(),
		Name:        subreddit.Name,
		DisplayName: subreddit.DisplayName,
		Description: subreddit.Description,
		CreatorID:   subreddit.CreatorID.String(),
		Members:     idsToStrings(subreddit.Members),
		CreatedAt:   subreddit.CreatedAt,
		UpdatedAt:   subreddit.UpdatedAt,
	}

	if _, err := m.Subreddits.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return utils.NewAppError(utils.ErrSubredditExists, "A community with this name already exists", err)
		}
		return utils.NewDatabaseError("failed to create subreddit", err)
	}
	return nil
}

// GetSubredditByID retrieves a subreddit by its ID
func (m *MongoDB) GetSubredditByID(ctx context.Context, id uuid.UUID) (*models.Subreddit, error) {
	return m.findSubreddit(ctx, bson.M{"_id": id.String()})
}

func (m *MongoDB) GetSubredditByName(ctx context.Context, name string) (*models.Subreddit, error) {
	return m.findSubreddit(ctx, bson.M{"name": models.NormalizeSubredditName(name)})
}

func (m *MongoDB) findSubreddit(ctx context.Context, filter bson.M) (*models.Subreddit, error) {
	var doc SubredditDB
	err := m.Subreddits.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewSubredditNotFoundError()
	}
	if err != nil {
		return nil, utils.NewDatabaseError("failed to get subreddit", err)
	}
	return documentToSubreddit(&doc)
}

// ListSubreddits returns every subreddit ordered by name.
func (m *MongoDB) ListSubreddits(ctx context.Context) ([]*models.Subreddit, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return m.findSubreddits(ctx, bson.M{}, opts)
}

func (m *MongoDB) SearchSubreddits(ctx context.Context, term string, limit int) ([]*models.Subreddit, error) {
	pattern := bson.M{"$regex": regexp.QuoteMeta(term), "$options": "i"}
	filter := bson.M{"$or": []bson.M{{"name": pattern}, {"description": pattern}}}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}}).SetLimit(int64(limit))
	return m.findSubreddits(ctx, filter, opts)
}

func (m *MongoDB) findSubreddits(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Subreddit, error) {
	cursor, err := m.Subreddits.Find(ctx, filter, opts)
	if err != nil {
		return nil, utils.NewDatabaseError("failed to list subreddits", err)
	}
	defer cursor.Close(ctx)

	subreddits := make([]*models.Subreddit, 0)
	for cursor.Next(ctx) {
		var doc SubredditDB
		if err := cursor.Decode(&doc); err != nil {
			m.logger.Sugar().Warnf("error decoding subreddit document: %v", err)
			continue
		}
		sub, err := documentToSubreddit(&doc)
		if err != nil {
			m.logger.Sugar().Warnf("error converting subreddit document: %v", err)
			continue
		}
		subreddits = append(subreddits, sub)
	}
	if err := cursor.Err(); err != nil {
		return nil, utils.NewDatabaseError("cursor iteration failed", err)
	}
	return subreddits, nil
}

// AddSubredditMember adds userID to members unless it is already there.
func (m *MongoDB) AddSubredditMember(ctx context.Context, subredditID, userID uuid.UUID) error {
	res, err := m.Subreddits.UpdateOne(ctx,
		bson.M{"_id": subredditID.String(), "members": bson.M{"$ne": userID.String()}},
		bson.M{"$addToSet": bson.M{"members": userID.String()}, "$set": bson.M{"updatedAt": time.Now()}})
	if err != nil {
		return utils.NewDatabaseError("failed to join subreddit", err)
	}
	if res.MatchedCount == 0 {
		return m.membershipMiss(ctx, subredditID, utils.ErrAlreadySubredditMember, "You are already a member of this community")
	}
	return nil
}

func (m *MongoDB) RemoveSubredditMember(ctx context.Context, subredditID, userID uuid.UUID) error {
	res, err := m.Subreddits.UpdateOne(ctx,
		bson.M{"_id": subredditID.String(), "members": userID.String()},
		bson.M{"$pull": bson.M{"members": userID.String()}, "$set": bson.M{"updatedAt": time.Now()}})
	if err != nil {
		return utils.NewDatabaseError("failed to leave subreddit", err)
	}
	if res.MatchedCount == 0 {
		return m.membershipMiss(ctx, subredditID, utils.ErrNotSubredditMember, "You are not a member of this community")
	}
	return nil
}

func (m *MongoDB) membershipMiss(ctx context.Context, subredditID uuid.UUID, code, message string) error {
	count, err := m.Subreddits.CountDocuments(ctx, bson.M{"_id": subredditID.String()})
	if err != nil {
		return utils.NewDatabaseError("failed to verify subreddit", err)
	}
	if count == 0 {
		return utils.NewSubredditNotFoundError()
	}
	return utils.NewAppError(code, message, nil)
}
