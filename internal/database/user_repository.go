// internal/database/user_repository.go
package database

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"gator-forum/internal/models"
	"gator-forum/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// UserDocument represents the MongoDB schema for a user
type UserDocument struct {
	ID                 string    `bson:"_id"`
	ExternalIdentityID string    `bson:"externalIdentityId"`
	Username           string    `bson:"username"`
	Email              string    `bson:"email"`
	ImageURL           string    `bson:"imageUrl,omitempty"`
	Bio                string    `bson:"bio,omitempty"`
	Karma              int       `bson:"karma"`
	Following          []string  `bson:"following"`
	Followers          []string  `bson:"followers"`
	CreatedAt          time.Time `bson:"createdAt"`
	UpdatedAt          time.Time `bson:"updatedAt"`
}

func userToDocument(user *models.User) *UserDocument {
	return &UserDocument{
		ID:                 user.ID.String(),
		ExternalIdentityID: user.ExternalIdentityID,
		Username:           user.Username,
		Email:              user.Email,
		ImageURL:           user.ImageURL,
		Bio:                user.Bio,
		Karma:              user.Karma,
		Following:          idsToStrings(user.Following),
		Followers:          idsToStrings(user.Followers),
		CreatedAt:          user.CreatedAt,
		UpdatedAt:          user.UpdatedAt,
	}
}

func documentToUser(doc *UserDocument) (*models.User, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in database: %v", err)
	}
	return &models.User{
		ID:                 id,
		ExternalIdentityID: doc.ExternalIdentityID,
		Username:           doc.Username,
		Email:              doc.Email,
		ImageURL:           doc.ImageURL,
		Bio:                doc.Bio,
		Karma:              doc.Karma,
		Following:          stringsToIDs(doc.Following),
		Followers:          stringsToIDs(doc.Followers),
		CreatedAt:          doc.CreatedAt,
		UpdatedAt:          doc.UpdatedAt,
	}, nil
}

// maxUsernameAttempts bounds the suffixed names tried for a new user.
const maxUsernameAttempts = 8

// ResolveUser returns the user owning candidate.ExternalIdentityID, inserting
// candidate when no such user exists. The upsert only writes on insert. A
// duplicate-key error means either a concurrent insert for the same identity
// won, answered with a plain lookup, or the username is taken by another
// identity, answered by retrying with a suffixed name.
func (m *MongoDB) ResolveUser(ctx context.Context, candidate *models.User) (*models.User, bool, error) {
	filter := bson.M{"externalIdentityId": candidate.ExternalIdentityID}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	attempt := *candidate

	for i := 0; i < maxUsernameAttempts; i++ {
		if i > 0 {
			attempt.Username = models.SuffixedUsername(candidate.Username, 1000+rand.Intn(9000))
		}

		var stored UserDocument
		err := m.Users.FindOneAndUpdate(ctx, filter, bson.M{"$setOnInsert": userToDocument(&attempt)}, opts).Decode(&stored)
		if mongo.IsDuplicateKeyError(err) {
			err = m.Users.FindOne(ctx, filter).Decode(&stored)
			if err == mongo.ErrNoDocuments {
				continue
			}
		}
		if err != nil {
			return nil, false, utils.NewDatabaseError("failed to resolve user", err)
		}

		user, err := documentToUser(&stored)
		if err != nil {
			return nil, false, err
		}
		created := user.ID == candidate.ID
		if created {
			m.logger.Info("created user for external identity",
				zap.String("user_id", user.ID.String()),
				zap.String("username", user.Username))
		}
		return user, created, nil
	}
	return nil, false, utils.NewAppError(utils.ErrConflict,
		fmt.Sprintf("no free username derived from %q", candidate.Username), nil)
}

// GetUser retrieves a user from MongoDB by their ID
func (m *MongoDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.findUser(ctx, bson.M{"_id": id.String()})
}

func (m *MongoDB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"username": username})
}

func (m *MongoDB) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc UserDocument
	err := m.Users.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found", err)
	}
	if err != nil {
		return nil, utils.NewDatabaseError("failed to load user", err)
	}
	return documentToUser(&doc)
}

// FollowUser patches both sides of the relation in one transaction.
func (m *MongoDB) FollowUser(ctx context.Context, followerID, followeeID uuid.UUID) error {
	follower, followee := followerID.String(), followeeID.String()
	now := time.Now()

	err := m.withTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := m.Users.UpdateOne(sc,
			bson.M{"_id": follower, "following": bson.M{"$ne": followee}},
			bson.M{"$addToSet": bson.M{"following": followee}, "$set": bson.M{"updatedAt": now}})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return m.followMiss(sc, follower, utils.ErrAlreadyFollowing, "You are already following this user")
		}

		res, err = m.Users.UpdateOne(sc,
			bson.M{"_id": followee},
			bson.M{"$addToSet": bson.M{"followers": follower}, "$set": bson.M{"updatedAt": now}})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
		}
		return nil
	})
	if err != nil {
		return dbError("failed to follow user", err)
	}
	return nil
}

func (m *MongoDB) UnfollowUser(ctx context.Context, followerID, followeeID uuid.UUID) error {
	follower, followee := followerID.String(), followeeID.String()
	now := time.Now()

	err := m.withTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := m.Users.UpdateOne(sc,
			bson.M{"_id": follower, "following": followee},
			bson.M{"$pull": bson.M{"following": followee}, "$set": bson.M{"updatedAt": now}})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return m.followMiss(sc, follower, utils.ErrNotFollowing, "You are not following this user")
		}

		_, err = m.Users.UpdateOne(sc,
			bson.M{"_id": followee},
			bson.M{"$pull": bson.M{"followers": follower}, "$set": bson.M{"updatedAt": now}})
		return err
	})
	if err != nil {
		return dbError("failed to unfollow user", err)
	}
	return nil
}

// followMiss explains why a guarded follower-side update matched nothing.
func (m *MongoDB) followMiss(ctx context.Context, followerID, code, message string) error {
	count, err := m.Users.CountDocuments(ctx, bson.M{"_id": followerID})
	if err != nil {
		return err
	}
	if count == 0 {
		return utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
	}
	return utils.NewAppError(code, message, nil)
}
