// internal/database/database.go
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gator-forum/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type MongoDB struct {
	Client     *mongo.Client
	Users      *mongo.Collection
	Posts      *mongo.Collection
	Comments   *mongo.Collection
	Subreddits *mongo.Collection
	Reports    *mongo.Collection
	logger     *zap.Logger
}

var _ DBAdapter = (*MongoDB)(nil)

func NewMongoDB(uri, dbName string, logger *zap.Logger) (*MongoDB, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info("connected to MongoDB", zap.String("database", dbName))

	db := client.Database(dbName)
	m := &MongoDB{
		Client:     client,
		Users:      db.Collection("users"),
		Posts:      db.Collection("posts"),
		Comments:   db.Collection("comments"),
		Subreddits: db.Collection("subreddits"),
		Reports:    db.Collection("reports"),
		logger:     logger,
	}

	if err := m.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// EnsureIndexes creates the unique and lookup indexes the store relies on.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		m.Users: {
			{Keys: bson.D{{Key: "externalIdentityId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		m.Subreddits: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		m.Posts: {
			{Keys: bson.D{{Key: "subredditId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "authorId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "commentCount", Value: -1}, {Key: "createdAt", Value: -1}}},
		},
		m.Comments: {
			{Keys: bson.D{{Key: "postId", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
		m.Reports: {
			{Keys: bson.D{{Key: "subredditId", Value: 1}, {Key: "status", Value: 1}}},
		},
	}

	for coll, specs := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func (m *MongoDB) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, nil)
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

// withTransaction runs fn inside a multi-document transaction.
func (m *MongoDB) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := m.Client.StartSession()
	if err != nil {
		return utils.NewDatabaseError("failed to start session", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (m *MongoDB) collectionFor(kind DocKind) (*mongo.Collection, error) {
	switch kind {
	case UserDoc:
		return m.Users, nil
	case SubredditDoc:
		return m.Subreddits, nil
	case PostDoc:
		return m.Posts, nil
	case CommentDoc:
		return m.Comments, nil
	case ReportDoc:
		return m.Reports, nil
	}
	return nil, fmt.Errorf("unknown document kind %q", kind)
}

// DeleteDocuments groups refs by collection and deletes them in one transaction.
func (m *MongoDB) DeleteDocuments(ctx context.Context, refs []DocRef) error {
	if len(refs) == 0 {
		return nil
	}

	// Keep first-seen order so comments go before posts before the subreddit.
	var order []DocKind
	grouped := make(map[DocKind][]string)
	for _, ref := range refs {
		if _, seen := grouped[ref.Kind]; !seen {
			order = append(order, ref.Kind)
		}
		grouped[ref.Kind] = append(grouped[ref.Kind], ref.ID.String())
	}

	err := m.withTransaction(ctx, func(sc mongo.SessionContext) error {
		for _, kind := range order {
			coll, err := m.collectionFor(kind)
			if err != nil {
				return err
			}
			if _, err := coll.DeleteMany(sc, bson.M{"_id": bson.M{"$in": grouped[kind]}}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return utils.NewDatabaseError("failed to delete documents", err)
	}
	return nil
}

// dbError keeps domain errors raised inside a transaction and wraps the rest.
func dbError(message string, err error) error {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return utils.NewDatabaseError(message, err)
}
