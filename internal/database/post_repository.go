// internal/database/post_repository.go
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

// PostDocument represents the MongoDB schema for a post.
type PostDocument struct {
	ID             string    `bson:"_id"`
	Title          string    `bson:"title"`
	Content        string    `bson:"content,omitempty"`
	ImageURL       string    `bson:"imageUrl,omitempty"`
	LinkURL        string    `bson:"linkUrl,omitempty"`
	PostType       string    `bson:"postType"`
	AuthorID       string    `bson:"authorId"`
	AuthorUsername string    `bson:"authorUsername"`
	SubredditID    string    `bson:"subredditId"`
	SubredditName  string    `bson:"subredditName"`
	Upvotes        []string  `bson:"upvotes"`
	Downvotes      []string  `bson:"downvotes"`
	CommentCount   int       `bson:"commentCount"`
	CreatedAt      time.Time `bson:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt"`
}

// ModelToDocument converts a Post model to a MongoDB document.
func (m *MongoDB) ModelToDocument(post *models.Post) *PostDocument {
	return &PostDocument{
		ID:             post.ID.String(),
		Title:          post.Title,
		Content:        post.Content,
		ImageURL:       post.ImageURL,
		LinkURL:        post.LinkURL,
		PostType:       string(post.PostType),
		AuthorID:       post.AuthorID.String(),
		AuthorUsername: post.AuthorUsername,
		SubredditID:    post.SubredditID.String(),
		SubredditName:  post.SubredditName,
		Upvotes:        idsToStrings(post.Upvotes),
		Downvotes:      idsToStrings(post.Downvotes),
		CommentCount:   post.CommentCount,
		CreatedAt:      post.CreatedAt,
		UpdatedAt:      post.UpdatedAt,
	}
}

// DocumentToModel converts a MongoDB document to a Post model.
func (m *MongoDB) DocumentToModel(doc *PostDocument) (*models.Post, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid post ID: %v", err)
	}

	authorID, err := uuid.Parse(doc.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("invalid author ID: %v", err)
	}

	subredditID, err := uuid.Parse(doc.SubredditID)
	if err != nil {
		return nil, fmt.Errorf("invalid subreddit ID: %v", err)
	}

	return &models.Post{
		ID:             id,
		Title:          doc.Title,
		Content:        doc.Content,
		ImageURL:       doc.ImageURL,
		LinkURL:        doc.LinkURL,
		PostType:       models.PostType(doc.PostType),
		AuthorID:       authorID,
		AuthorUsername: doc.AuthorUsername,
		SubredditID:    subredditID,
		SubredditName:  doc.SubredditName,
		Upvotes:        stringsToIDs(doc.Upvotes),
		Downvotes:      stringsToIDs(doc.Downvotes),
		CommentCount:   doc.CommentCount,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}, nil
}

func (m *MongoDB) CreatePost(ctx context.Context, post *models.Post) error {
	if _, err := m.Posts.InsertOne(ctx, m.ModelToDocument(post)); err != nil {
		return utils.NewDatabaseError("failed to create post", err)
	}
	return nil
}

// GetPost retrieves a post by its ID.
func (m *MongoDB) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var doc PostDocument

	err := m.Posts.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrNotFound, "Post not found", err)
	}
	if err != nil {
		return nil, utils.NewDatabaseError("failed to get post", err)
	}

	return m.DocumentToModel(&doc)
}

// ListPosts runs a feed query.
func (m *MongoDB) ListPosts(ctx context.Context, query PostQuery) ([]*models.Post, error) {
	filter := bson.M{}
	if query.SubredditID != uuid.Nil {
		filter["subredditId"] = query.SubredditID.String()
	}
	if query.AuthorIDs != nil {
		filter["authorId"] = bson.M{"$in": idsToStrings(query.AuthorIDs)}
	}

	sort := bson.D{{Key: "createdAt", Value: -1}}
	if query.Sort == SortMostCommented {
		sort = bson.D{{Key: "commentCount", Value: -1}, {Key: "createdAt", Value: -1}}
	}

	page := query.Page.Normalize()
	opts := options.Find().
		SetSort(sort).
		SetSkip(int64(page.Offset)).
		SetLimit(int64(page.Limit))

	return m.findPosts(ctx, filter, opts)
}

func (m *MongoDB) SearchPosts(ctx context.Context, term string, limit int) ([]*models.Post, error) {
	pattern := bson.M{"$regex": regexp.QuoteMeta(term), "$options": "i"}
	filter := bson.M{"$or": []bson.M{{"title": pattern}, {"content": pattern}}}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(int64(limit))
	return m.findPosts(ctx, filter, opts)
}

func (m *MongoDB) findPosts(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Post, error) {
	cursor, err := m.Posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, utils.NewDatabaseError("database query failed", err)
	}
	defer cursor.Close(ctx)

	posts := make([]*models.Post, 0)
	for cursor.Next(ctx) {
		var doc PostDocument
		if err := cursor.Decode(&doc); err != nil {
			m.logger.Sugar().Warnf("error decoding post document: %v", err)
			continue
		}

		post, err := m.DocumentToModel(&doc)
		if err != nil {
			m.logger.Sugar().Warnf("error converting document to model: %v", err)
			continue
		}
		posts = append(posts, post)
	}

	if err := cursor.Err(); err != nil {
		return nil, utils.NewDatabaseError("cursor iteration failed", err)
	}
	return posts, nil
}

// ListPostIDs returns the ids of every post in a subreddit.
func (m *MongoDB) ListPostIDs(ctx context.Context, subredditID uuid.UUID) ([]uuid.UUID, error) {
	return distinctIDs(ctx, m.Posts, bson.M{"subredditId": subredditID.String()})
}

// IncrementCommentCount adjusts the denormalized comment count of a post.
func (m *MongoDB) IncrementCommentCount(ctx context.Context, postID uuid.UUID, delta int) error {
	result, err := m.Posts.UpdateOne(ctx,
		bson.M{"_id": postID.String()},
		bson.M{"$inc": bson.M{"commentCount": delta}})
	if err != nil {
		return utils.NewDatabaseError("failed to update comment count", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	return nil
}

// distinctIDs projects matching documents down to their ids.
func distinctIDs(ctx context.Context, coll *mongo.Collection, filter bson.M) ([]uuid.UUID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, utils.NewDatabaseError("failed to list ids", err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, utils.NewDatabaseError("failed to decode id", err)
		}
		ids = append(ids, doc.ID)
	}
	if err := cursor.Err(); err != nil {
		return nil, utils.NewDatabaseError("cursor iteration failed", err)
	}
	return stringsToIDs(ids), nil
}
