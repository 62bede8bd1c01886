// internal/database/comment_repository.go
package database

import (
	"context"
	"fmt"
	"time"

	"gator-forum/internal/models"
	"gator-forum/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CommentDocument represents the MongoDB schema for a comment
type CommentDocument struct {
	ID              string    `bson:"_id"`
	Text            string    `bson:"text"`
	AuthorID        string    `bson:"authorId"`
	AuthorUsername  string    `bson:"authorUsername"`
	PostID          string    `bson:"postId"`
	ParentCommentID *string   `bson:"parentCommentId,omitempty"`
	Upvotes         []string  `bson:"upvotes"`
	Downvotes       []string  `bson:"downvotes"`
	CreatedAt       time.Time `bson:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt"`
}

func commentToDocument(comment *models.Comment) *CommentDocument {
	doc := &CommentDocument{
		ID:             comment.ID.String(),
		Text:           comment.Text,
		AuthorID:       comment.AuthorID.String(),
		AuthorUsername: comment.AuthorUsername,
		PostID:         comment.PostID.String(),
		Upvotes:        idsToStrings(comment.Upvotes),
		Downvotes:      idsToStrings(comment.Downvotes),
		CreatedAt:      comment.CreatedAt,
		UpdatedAt:      comment.UpdatedAt,
	}
	if comment.ParentCommentID != nil {
		parentID := comment.ParentCommentID.String()
		doc.ParentCommentID = &parentID
	}
	return doc
}

func convertCommentDocumentToModel(doc *CommentDocument) (*models.Comment, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid comment ID: %v", err)
	}
	authorID, err := uuid.Parse(doc.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("invalid author ID: %v", err)
	}
	postID, err := uuid.Parse(doc.PostID)
	if err != nil {
		return nil, fmt.Errorf("invalid post ID: %v", err)
	}

	comment := &models.Comment{
		ID:             id,
		Text:           doc.Text,
		AuthorID:       authorID,
		AuthorUsername: doc.AuthorUsername,
		PostID:         postID,
		Upvotes:        stringsToIDs(doc.Upvotes),
		Downvotes:      stringsToIDs(doc.Downvotes),
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
	if doc.ParentCommentID != nil {
		parentID, err := uuid.Parse(*doc.ParentCommentID)
		if err != nil {
			return nil, fmt.Errorf("invalid parent ID: %v", err)
		}
		comment.ParentCommentID = &parentID
	}
	return comment, nil
}

func (m *MongoDB) CreateComment(ctx context.Context, comment *models.Comment) error {
	if _, err := m.Comments.InsertOne(ctx, commentToDocument(comment)); err != nil {
		return utils.NewDatabaseError("failed to save comment", err)
	}
	return nil
}

func (m *MongoDB) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var doc CommentDocument
	err := m.Comments.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrNotFound, "Comment not found", err)
	}
	if err != nil {
		return nil, utils.NewDatabaseError("failed to get comment", err)
	}
	return convertCommentDocumentToModel(&doc)
}

// ListComments returns every comment on a post, oldest first.
func (m *MongoDB) ListComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := m.Comments.Find(ctx, bson.M{"postId": postID.String()}, opts)
	if err != nil {
		return nil, utils.NewDatabaseError("failed to get comments", err)
	}
	defer cursor.Close(ctx)

	comments := make([]*models.Comment, 0)
	for cursor.Next(ctx) {
		var doc CommentDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, utils.NewDatabaseError("failed to decode comment", err)
		}
		comment, err := convertCommentDocumentToModel(&doc)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	if err := cursor.Err(); err != nil {
		return nil, utils.NewDatabaseError("cursor iteration failed", err)
	}
	return comments, nil
}

// ListCommentIDs returns the ids of every comment on any of the given posts.
func (m *MongoDB) ListCommentIDs(ctx context.Context, postIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	return distinctIDs(ctx, m.Comments, bson.M{"postId": bson.M{"$in": idsToStrings(postIDs)}})
}
