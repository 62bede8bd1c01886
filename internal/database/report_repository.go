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

// ReportDocument stores the tagged target as kind + id.
type ReportDocument struct {
	ID             string    `bson:"_id"`
	ReporterID     string    `bson:"reporterId"`
	TargetKind     string    `bson:"targetKind"`
	TargetID       string    `bson:"targetId"`
	PostID         string    `bson:"postId"`
	SubredditID    string    `bson:"subredditId"`
	Reason         string    `bson:"reason"`
	Description    string    `bson:"description,omitempty"`
	Status         string    `bson:"status"`
	ModeratorNotes string    `bson:"moderatorNotes,omitempty"`
	CreatedAt      time.Time `bson:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt"`
}

func reportToDocument(r *models.Report) *ReportDocument {
	return &ReportDocument{
		ID:             r.ID.String(),
		ReporterID:     r.ReporterID.String(),
		TargetKind:     string(r.Target.Kind),
		TargetID:       r.Target.ID.String(),
		PostID:         r.PostID.String(),
		SubredditID:    r.SubredditID.String(),
		Reason:         string(r.Reason),
		Description:    r.Description,
		Status:         string(r.Status),
		ModeratorNotes: r.ModeratorNotes,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func documentToReport(doc *ReportDocument) (*models.Report, error) {
	ids := make([]uuid.UUID, 5)
	for i, raw := range []string{doc.ID, doc.ReporterID, doc.TargetID, doc.PostID, doc.SubredditID} {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid id in report %s: %v", doc.ID, err)
		}
		ids[i] = id
	}
	return &models.Report{
		ID:             ids[0],
		ReporterID:     ids[1],
		Target:         models.ContentRef{Kind: models.ContentKind(doc.TargetKind), ID: ids[2]},
		PostID:         ids[3],
		SubredditID:    ids[4],
		Reason:         models.ReportReason(doc.Reason),
		Description:    doc.Description,
		Status:         models.ReportStatus(doc.Status),
		ModeratorNotes: doc.ModeratorNotes,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}, nil
}

func (m *MongoDB) CreateReport(ctx context.Context, report *models.Report) error {
	if _, err := m.Reports.InsertOne(ctx, reportToDocument(report)); err != nil {
		return utils.NewDatabaseError("failed to create report", err)
	}
	return nil
}

func (m *MongoDB) GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var doc ReportDocument
	err := m.Reports.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrNotFound, "Report not found", err)
	}
	if err != nil {
		return nil, utils.NewDatabaseError("failed to get report", err)
	}
	return documentToReport(&doc)
}

func reportFilterToBSON(filter ReportFilter) bson.M {
	query := bson.M{}
	if filter.SubredditID != uuid.Nil {
		query["subredditId"] = filter.SubredditID.String()
	}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}

	var targets []bson.M
	if len(filter.PostIDs) > 0 {
		targets = append(targets, bson.M{"postId": bson.M{"$in": idsToStrings(filter.PostIDs)}})
	}
	if len(filter.CommentIDs) > 0 {
		targets = append(targets, bson.M{
			"targetKind": string(models.CommentContent),
			"targetId":   bson.M{"$in": idsToStrings(filter.CommentIDs)},
		})
	}
	if len(targets) > 0 {
		query["$or"] = targets
	}
	return query
}

// ListReports returns matching reports, newest first.
func (m *MongoDB) ListReports(ctx context.Context, filter ReportFilter) ([]*models.Report, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := m.Reports.Find(ctx, reportFilterToBSON(filter), opts)
	if err != nil {
		return nil, utils.NewDatabaseError("failed to list reports", err)
	}
	defer cursor.Close(ctx)

	reports := make([]*models.Report, 0)
	for cursor.Next(ctx) {
		var doc ReportDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, utils.NewDatabaseError("failed to decode report", err)
		}
		report, err := documentToReport(&doc)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	if err := cursor.Err(); err != nil {
		return nil, utils.NewDatabaseError("cursor iteration failed", err)
	}
	return reports, nil
}

func (m *MongoDB) UpdateReport(ctx context.Context, id uuid.UUID, status models.ReportStatus, notes string) (*models.Report, error) {
	set := bson.M{"status": string(status), "updatedAt": time.Now()}
	if notes != "" {
		set["moderatorNotes"] = notes
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc ReportDocument
	err := m.Reports.FindOneAndUpdate(ctx, bson.M{"_id": id.String()}, bson.M{"$set": set}, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrNotFound, "Report not found", err)
	}
	if err != nil {
		return nil, utils.NewDatabaseError("failed to update report", err)
	}
	return documentToReport(&doc)
}
