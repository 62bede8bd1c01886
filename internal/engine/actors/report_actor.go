package actors

import (
	stdctx "context"
	"strings"
	"time"

	"gator-forum/internal/database"
	"gator-forum/internal/events"
	"gator-forum/internal/models"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxReportDescription = 1000

// Message types for moderation reports
type (
	CreateReportMsg struct {
		ReporterID  uuid.UUID
		Target      models.ContentRef
		Reason      models.ReportReason
		Description string
	}

	ListReportsMsg struct {
		SubredditName string
		RequesterID   uuid.UUID
		Status        models.ReportStatus
	}

	UpdateReportMsg struct {
		ReportID       uuid.UUID
		RequesterID    uuid.UUID
		Status         models.ReportStatus
		ModeratorNotes string
	}
)

// ReportActor files reports and lets community creators moderate them.
type ReportActor struct {
	*Deps
}

func NewReportActor(deps *Deps) actor.Actor {
	return &ReportActor{Deps: deps}
}

func (a *ReportActor) Receive(context actor.Context) {
	if a.lifecycle("ReportActor", context.Message()) {
		return
	}
	switch msg := context.Message().(type) {
	case *CreateReportMsg:
		a.handleCreateReport(context, msg)
	case *ListReportsMsg:
		a.handleListReports(context, msg)
	case *UpdateReportMsg:
		a.handleUpdateReport(context, msg)
	case *HealthCheckMsg:
		context.Respond(true)
	default:
		a.Logger.Warn("ReportActor: unknown message", zap.String("type", typeName(msg)))
	}
}

// locate resolves a report target to the post it lives on and that post's community.
func locate(ctx stdctx.Context, db database.DBAdapter, target models.ContentRef) (postID, subredditID uuid.UUID, err error) {
	postID = target.ID
	if target.Kind == models.CommentContent {
		comment, err := db.GetComment(ctx, target.ID)
		if err != nil {
			return uuid.Nil, uuid.Nil, err
		}
		postID = comment.PostID
	}
	post, err := db.GetPost(ctx, postID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return post.ID, post.SubredditID, nil
}

func (a *ReportActor) handleCreateReport(context actor.Context, msg *CreateReportMsg) {
	startTime := time.Now()
	if !msg.Target.Kind.Valid() {
		a.respond(context, "create_report", startTime, nil, invalidInput("kind must be post or comment"))
		return
	}
	if !msg.Reason.Valid() {
		a.respond(context, "create_report", startTime, nil,
			invalidInput("reason must be one of spam, harassment, hate_speech, violence, misinformation, other"))
		return
	}
	description := strings.TrimSpace(msg.Description)
	if len(description) > maxReportDescription {
		a.respond(context, "create_report", startTime, nil, invalidInput("Description is too long"))
		return
	}

	ctx, cancel := a.storeContext()
	defer cancel()

	postID, subredditID, err := locate(ctx, a.DB, msg.Target)
	if err != nil {
		a.respond(context, "create_report", startTime, nil, err)
		return
	}

	now := time.Now()
	report := &models.Report{
		ID:          uuid.New(),
		ReporterID:  msg.ReporterID,
		Target:      msg.Target,
		PostID:      postID,
		SubredditID: subredditID,
		Reason:      msg.Reason,
		Description: description,
		Status:      models.ReportPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.DB.CreateReport(ctx, report); err != nil {
		a.respond(context, "create_report", startTime, nil, err)
		return
	}

	a.publish(events.ReportCreated, subredditID.String(), report)
	a.respond(context, "create_report", startTime, report, nil)
}

func (a *ReportActor) handleListReports(context actor.Context, msg *ListReportsMsg) {
	startTime := time.Now()
	if msg.Status != "" && !msg.Status.Valid() {
		a.respond(context, "list_reports", startTime, nil, invalidInput("Unknown report status"))
		return
	}

	ctx, cancel := a.storeContext()
	defer cancel()

	sub, err := a.DB.GetSubredditByName(ctx, msg.SubredditName)
	if err != nil {
		a.respond(context, "list_reports", startTime, nil, err)
		return
	}
	if sub.CreatorID != msg.RequesterID {
		a.respond(context, "list_reports", startTime, nil, forbidden("Only the creator can view reports for this community"))
		return
	}

	reports, err := a.DB.ListReports(ctx, database.ReportFilter{SubredditID: sub.ID, Status: msg.Status})
	a.respond(context, "list_reports", startTime, reports, err)
}

func (a *ReportActor) handleUpdateReport(context actor.Context, msg *UpdateReportMsg) {
	startTime := time.Now()
	if !msg.Status.Valid() {
		a.respond(context, "update_report", startTime, nil,
			invalidInput("status must be one of pending, under_review, resolved, dismissed"))
		return
	}

	ctx, cancel := a.storeContext()
	defer cancel()

	report, err := a.DB.GetReport(ctx, msg.ReportID)
	if err != nil {
		a.respond(context, "update_report", startTime, nil, err)
		return
	}
	sub, err := a.DB.GetSubredditByID(ctx, report.SubredditID)
	if err != nil {
		a.respond(context, "update_report", startTime, nil, err)
		return
	}
	if sub.CreatorID != msg.RequesterID {
		a.respond(context, "update_report", startTime, nil, forbidden("Only the creator can moderate this community"))
		return
	}

	updated, err := a.DB.UpdateReport(ctx, report.ID, msg.Status, strings.TrimSpace(msg.ModeratorNotes))
	if err != nil {
		a.respond(context, "update_report", startTime, nil, err)
		return
	}
	a.publish(events.ReportUpdated, sub.ID.String(), updated)
	a.respond(context, "update_report", startTime, updated, nil)
}
