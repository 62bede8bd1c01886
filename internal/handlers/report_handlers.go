package handlers

import (
	"gator-forum/internal/api"
	"gator-forum/internal/engine/actors"
	"gator-forum/internal/middleware"
	"gator-forum/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type createReportRequest struct {
	Kind        models.ContentKind  `json:"kind" binding:"required,oneof=post comment"`
	ID          string              `json:"id" binding:"required,uuid"`
	Reason      models.ReportReason `json:"reason" binding:"required,oneof=spam harassment hate_speech violence misinformation other"`
	Description string              `json:"description" binding:"max=1000"`
}

type updateReportRequest struct {
	Status         models.ReportStatus `json:"status" binding:"required,oneof=pending under_review resolved dismissed"`
	ModeratorNotes string              `json:"moderatorNotes" binding:"max=1000"`
}

// CreateReport handles POST /api/reports.
func (s *Server) CreateReport(c *gin.Context) {
	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, ok := s.ask(c, s.Engine.GetReportActor(), &actors.CreateReportMsg{
		ReporterID:  middleware.CurrentUser(c).ID,
		Target:      models.ContentRef{Kind: req.Kind, ID: uuid.MustParse(req.ID)},
		Reason:      req.Reason,
		Description: req.Description,
	})
	if !ok {
		return
	}
	api.Created(c, result)
}

// UpdateReport handles PATCH /api/reports/:id for the community creator.
func (s *Server) UpdateReport(c *gin.Context) {
	reportID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, ok := s.ask(c, s.Engine.GetReportActor(), &actors.UpdateReportMsg{
		ReportID:       reportID,
		RequesterID:    middleware.CurrentUser(c).ID,
		Status:         req.Status,
		ModeratorNotes: req.ModeratorNotes,
	})
	if !ok {
		return
	}
	api.OK(c, result)
}
