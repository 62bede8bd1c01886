package handlers

import (
	"gator-forum/internal/api"
	"gator-forum/internal/engine/actors"
	"gator-forum/internal/feed"
	"gator-forum/internal/middleware"
	"gator-forum/internal/models"
	"gator-forum/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// subredditActionRequest is the body of POST /api/subreddits.
type subredditActionRequest struct {
	Action      string `json:"action" binding:"required,oneof=create delete"`
	Name        string `json:"name" binding:"required_if=Action create"`
	Description string `json:"description" binding:"max=500"`
	SubredditID string `json:"subredditId" binding:"required_if=Action delete"`
	RequesterID string `json:"requesterId"`
}

// ListSubreddits handles GET /api/subreddits.
func (s *Server) ListSubreddits(c *gin.Context) {
	result, ok := s.ask(c, s.Engine.GetSubredditActor(), &actors.ListSubredditsMsg{ViewerID: viewerID(c)})
	if !ok {
		return
	}
	api.OK(c, result)
}

// SubredditAction handles POST /api/subreddits, which creates or deletes a
// community depending on the action field.
func (s *Server) SubredditAction(c *gin.Context) {
	var req subredditActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	user := middleware.CurrentUser(c)

	switch req.Action {
	case "create":
		result, ok := s.ask(c, s.Engine.GetSubredditActor(), &actors.CreateSubredditMsg{
			Name:        req.Name,
			Description: req.Description,
			CreatorID:   user.ID,
		})
		if !ok {
			return
		}
		api.Created(c, result)

	case "delete":
		subredditID, err := uuid.Parse(req.SubredditID)
		if err != nil {
			api.BadRequest(c, "subredditId must be a valid id")
			return
		}
		// the requester may only act as themselves
		if req.RequesterID != "" && req.RequesterID != middleware.CurrentIdentity(c).ID {
			api.Fail(c, utils.NewAppError(utils.ErrForbidden, "Requester does not match the signed-in user", nil))
			return
		}
		result, ok := s.ask(c, s.Engine.GetSubredditActor(), &actors.DeleteSubredditMsg{
			SubredditID: subredditID,
			RequesterID: user.ID,
		})
		if !ok {
			return
		}
		api.OK(c, result)
	}
}

// GetSubreddit handles GET /api/subreddits/:name.
func (s *Server) GetSubreddit(c *gin.Context) {
	var uri communityURI
	if err := c.ShouldBindUri(&uri); err != nil {
		bindError(c, err)
		return
	}
	result, ok := s.ask(c, s.Engine.GetSubredditActor(), &actors.GetSubredditMsg{Name: uri.Name, ViewerID: viewerID(c)})
	if !ok {
		return
	}
	api.OK(c, result)
}

func (s *Server) JoinSubreddit(c *gin.Context) {
	s.membership(c, true)
}

func (s *Server) LeaveSubreddit(c *gin.Context) {
	s.membership(c, false)
}

func (s *Server) membership(c *gin.Context, join bool) {
	var uri communityURI
	if err := c.ShouldBindUri(&uri); err != nil {
		bindError(c, err)
		return
	}
	user := middleware.CurrentUser(c)

	var msg interface{} = &actors.LeaveSubredditMsg{Name: uri.Name, UserID: user.ID}
	if join {
		msg = &actors.JoinSubredditMsg{Name: uri.Name, UserID: user.ID}
	}
	result, ok := s.ask(c, s.Engine.GetSubredditActor(), msg)
	if !ok {
		return
	}
	api.OK(c, result)
}

// lookupSubreddit resolves a community name to its document.
func (s *Server) lookupSubreddit(c *gin.Context, name string) (*models.SubredditDetails, bool) {
	result, ok := s.ask(c, s.Engine.GetSubredditActor(), &actors.GetSubredditMsg{Name: name, ViewerID: viewerID(c)})
	if !ok {
		return nil, false
	}
	return reply[*models.SubredditDetails](c, result)
}

// SubredditPosts handles GET /api/subreddits/:name/posts, the per-community feed.
func (s *Server) SubredditPosts(c *gin.Context) {
	var uri communityURI
	if err := c.ShouldBindUri(&uri); err != nil {
		bindError(c, err)
		return
	}
	var query pageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindError(c, err)
		return
	}
	sub, ok := s.lookupSubreddit(c, uri.Name)
	if !ok {
		return
	}

	result, ok := s.ask(c, s.Engine.GetPostActor(), &actors.GetFeedMsg{Request: feed.Request{
		Kind:        feed.All,
		Viewer:      middleware.CurrentUser(c),
		SubredditID: sub.ID,
		Page:        query.page(),
	}})
	if !ok {
		return
	}
	api.OK(c, result)
}

type reportsQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=pending under_review resolved dismissed"`
}

// SubredditReports handles GET /api/subreddits/:name/reports for the community creator.
func (s *Server) SubredditReports(c *gin.Context) {
	var uri communityURI
	if err := c.ShouldBindUri(&uri); err != nil {
		bindError(c, err)
		return
	}
	var query reportsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindError(c, err)
		return
	}

	result, ok := s.ask(c, s.Engine.GetReportActor(), &actors.ListReportsMsg{
		SubredditName: uri.Name,
		RequesterID:   middleware.CurrentUser(c).ID,
		Status:        models.ReportStatus(query.Status),
	})
	if !ok {
		return
	}
	api.OK(c, result)
}
