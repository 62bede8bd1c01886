package handlers

import (
	"gator-forum/internal/api"
	"gator-forum/internal/engine/actors"
	"gator-forum/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type createCommentRequest struct {
	Text     string `json:"text" binding:"required,max=10000"`
	ParentID string `json:"parentId" binding:"omitempty,uuid"`
}

// GetComments handles GET /api/posts/:id/comments and returns the comment tree.
func (s *Server) GetComments(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, ok := s.ask(c, s.Engine.GetCommentActor(), &actors.GetCommentsForPostMsg{PostID: postID, ViewerID: viewerID(c)})
	if !ok {
		return
	}
	api.OK(c, result)
}

// CreateComment handles POST /api/posts/:id/comments.
func (s *Server) CreateComment(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	msg := &actors.CreateCommentMsg{
		Text:     req.Text,
		AuthorID: middleware.CurrentUser(c).ID,
		PostID:   postID,
	}
	if req.ParentID != "" {
		parentID := uuid.MustParse(req.ParentID)
		msg.ParentID = &parentID
	}

	result, ok := s.ask(c, s.Engine.GetCommentActor(), msg)
	if !ok {
		return
	}
	api.Created(c, result)
}

// DeleteComment handles DELETE /api/comments/:id. Replies are removed with it.
func (s *Server) DeleteComment(c *gin.Context) {
	commentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, ok := s.ask(c, s.Engine.GetCommentActor(), &actors.DeleteCommentMsg{
		CommentID:   commentID,
		RequesterID: middleware.CurrentUser(c).ID,
	})
	if !ok {
		return
	}
	api.OK(c, result)
}
